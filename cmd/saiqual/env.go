package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/okaravasi/sonic-mgmt/pkg/audit"
	"github.com/okaravasi/sonic-mgmt/pkg/cli"
	"github.com/okaravasi/sonic-mgmt/pkg/config"
	"github.com/okaravasi/sonic-mgmt/pkg/dut"
	"github.com/okaravasi/sonic-mgmt/pkg/portmap"
	"github.com/okaravasi/sonic-mgmt/pkg/remote"
	"github.com/okaravasi/sonic-mgmt/pkg/saiqual"
	"github.com/okaravasi/sonic-mgmt/pkg/settings"
	"github.com/okaravasi/sonic-mgmt/pkg/testbed"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// loadRun layers settings, config file, environment and flags.
func loadRun() (*config.Run, error) {
	s, err := settings.Load()
	if err != nil {
		util.Warnf("Could not load settings: %v", err)
	}
	loader.ApplySettings(s)
	return loader.Load(configFlag)
}

// env is the connected testbed a command works on.
type env struct {
	run     *config.Run
	tb      *testbed.Testbed
	dut     *remote.SSHExecutor
	ptf     *remote.SSHExecutor
	runtime dut.Runtime
	store   *saiqual.Store
	history audit.Logger

	closers []func() error
}

// openEnv loads the configuration and testbed and connects to the DUT, and
// to the PTF host when needPTF is set.
func openEnv(needPTF bool) (*env, error) {
	run, err := loadRun()
	if err != nil {
		return nil, err
	}
	if run.Testbed == "" {
		return nil, fmt.Errorf("no testbed: use --testbed or 'saiqual settings set testbed <file>'")
	}
	tb, err := testbed.Load(run.Testbed)
	if err != nil {
		return nil, err
	}
	if needPTF && tb.PTF == nil {
		return nil, fmt.Errorf("testbed %s has no ptf host", run.Testbed)
	}
	if err := tb.FillPasswords(testbed.TerminalPasswords(os.Stdin, os.Stderr)); err != nil {
		return nil, err
	}

	e := &env{run: run, tb: tb}
	if e.store, err = saiqual.NewStore(run.StoreDir); err != nil {
		return nil, err
	}
	if h, err := audit.NewFileLogger(audit.DefaultPath(), audit.DefaultRotation); err != nil {
		util.Warnf("History disabled: %v", err)
	} else {
		e.history = h
		e.closers = append(e.closers, h.Close)
	}

	if e.dut, err = remote.DialSSH(tb.DUT.SSHConfig()); err != nil {
		e.Close()
		return nil, fmt.Errorf("%w: %v", errInfraError, err)
	}
	e.closers = append(e.closers, e.dut.Close)

	if needPTF {
		if e.ptf, err = remote.DialSSH(tb.PTF.SSHConfig()); err != nil {
			e.Close()
			return nil, fmt.Errorf("%w: %v", errInfraError, err)
		}
		e.closers = append(e.closers, e.ptf.Close)
	}

	if run.Runtime == config.RuntimeAPI {
		rt, err := dut.NewAPIRuntime(e.dut.Client())
		if err != nil {
			e.Close()
			return nil, err
		}
		e.runtime = rt
		e.closers = append(e.closers, rt.Close)
	}
	return e, nil
}

// Close releases connections in reverse order of opening.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			util.Debugf("close: %v", err)
		}
	}
	e.closers = nil
}

func (e *env) deps() saiqual.Deps {
	name := e.tb.DUT.Label()
	return saiqual.Deps{
		DUT:      e.dut,
		Runtime:  e.runtime,
		Registry: e.tb.Registry,
		Store:    e.store,
		Name:     name,
		OnTransition: func(from, to saiqual.State) {
			fmt.Printf("  %s %s -> %s\n", cli.DotPad(name, 24), from, cli.LifecycleColor(to.String()))
			e.record(audit.NewTransition(name, e.run.Container, from.String(), to.String()))
		},
	}
}

// controller builds a controller for the configured container.
func (e *env) controller() (*saiqual.Controller, error) {
	opts, err := e.run.Options()
	if err != nil {
		return nil, err
	}
	return saiqual.NewController(opts, e.deps())
}

// resume rebuilds the controller of the persisted session.
func (e *env) resume() (*saiqual.Controller, error) {
	opts, err := e.run.Options()
	if err != nil {
		return nil, err
	}
	return saiqual.Resume(opts, e.deps())
}

func (e *env) record(event *audit.Event) {
	if e.history == nil {
		return
	}
	if err := e.history.Log(event); err != nil {
		util.Warnf("Recording history: %v", err)
	}
}

// timed runs fn and records it in the history as op.
func (e *env) timed(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	e.record(audit.NewEvent(e.tb.DUT.Label(), e.run.Container, op).
		WithError(err).WithDuration(time.Since(start)))
	return err
}

// portSource picks where the DUT's port names come from: a local
// port_config.ini, a local config_db.json, or the DUT's CONFIG_DB.
func (e *env) portSource() saiqual.PortSource {
	switch {
	case e.run.PortConfigFile != "":
		return func(context.Context) ([]string, error) {
			f, err := os.Open(e.run.PortConfigFile)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			ports, err := portmap.ParsePortConfig(f)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.run.PortConfigFile, err)
			}
			return portmap.Names(ports), nil
		}
	case e.run.ConfigDBFile != "":
		return func(context.Context) ([]string, error) {
			f, err := os.Open(e.run.ConfigDBFile)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			return dut.ParseConfigDBPorts(f)
		}
	default:
		return e.configDBPorts
	}
}

// configDBPorts reads the PORT table through an SSH tunnel to the DUT's
// redis.
func (e *env) configDBPorts(ctx context.Context) ([]string, error) {
	tunnel, err := dut.NewTunnel(e.dut.Client(), dut.RedisAddr)
	if err != nil {
		return nil, err
	}
	defer tunnel.Close()

	db := dut.NewConfigDB(tunnel.LocalAddr())
	defer db.Close()
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("CONFIG_DB on %s: %w", e.dut.Host(), err)
	}
	return db.Ports(ctx)
}

// infra marks err as an environment failure for the exit code, leaving
// test failures alone.
func infra(err error) error {
	if err == nil || errors.Is(err, errTestFailure) || errors.Is(err, errInfraError) {
		return err
	}
	return fmt.Errorf("%w: %w", errInfraError, err)
}
