package saiqual

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/okaravasi/sonic-mgmt/pkg/dut"
	"github.com/okaravasi/sonic-mgmt/pkg/poll"
	"github.com/okaravasi/sonic-mgmt/pkg/remote"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// Deps are the collaborators a Controller drives. Only DUT is required.
type Deps struct {
	DUT remote.Executor
	// Runtime defaults to the docker CLI over DUT.
	Runtime dut.Runtime
	// Facts are read from the device on first use when nil.
	Facts    *dut.Facts
	Registry dut.Registry
	Clock    poll.Clock
	Prober   Prober
	// Store persists the session when set.
	Store *Store
	// Name keys the persisted session; the DUT host by default.
	Name string
	// OnTransition, when set, is called after every lifecycle change.
	OnTransition func(from, to State)
}

// Controller owns the lifecycle of one test container. It is not safe for
// concurrent use.
type Controller struct {
	opts  Options
	deps  Deps
	desc  Descriptor
	state State
	log   *logrus.Entry

	progress Progress
	images   images
	session  *SessionState
}

// images are the names resolved from the device facts on first use.
type images struct {
	Vendor    string `json:"vendor,omitempty"`
	OSVersion string `json:"os_version,omitempty"`
	// Image is the image the container runs from: the saiserver image or
	// the syncd RPC image.
	Image string `json:"image,omitempty"`
}

func (i images) resolved() bool {
	return i.Image != ""
}

// NewController validates opts and returns a controller in UNDEPLOYED.
func NewController(opts Options, deps Deps) (*Controller, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("saiqual: %w", err)
	}
	if deps.DUT == nil {
		return nil, fmt.Errorf("saiqual: %w: no DUT executor", util.ErrInvalidConfig)
	}
	if deps.Runtime == nil {
		deps.Runtime = dut.NewCLIRuntime(deps.DUT)
	}
	if deps.Clock == nil {
		deps.Clock = poll.RealClock
	}
	if deps.Prober == nil {
		deps.Prober = TCPProber{}
	}
	if deps.Name == "" {
		deps.Name = deps.DUT.Host()
	}

	host := opts.EndpointHost
	if host == "" {
		host = deps.DUT.Host()
	}
	desc := Descriptor{
		Name:         opts.ContainerName(),
		EndpointHost: host,
		EndpointPort: opts.RPCPort,
	}
	return &Controller{
		opts:  opts,
		deps:  deps,
		desc:  desc,
		state: Undeployed,
		log:   util.WithContainer(desc.Name).WithField("dut", deps.Name),
	}, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Descriptor returns the container descriptor.
func (c *Controller) Descriptor() Descriptor {
	return c.desc
}

// Progress returns the remote resources the deployment has reached.
func (c *Controller) Progress() Progress {
	return c.progress
}

// Options returns the options the controller was built with.
func (c *Controller) Options() Options {
	return c.opts
}

func (c *Controller) transition(to State) error {
	if err := checkTransition(c.state, to); err != nil {
		return fmt.Errorf("saiqual: %s: %w", c.desc.Name, err)
	}
	from := c.state
	c.log.Infof("%s -> %s", from, to)
	c.state = to
	c.persist()
	if c.deps.OnTransition != nil {
		c.deps.OnTransition(from, to)
	}
	return nil
}

// Deploy provisions the test container and waits for its RPC endpoint.
// It must be called in UNDEPLOYED and leaves the controller in READY on
// success or FAILED otherwise.
func (c *Controller) Deploy(ctx context.Context) error {
	if err := c.claim(); err != nil {
		return err
	}
	if err := c.transition(Deploying); err != nil {
		return err
	}

	var err error
	if c.opts.SkipSetup {
		err = c.adopt(ctx)
	} else {
		err = c.setup(ctx)
	}
	if err != nil {
		c.log.Errorf("Deploy failed: %v", err)
		if terr := c.transition(Failed); terr != nil {
			return errors.Join(err, terr)
		}
		return err
	}
	c.log.Infof("Ready at %s", c.desc.Endpoint())
	return c.transition(Ready)
}

// adopt takes over an environment deployed by an earlier run. Nothing on
// the device is changed; the endpoint only has to answer.
func (c *Controller) adopt(ctx context.Context) error {
	c.log.Info("skip_setup set, adopting the running environment")
	c.progress = fullProgress(c.opts.Warmboot())
	if !poll.UntilReady(ctx, c.deps.Clock, c.opts.AdoptProbe, c.probeOp(ctx)) {
		return c.readinessError(c.opts.AdoptProbe.Timeout)
	}
	return nil
}

func (c *Controller) setup(ctx context.Context) error {
	if err := c.resolveImages(ctx); err != nil {
		return err
	}
	if err := c.copyScripts(ctx); err != nil {
		return err
	}
	if err := c.stopServices(ctx); err != nil {
		return err
	}
	if err := c.prepareContainer(ctx); err != nil {
		return err
	}
	return c.startWithRetry(ctx)
}

// ProbeReady reports whether the RPC endpoint accepts a TCP connection
// within the probe timeout.
func (c *Controller) ProbeReady(ctx context.Context) bool {
	c.log.Debugf("Probing rpc endpoint %s", c.desc.Endpoint())
	return c.deps.Prober.Probe(ctx, c.desc.Endpoint(), c.opts.ProbeTimeout)
}

func (c *Controller) probeOp(ctx context.Context) func() (bool, error) {
	return func() (bool, error) {
		return c.ProbeReady(ctx), nil
	}
}

func (c *Controller) readinessError(timeout time.Duration) error {
	return &util.ReadinessError{
		Container: c.desc.Name,
		Endpoint:  c.desc.Endpoint(),
		Timeout:   timeout,
	}
}

// Revert undoes the deployment and returns the controller to UNDEPLOYED.
// In UNDEPLOYED it does nothing. Each teardown step runs even when an
// earlier one failed; the failures are joined into the returned error.
//
// When a step fails the persisted session is kept in TEARING_DOWN with the
// steps still pending, so a later Resume and Revert can finish the job.
// A controller resumed in TEARING_DOWN runs the pending steps again.
func (c *Controller) Revert(ctx context.Context) error {
	if c.state == Undeployed {
		c.log.Debug("Nothing deployed, revert is a no-op")
		return nil
	}
	if c.state == TearingDown {
		c.log.Infof("Resuming an unfinished revert of %s", c.desc.Name)
	} else if err := c.transition(TearingDown); err != nil {
		return err
	}

	var errs []error
	if c.opts.KeepEnv {
		c.log.Infof("keep_env set, leaving %s deployed", c.desc.Name)
	} else {
		errs = c.teardown(ctx)
	}

	pending := c.progress
	c.progress = Progress{}
	if len(errs) > 0 {
		c.keepPending(pending)
	}
	if err := c.transition(Undeployed); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		c.forget()
	}
	c.session = nil
	return errors.Join(errs...)
}
