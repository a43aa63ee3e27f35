package saiqual

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okaravasi/sonic-mgmt/internal/testutil"
	"github.com/okaravasi/sonic-mgmt/pkg/dut"
	"github.com/okaravasi/sonic-mgmt/pkg/remote"
)

const (
	testDUT       = "10.0.0.10"
	testOSVersion = "20230531.17"
)

// harness wires a controller to fakes. The DUT's container start scripts
// create the container in the fake runtime, and a config reload brings
// swss and syncd back.
type harness struct {
	dut         *testutil.FakeExecutor
	rt          *testutil.FakeRuntime
	clock       *testutil.FakeClock
	prober      *testutil.FakeProber
	opts        Options
	deps        Deps
	transitions []string
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()

	dir := t.TempDir()
	opts := DefaultOptions()
	opts.ScriptsDir = dir
	for _, script := range opts.Scripts {
		if err := os.WriteFile(filepath.Join(dir, script), []byte("#!/bin/bash\n"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if mutate != nil {
		mutate(&opts)
	}

	h := &harness{
		dut:    testutil.NewFakeExecutor(testDUT),
		rt:     testutil.NewFakeRuntime(),
		clock:  testutil.NewFakeClock(),
		prober: testutil.ReadyAfter(2),
		opts:   opts,
	}
	h.rt.AddContainer("swss", true).AddContainer("syncd", true)
	h.dut.OnFunc(".sh start", func(cmd string) (*remote.Result, error) {
		name := strings.TrimSuffix(path.Base(strings.Fields(cmd)[1]), ".sh")
		h.rt.AddContainer(name, true)
		return remote.NewResult(0, "", ""), nil
	})
	h.dut.OnFunc("config reload", func(string) (*remote.Result, error) {
		h.rt.AddContainer("swss", true).AddContainer("syncd", true)
		return remote.NewResult(0, "", ""), nil
	})
	h.deps = Deps{
		DUT:      h.dut,
		Runtime:  h.rt,
		Facts:    &dut.Facts{AsicType: "broadcom", BuildVersion: testOSVersion},
		Registry: dut.Registry{Host: "reg.example.com"},
		Clock:    h.clock,
		Prober:   h.prober,
		OnTransition: func(from, to State) {
			h.transitions = append(h.transitions, from.String()+"->"+to.String())
		},
	}
	return h
}

func (h *harness) controller(t *testing.T) *Controller {
	t.Helper()
	c, err := NewController(h.opts, h.deps)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	return c
}

func (h *harness) dutCalls() []string {
	var out []string
	for _, c := range h.dut.Calls() {
		out = append(out, c.String())
	}
	return out
}

// runtimeMutations returns the runtime calls that change the DUT.
func (h *harness) runtimeMutations() []string {
	var out []string
	for _, call := range h.rt.Calls() {
		switch strings.Fields(call)[0] {
		case "running", "exists", "image":
			continue
		}
		out = append(out, call)
	}
	return out
}

// mutations returns every recorded operation that changes the DUT.
func (h *harness) mutations() []string {
	return append(h.dutCalls(), h.runtimeMutations()...)
}

func (h *harness) reset() {
	h.dut.Reset()
	h.rt.Reset()
	h.transitions = nil
}

func hasCall(calls []string, substr string) bool {
	for _, c := range calls {
		if strings.Contains(c, substr) {
			return true
		}
	}
	return false
}
