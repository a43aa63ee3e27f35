package saiqual

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/okaravasi/sonic-mgmt/internal/testutil"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

const testPTF = "10.0.0.200"

func newTestPTF(t *testing.T, ports ...string) (*PTF, *testutil.FakeExecutor) {
	t.Helper()
	e := testutil.NewFakeExecutor(testPTF)
	p := NewPTF(e, StaticPorts(ports...))
	p.LocalDir = t.TempDir()
	return p, e
}

func TestPTF_Prepare(t *testing.T) {
	p, e := newTestPTF(t, "Ethernet8", "Ethernet0", "Ethernet16", "PortChannel0001")

	if err := p.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	dest := "/tmp/default_interface_to_front_map.ini"
	got, ok := e.Files[dest]
	if !ok {
		t.Fatalf("port map not copied to %s; calls %v", dest, e.Calls())
	}
	want := "# ptf host interface @ switch front port name\n" +
		"0@Ethernet0\n" +
		"1@Ethernet8\n" +
		"2@Ethernet16\n"
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("port map mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Ethernet0", "Ethernet8", "Ethernet16"}, p.MappedPorts()); diff != "" {
		t.Errorf("MappedPorts() mismatch (-want +got):\n%s", diff)
	}
	if got, want := p.InterfaceArgs(), "--interface '0-0@eth0' --interface '0-1@eth1' --interface '0-2@eth2'"; got != want {
		t.Errorf("InterfaceArgs() = %q, want %q", got, want)
	}

	if err := p.Cleanup(context.Background()); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if !e.Ran("delete " + dest) {
		t.Errorf("port map not deleted; calls %v", e.Calls())
	}
	e.Reset()
	if err := p.Cleanup(context.Background()); err != nil || len(e.Calls()) != 0 {
		t.Errorf("second Cleanup() = %v, calls %v", err, e.Calls())
	}
}

func TestPTF_PrepareNoEthernetPorts(t *testing.T) {
	p, e := newTestPTF(t, "PortChannel0001", "Loopback0")

	if err := p.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	got, ok := e.Files["/tmp/default_interface_to_front_map.ini"]
	if !ok {
		t.Fatalf("port map not copied; calls %v", e.Calls())
	}
	if want := "# ptf host interface @ switch front port name\n"; string(got) != want {
		t.Errorf("port map = %q, want %q", got, want)
	}
	if len(p.MappedPorts()) != 0 || p.InterfaceArgs() != "" {
		t.Errorf("MappedPorts() = %v, InterfaceArgs() = %q", p.MappedPorts(), p.InterfaceArgs())
	}
}

func TestPTF_CleanupUnprepared(t *testing.T) {
	p, e := newTestPTF(t, "Ethernet0")
	p.RemoteDir = "/root"

	if err := p.Cleanup(context.Background()); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if diff := cmp.Diff([]string{"delete /root/default_interface_to_front_map.ini"}, callStrings(e)); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	e.Reset()
	if err := p.Cleanup(context.Background()); err != nil || len(e.Calls()) != 0 {
		t.Errorf("second Cleanup() = %v, calls %v", err, e.Calls())
	}
}

func callStrings(e *testutil.FakeExecutor) []string {
	var out []string
	for _, c := range e.Calls() {
		out = append(out, c.String())
	}
	return out
}

func TestPTF_PrepareErrors(t *testing.T) {
	tests := []struct {
		name  string
		ports PortSource
	}{
		{"no source", nil},
		{"source fails", func(context.Context) ([]string, error) { return nil, errors.New("redis down") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, e := newTestPTF(t)
			p.Ports = tt.ports
			if err := p.Prepare(context.Background()); err == nil {
				t.Fatal("Prepare() succeeded")
			}
			if len(e.Calls()) != 0 {
				t.Errorf("PTF touched on failure: %v", e.Calls())
			}
		})
	}
}

func TestPTF_InstallSaithrift(t *testing.T) {
	p, e := newTestPTF(t)
	url := "http://files.example.com/saithrift/python-saithrift_0.9.4_amd64.deb"

	if err := p.InstallSaithrift(context.Background(), url); err != nil {
		t.Fatalf("InstallSaithrift() error = %v", err)
	}
	want := []string{
		"rm -f /root/python-saithrift_0.9.4_amd64.deb",
		"curl -fsSL -o /root/python-saithrift_0.9.4_amd64.deb " + url,
		"dpkg -i /root/python-saithrift_0.9.4_amd64.deb",
	}
	if diff := cmp.Diff(want, e.Commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestPTF_InstallSaithriftErrors(t *testing.T) {
	t.Run("no url", func(t *testing.T) {
		p, _ := newTestPTF(t)
		err := p.InstallSaithrift(context.Background(), "")
		if !errors.Is(err, util.ErrInvalidConfig) || !strings.Contains(err.Error(), "no URL specified") {
			t.Errorf("error = %v", err)
		}
	})
	t.Run("download fails", func(t *testing.T) {
		p, e := newTestPTF(t)
		e.Fail("curl", 22, "curl: (22) The requested URL returned error: 404")
		err := p.InstallSaithrift(context.Background(), "http://files.example.com/missing.deb")
		var de *util.DownloadError
		if !errors.As(err, &de) || !errors.Is(err, util.ErrDownloadFailed) {
			t.Fatalf("error = %v, want DownloadError", err)
		}
		if e.Ran("dpkg") {
			t.Error("dpkg ran after a failed download")
		}
	})
	t.Run("install fails", func(t *testing.T) {
		p, e := newTestPTF(t)
		e.Fail("dpkg", 1, "dpkg: error processing archive")
		err := p.InstallSaithrift(context.Background(), "http://files.example.com/saithrift.deb")
		if !errors.Is(err, util.ErrCommandFailed) {
			t.Errorf("error = %v, want ErrCommandFailed", err)
		}
	})
}
