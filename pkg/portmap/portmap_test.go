package portmap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/okaravasi/sonic-mgmt/internal/testutil"
)

func TestSort(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "natural order",
			in:   []string{"Ethernet8", "Ethernet0", "Ethernet16"},
			want: []string{"Ethernet0", "Ethernet8", "Ethernet16"},
		},
		{
			name: "drops non ethernet",
			in:   []string{"PortChannel1", "Ethernet4", "Loopback0", "Ethernet0", "eth0"},
			want: []string{"Ethernet0", "Ethernet4"},
		},
		{
			name: "breakout ports",
			in:   []string{"Ethernet1/10", "Ethernet1/2", "Ethernet1/1"},
			want: []string{"Ethernet1/1", "Ethernet1/2", "Ethernet1/10"},
		},
		{
			name: "empty",
			in:   nil,
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Sort(tt.in)); diff != "" {
				t.Errorf("Sort() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRender(t *testing.T) {
	got := string(Render(Sort([]string{"Ethernet8", "Ethernet0", "Ethernet16"})))
	want := Header + "\n0@Ethernet0\n1@Ethernet8\n2@Ethernet16\n"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestWrite(t *testing.T) {
	file := filepath.Join(t.TempDir(), FileName)
	sorted, err := Write(file, []string{"Ethernet12", "Ethernet4", "PortChannel0001"})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Ethernet4", "Ethernet12"}, sorted); diff != "" {
		t.Errorf("sorted mismatch (-want +got):\n%s", diff)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if diff := cmp.Diff([]string{Header, "0@Ethernet4", "1@Ethernet12"}, lines); diff != "" {
		t.Errorf("file mismatch (-want +got):\n%s", diff)
	}

	sorted, err = Write(file, []string{"PortChannel1"})
	if err != nil || len(sorted) != 0 {
		t.Fatalf("Write() without Ethernet ports = %v, %v", sorted, err)
	}
	if data, _ := os.ReadFile(file); string(data) != Header+"\n" {
		t.Errorf("file without Ethernet ports = %q, want the header only", data)
	}
}

func TestPushAndDelete(t *testing.T) {
	ctx := context.Background()
	local := filepath.Join(t.TempDir(), FileName)
	if _, err := Write(local, []string{"Ethernet0"}); err != nil {
		t.Fatal(err)
	}

	ptf := testutil.NewFakeExecutor("ptf1")
	dest, err := Push(ctx, ptf, local, DefaultRemoteDir)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if dest != DefaultPath {
		t.Errorf("Push() dest = %q, want %q", dest, DefaultPath)
	}
	if got := string(ptf.Files[DefaultPath]); got != Header+"\n0@Ethernet0\n" {
		t.Errorf("pushed content = %q", got)
	}

	if err := Delete(ctx, ptf, dest); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := ptf.Files[DefaultPath]; ok {
		t.Error("port map still present after Delete")
	}

	ptf.CopyErr = errors.New("connection reset")
	if _, err := Push(ctx, ptf, local, DefaultRemoteDir); err == nil {
		t.Error("Push() with failing copy succeeded")
	}
}

func TestInterfaceArgs(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "--interface '0-0@eth0'"},
		{3, "--interface '0-0@eth0' --interface '0-1@eth1' --interface '0-2@eth2'"},
	}
	for _, tt := range tests {
		if got := InterfaceArgs(tt.n); got != tt.want {
			t.Errorf("InterfaceArgs(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
