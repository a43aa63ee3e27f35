package dut

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/okaravasi/sonic-mgmt/internal/testutil"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

func TestCLIRuntime_ContainerRunning(t *testing.T) {
	ctx := context.Background()
	dut := testutil.NewFakeExecutor("dut1").
		On("docker inspect --type container -f '{{.State.Running}}' swss", "true\n").
		On("docker inspect --type container -f '{{.State.Running}}' bgp", "false\n").
		Fail("syncd", 1, "Error: No such container: syncd").
		Fail("pmon", 1, "Cannot connect to the Docker daemon")
	rt := NewCLIRuntime(dut)

	tests := []struct {
		name    string
		want    bool
		wantErr bool
	}{
		{"swss", true, false},
		{"bgp", false, false},
		{"syncd", false, false},
		{"pmon", false, true},
	}
	for _, tt := range tests {
		got, err := rt.ContainerRunning(ctx, tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ContainerRunning(%s) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ContainerRunning(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCLIRuntime_ContainerExists(t *testing.T) {
	ctx := context.Background()
	dut := testutil.NewFakeExecutor("dut1").
		On("saiserver", "/saiserver\n").
		Fail("syncd", 1, "Error: No such object: syncd")
	rt := NewCLIRuntime(dut)

	if ok, err := rt.ContainerExists(ctx, "saiserver"); err != nil || !ok {
		t.Errorf("ContainerExists(saiserver) = %v, %v", ok, err)
	}
	if ok, err := rt.ContainerExists(ctx, "syncd"); err != nil || ok {
		t.Errorf("ContainerExists(syncd) = %v, %v", ok, err)
	}
}

func TestCLIRuntime_Images(t *testing.T) {
	ctx := context.Background()
	ref := "reg.example.com/docker-saiserverv2-brcm:20230531.17"
	dut := testutil.NewFakeExecutor("dut1").On("docker images -q "+ref, "3f2a9c1b7e4d\n")
	rt := NewCLIRuntime(dut)

	if ok, err := rt.ImageExists(ctx, ref); err != nil || !ok {
		t.Errorf("ImageExists() = %v, %v", ok, err)
	}
	if ok, err := rt.ImageExists(ctx, "docker-syncd-brcm-rpc:latest"); err != nil || ok {
		t.Errorf("ImageExists(missing) = %v, %v", ok, err)
	}
	if err := rt.TagImage(ctx, ref, "docker-saiserverv2-brcm:latest"); err != nil {
		t.Fatalf("TagImage() error = %v", err)
	}
	if err := rt.RemoveImage(ctx, ref); err != nil {
		t.Fatalf("RemoveImage() error = %v", err)
	}
	if err := rt.StopContainer(ctx, "swss"); err != nil {
		t.Fatalf("StopContainer() error = %v", err)
	}

	want := []string{
		"exec docker images -q " + ref,
		"exec docker images -q docker-syncd-brcm-rpc:latest",
		"exec docker tag " + ref + " docker-saiserverv2-brcm:latest",
		"exec docker rmi " + ref,
		"stop swss",
	}
	calls := dut.Calls()
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i].String() != want[i] {
			t.Errorf("call[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestCLIRuntime_RemoveImageGone(t *testing.T) {
	ctx := context.Background()
	dut := testutil.NewFakeExecutor("dut1").
		Fail("docker rmi docker-saiserver-brcm", 1, "Error response from daemon: No such image: docker-saiserver-brcm:latest").
		Fail("docker rmi docker-syncd-brcm", 1, "Error response from daemon: conflict: unable to remove repository reference")
	rt := NewCLIRuntime(dut)

	if err := rt.RemoveImage(ctx, "docker-saiserver-brcm"); err != nil {
		t.Errorf("RemoveImage(gone) error = %v", err)
	}
	if err := rt.RemoveImage(ctx, "docker-syncd-brcm"); !errors.Is(err, util.ErrCommandFailed) {
		t.Errorf("RemoveImage(in use) error = %v, want ErrCommandFailed", err)
	}
}

func TestCLIRuntime_PullImage(t *testing.T) {
	ctx := context.Background()
	ref := "reg.example.com:5000/docker-syncd-mlnx-rpc:20230531.17"

	dut := testutil.NewFakeExecutor("dut1")
	if err := NewCLIRuntime(dut).PullImage(ctx, ref, "sonic", "secret"); err != nil {
		t.Fatalf("PullImage() error = %v", err)
	}
	login := "docker login reg.example.com:5000 -u sonic --password-stdin"
	if diff := cmp.Diff([]string{login, "docker pull " + ref}, dut.Commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if got := string(dut.Stdin[login]); got != "secret" {
		t.Errorf("login stdin = %q, want the password", got)
	}

	anon := testutil.NewFakeExecutor("dut1")
	if err := NewCLIRuntime(anon).PullImage(ctx, ref, "", ""); err != nil {
		t.Fatalf("PullImage(anonymous) error = %v", err)
	}
	if anon.Ran("login") {
		t.Error("anonymous pull logged in")
	}

	failing := testutil.NewFakeExecutor("dut1").Fail("docker login", 1, "unauthorized")
	err := NewCLIRuntime(failing).PullImage(ctx, ref, "sonic", "wrong")
	if !errors.Is(err, util.ErrCommandFailed) {
		t.Errorf("PullImage() error = %v, want ErrCommandFailed", err)
	}
	if failing.Ran("docker pull") {
		t.Error("pulled after failed login")
	}
}

func TestRegistryHost(t *testing.T) {
	tests := map[string]string{
		"reg.example.com/docker-saiserver-brcm:1":      "reg.example.com",
		"10.0.0.5:5000/docker-syncd-brcm-rpc:latest":   "10.0.0.5:5000",
		"localhost/img:1":                              "localhost",
		"library/ubuntu:22.04":                         "",
		"docker-saiserver-brcm:latest":                 "",
	}
	for ref, want := range tests {
		if got := RegistryHost(ref); got != want {
			t.Errorf("RegistryHost(%q) = %q, want %q", ref, got, want)
		}
	}
}
