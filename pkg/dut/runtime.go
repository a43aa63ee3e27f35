package dut

import (
	"context"
	"fmt"
	"strings"

	"github.com/okaravasi/sonic-mgmt/pkg/remote"
)

// Runtime is the container engine on the device. Implementations talk to it
// either through the docker CLI over the executor or through the Engine API.
type Runtime interface {
	ContainerRunning(ctx context.Context, name string) (bool, error)
	ContainerExists(ctx context.Context, name string) (bool, error)
	StopContainer(ctx context.Context, name string) error
	RemoveContainer(ctx context.Context, name string) error
	ImageExists(ctx context.Context, ref string) (bool, error)
	TagImage(ctx context.Context, source, target string) error
	RemoveImage(ctx context.Context, ref string) error
	PullImage(ctx context.Context, ref, username, password string) error
}

// CLIRuntime drives the docker CLI on the device.
type CLIRuntime struct {
	exec remote.Executor
}

// NewCLIRuntime returns a runtime issuing docker commands through e.
func NewCLIRuntime(e remote.Executor) *CLIRuntime {
	return &CLIRuntime{exec: e}
}

func (r *CLIRuntime) inspect(ctx context.Context, format, name string) (string, bool, error) {
	cmd := remote.Join("docker", "inspect", "--type", "container", "-f", format, name)
	res, err := r.exec.Execute(ctx, cmd)
	if err != nil {
		return "", false, err
	}
	if res.Failed {
		if remote.IsNoSuchContainer(res) {
			return "", false, nil
		}
		_, err = remote.Check(r.exec.Host(), cmd, res, nil)
		return "", false, err
	}
	return res.FirstLine(), true, nil
}

func (r *CLIRuntime) ContainerRunning(ctx context.Context, name string) (bool, error) {
	state, ok, err := r.inspect(ctx, "{{.State.Running}}", name)
	if err != nil || !ok {
		return false, err
	}
	return state == "true", nil
}

func (r *CLIRuntime) ContainerExists(ctx context.Context, name string) (bool, error) {
	_, ok, err := r.inspect(ctx, "{{.Name}}", name)
	return ok, err
}

func (r *CLIRuntime) StopContainer(ctx context.Context, name string) error {
	return r.exec.StopContainer(ctx, name)
}

func (r *CLIRuntime) RemoveContainer(ctx context.Context, name string) error {
	return r.exec.RemoveContainer(ctx, name)
}

func (r *CLIRuntime) ImageExists(ctx context.Context, ref string) (bool, error) {
	res, err := remote.Run(ctx, r.exec, remote.Join("docker", "images", "-q", ref))
	if err != nil {
		return false, err
	}
	return res.FirstLine() != "", nil
}

func (r *CLIRuntime) TagImage(ctx context.Context, source, target string) error {
	_, err := remote.Run(ctx, r.exec, remote.Join("docker", "tag", source, target))
	return err
}

// RemoveImage removes ref. An image that is already gone is not an error.
func (r *CLIRuntime) RemoveImage(ctx context.Context, ref string) error {
	res, err := remote.Run(ctx, r.exec, remote.Join("docker", "rmi", ref))
	if err != nil && noSuchImage(res) {
		return nil
	}
	return err
}

func noSuchImage(res *remote.Result) bool {
	if res == nil {
		return false
	}
	for _, line := range res.Stderr {
		if strings.Contains(line, "No such image") {
			return true
		}
	}
	return false
}

// PullImage logs in to the registry named in ref when credentials are
// given, then pulls ref.
func (r *CLIRuntime) PullImage(ctx context.Context, ref, username, password string) error {
	if username != "" {
		host := RegistryHost(ref)
		if host == "" {
			return fmt.Errorf("dut: %s names no registry to log in to", ref)
		}
		login := remote.Join("docker", "login", host, "-u", username, "--password-stdin")
		if _, err := remote.RunInput(ctx, r.exec, login, []byte(password)); err != nil {
			return fmt.Errorf("dut: docker login %s: %w", host, err)
		}
	}
	_, err := remote.Run(ctx, r.exec, remote.Join("docker", "pull", ref))
	return err
}

// RegistryHost returns the registry part of an image reference, or "" for
// references that resolve against the default registry.
func RegistryHost(ref string) string {
	i := strings.IndexByte(ref, '/')
	if i < 0 {
		return ""
	}
	host := ref[:i]
	if !strings.ContainsAny(host, ".:") && host != "localhost" {
		return ""
	}
	return host
}
