package dut

import (
	"context"
	"fmt"
	"io"
	"net"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"golang.org/x/crypto/ssh"

	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// DockerSocket is the Engine API socket on the device.
const DockerSocket = "/var/run/docker.sock"

// APIRuntime talks to the device's docker daemon through the Engine API,
// with the unix socket reached over the SSH connection.
type APIRuntime struct {
	cli *client.Client
}

// NewAPIRuntime creates an Engine API client whose connections are dialed
// through conn. The API version is negotiated on first use.
func NewAPIRuntime(conn *ssh.Client) (*APIRuntime, error) {
	cli, err := client.NewClientWithOpts(
		client.WithHost("unix://"+DockerSocket),
		client.WithDialContext(func(ctx context.Context, network, addr string) (net.Conn, error) {
			return conn.Dial("unix", DockerSocket)
		}),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("dut: docker client: %w", err)
	}
	return &APIRuntime{cli: cli}, nil
}

// Close releases the client.
func (r *APIRuntime) Close() error {
	return r.cli.Close()
}

func (r *APIRuntime) ContainerRunning(ctx context.Context, name string) (bool, error) {
	info, err := r.cli.ContainerInspect(ctx, name)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return info.ContainerJSONBase != nil && info.State != nil && info.State.Running, nil
}

func (r *APIRuntime) ContainerExists(ctx context.Context, name string) (bool, error) {
	_, err := r.cli.ContainerInspect(ctx, name)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *APIRuntime) StopContainer(ctx context.Context, name string) error {
	return r.cli.ContainerStop(ctx, name, container.StopOptions{})
}

func (r *APIRuntime) RemoveContainer(ctx context.Context, name string) error {
	err := r.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})
	if cerrdefs.IsNotFound(err) {
		return nil
	}
	return err
}

func (r *APIRuntime) ImageExists(ctx context.Context, ref string) (bool, error) {
	_, err := r.cli.ImageInspect(ctx, ref)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *APIRuntime) TagImage(ctx context.Context, source, target string) error {
	return r.cli.ImageTag(ctx, source, target)
}

func (r *APIRuntime) RemoveImage(ctx context.Context, ref string) error {
	_, err := r.cli.ImageRemove(ctx, ref, image.RemoveOptions{})
	if cerrdefs.IsNotFound(err) {
		return nil
	}
	return err
}

func (r *APIRuntime) PullImage(ctx context.Context, ref, username, password string) error {
	opts := image.PullOptions{}
	if username != "" {
		auth, err := registry.EncodeAuthConfig(registry.AuthConfig{
			Username:      username,
			Password:      password,
			ServerAddress: RegistryHost(ref),
		})
		if err != nil {
			return fmt.Errorf("dut: encoding registry credentials: %w", err)
		}
		opts.RegistryAuth = auth
	}

	util.Debugf("pulling %s through Engine API", ref)
	rc, err := r.cli.ImagePull(ctx, ref, opts)
	if err != nil {
		return err
	}
	defer rc.Close()

	// The pull only completes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("dut: reading pull progress for %s: %w", ref, err)
	}
	return nil
}
