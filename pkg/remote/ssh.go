package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// SSHConfig addresses one host reachable over SSH with password login.
type SSHConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DialTimeout time.Duration
}

func (c SSHConfig) addr() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// SSHExecutor implements Executor over a single SSH connection. Each
// operation opens its own session, so the executor holds no per-command
// state.
type SSHExecutor struct {
	cfg    SSHConfig
	client *ssh.Client
	log    *logrus.Entry
}

// DialSSH connects to cfg.Host. Host keys are not verified: the targets are
// lab devices that are reimaged routinely.
func DialSSH(cfg SSHConfig) (*SSHExecutor, error) {
	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	config := &ssh.ClientConfig{
		User: cfg.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(cfg.Password),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	client, err := ssh.Dial("tcp", cfg.addr(), config)
	if err != nil {
		return nil, fmt.Errorf("remote: SSH dial %s: %w", cfg.addr(), errors.Join(util.ErrTransportFailed, err))
	}
	return &SSHExecutor{cfg: cfg, client: client, log: util.WithHost(cfg.Host)}, nil
}

// Host returns the address the executor is connected to.
func (e *SSHExecutor) Host() string {
	return e.cfg.Host
}

// Client exposes the underlying connection for port forwarding.
func (e *SSHExecutor) Client() *ssh.Client {
	return e.client
}

// Close closes the SSH connection.
func (e *SSHExecutor) Close() error {
	return e.client.Close()
}

// Execute runs cmd in a fresh session and captures stdout and stderr.
func (e *SSHExecutor) Execute(ctx context.Context, cmd string) (*Result, error) {
	return e.run(ctx, cmd, nil)
}

// ExecuteInput runs cmd with stdin as its standard input.
func (e *SSHExecutor) ExecuteInput(ctx context.Context, cmd string, stdin []byte) (*Result, error) {
	if stdin == nil {
		stdin = []byte{}
	}
	return e.run(ctx, cmd, stdin)
}

func (e *SSHExecutor) run(ctx context.Context, cmd string, stdin []byte) (*Result, error) {
	session, err := e.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("remote: SSH session on %s: %w", e.cfg.Host, errors.Join(util.ErrTransportFailed, err))
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if stdin != nil {
		session.Stdin = bytes.NewReader(stdin)
	}

	e.log.Debugf("exec: %s", cmd)
	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		session.Close()
		return nil, fmt.Errorf("remote: %q on %s: %w", cmd, e.cfg.Host, ctx.Err())
	case err = <-done:
	}

	exitStatus := 0
	if err != nil {
		var exitErr *ssh.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("remote: %q on %s: %w", cmd, e.cfg.Host, errors.Join(util.ErrTransportFailed, err))
		}
		exitStatus = exitErr.ExitStatus()
	}

	res := NewResult(exitStatus, stdout.String(), stderr.String())
	if res.Failed {
		e.log.Debugf("exec: %s exited %d", cmd, exitStatus)
	}
	return res, nil
}

// CopyFile uploads the local file src to the remote path dest, replacing it
// if present. The upload runs under sudo so system directories are writable.
func (e *SSHExecutor) CopyFile(ctx context.Context, src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("remote: read %s: %w", src, err)
	}
	return e.WriteFile(ctx, dest, data)
}

// WriteFile streams data into the remote path dest.
func (e *SSHExecutor) WriteFile(ctx context.Context, dest string, data []byte) error {
	cmd := "sudo sh -c " + singleQuote("cat > "+Quote(dest))
	res, err := e.run(ctx, cmd, data)
	_, err = Check(e.cfg.Host, cmd, res, err)
	return err
}

// DeleteFile removes path. A missing file is not an error.
func (e *SSHExecutor) DeleteFile(ctx context.Context, path string) error {
	_, err := Run(ctx, e, "sudo rm -f "+Quote(path))
	return err
}

// StartContainer starts an existing container.
func (e *SSHExecutor) StartContainer(ctx context.Context, name string) error {
	_, err := Run(ctx, e, "docker start "+Quote(name))
	return err
}

// StopContainer stops a container.
func (e *SSHExecutor) StopContainer(ctx context.Context, name string) error {
	_, err := Run(ctx, e, "docker stop "+Quote(name))
	return err
}

// RemoveContainer force-removes a container. A container that does not
// exist is already removed.
func (e *SSHExecutor) RemoveContainer(ctx context.Context, name string) error {
	res, err := Run(ctx, e, "docker rm -f "+Quote(name))
	if err != nil && IsNoSuchContainer(res) {
		return nil
	}
	return err
}

// IsNoSuchContainer reports whether a docker CLI failure means the named
// container does not exist.
func IsNoSuchContainer(res *Result) bool {
	if res == nil {
		return false
	}
	for _, line := range res.Stderr {
		if strings.Contains(line, "No such container") || strings.Contains(line, "No such object") {
			return true
		}
	}
	return false
}
