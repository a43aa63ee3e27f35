// Package remote is the narrow command-execution interface the harness uses
// to drive the DUT and the PTF host, plus its SSH implementation.
package remote

import (
	"context"
	"strings"

	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// Result is the outcome of one remote command. It is not modified after
// the executor returns it.
type Result struct {
	ExitStatus int
	Stdout     []string
	Stderr     []string
	Failed     bool
}

// NewResult builds a Result from raw output, splitting it into lines.
func NewResult(exitStatus int, stdout, stderr string) *Result {
	return &Result{
		ExitStatus: exitStatus,
		Stdout:     splitLines(stdout),
		Stderr:     splitLines(stderr),
		Failed:     exitStatus != 0,
	}
}

// FirstLine returns the first stdout line trimmed, or "" when there is none.
func (r *Result) FirstLine() string {
	if r == nil || len(r.Stdout) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Stdout[0])
}

// Output converts the result for attachment to an error.
func (r *Result) Output() util.CommandOutput {
	if r == nil {
		return util.CommandOutput{}
	}
	return util.CommandOutput{ExitStatus: r.ExitStatus, Stdout: r.Stdout, Stderr: r.Stderr}
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Executor runs operations on one remote host. Every call blocks until the
// remote side finishes and is executed exactly once; retries belong to the
// caller.
//
// Execute returns an error only when the command could not be run at all
// (transport failure, cancelled context). A command that ran and exited
// nonzero comes back as a Result with Failed set.
type Executor interface {
	Host() string
	Execute(ctx context.Context, cmd string) (*Result, error)
	// ExecuteInput is Execute with stdin fed to the command. Secrets go
	// this way so they never appear on a command line.
	ExecuteInput(ctx context.Context, cmd string, stdin []byte) (*Result, error)
	CopyFile(ctx context.Context, src, dest string) error
	DeleteFile(ctx context.Context, path string) error
	StartContainer(ctx context.Context, name string) error
	StopContainer(ctx context.Context, name string) error
	RemoveContainer(ctx context.Context, name string) error
}

// Check turns a failed Result into a *util.CommandError.
func Check(host, cmd string, res *Result, err error) (*Result, error) {
	if err != nil {
		return res, err
	}
	if res != nil && res.Failed {
		return res, &util.CommandError{Host: host, Command: cmd, Output: res.Output()}
	}
	return res, nil
}

// Run executes cmd and fails on a nonzero exit status.
func Run(ctx context.Context, e Executor, cmd string) (*Result, error) {
	res, err := e.Execute(ctx, cmd)
	return Check(e.Host(), cmd, res, err)
}

// RunInput is Run with stdin fed to cmd.
func RunInput(ctx context.Context, e Executor, cmd string, stdin []byte) (*Result, error) {
	res, err := e.ExecuteInput(ctx, cmd, stdin)
	return Check(e.Host(), cmd, res, err)
}

// RunIgnoreErrors executes cmd and only logs a failure. The returned result
// may be nil when the command could not be run.
func RunIgnoreErrors(ctx context.Context, e Executor, cmd string) *Result {
	res, err := Run(ctx, e, cmd)
	if err != nil {
		util.WithHost(e.Host()).Debugf("ignoring failure of %q: %v", cmd, err)
	}
	return res
}
