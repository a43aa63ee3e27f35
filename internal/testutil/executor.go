// Package testutil provides fakes for unit tests and helpers for the
// integration tests that need a live Redis or device.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/okaravasi/sonic-mgmt/pkg/remote"
)

// Call is one recorded executor operation. Op is "exec", "copy", "delete",
// "start", "stop" or "remove"; Arg is the command, destination path or
// container name.
type Call struct {
	Op  string
	Arg string
}

func (c Call) String() string {
	return c.Op + " " + c.Arg
}

type rule struct {
	match string
	fn    func(cmd string) (*remote.Result, error)
}

// FakeExecutor is a recording remote.Executor. Commands succeed with empty
// output unless a rule registered with On, OnFunc or Fail matches them.
// Rules match by substring and the most recently registered rule wins.
type FakeExecutor struct {
	mu    sync.Mutex
	host  string
	rules []rule
	calls []Call

	// Files holds the content of every file copied to the host, by
	// destination path. DeleteFile removes the entry.
	Files map[string][]byte

	// CopyErr, when set, is returned by every CopyFile.
	CopyErr error

	// Stdin holds the input fed to each command run with ExecuteInput.
	Stdin map[string][]byte
}

// NewFakeExecutor returns a fake for host.
func NewFakeExecutor(host string) *FakeExecutor {
	return &FakeExecutor{host: host, Files: make(map[string][]byte), Stdin: make(map[string][]byte)}
}

// On makes commands containing match return stdout with exit status 0.
func (f *FakeExecutor) On(match, stdout string) *FakeExecutor {
	return f.OnFunc(match, func(string) (*remote.Result, error) {
		return remote.NewResult(0, stdout, ""), nil
	})
}

// Fail makes commands containing match exit with status and stderr.
func (f *FakeExecutor) Fail(match string, status int, stderr string) *FakeExecutor {
	return f.OnFunc(match, func(string) (*remote.Result, error) {
		return remote.NewResult(status, "", stderr), nil
	})
}

// OnFunc registers a handler for commands containing match.
func (f *FakeExecutor) OnFunc(match string, fn func(cmd string) (*remote.Result, error)) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{match: match, fn: fn})
	return f
}

func (f *FakeExecutor) record(op, arg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: op, Arg: arg})
}

func (f *FakeExecutor) Host() string {
	return f.host
}

func (f *FakeExecutor) Execute(ctx context.Context, cmd string) (*remote.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.record("exec", cmd)
	return f.dispatch(cmd)
}

func (f *FakeExecutor) ExecuteInput(ctx context.Context, cmd string, stdin []byte) (*remote.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.record("exec", cmd)
	f.mu.Lock()
	f.Stdin[cmd] = append([]byte(nil), stdin...)
	f.mu.Unlock()
	return f.dispatch(cmd)
}

func (f *FakeExecutor) dispatch(cmd string) (*remote.Result, error) {
	f.mu.Lock()
	var fn func(string) (*remote.Result, error)
	for i := len(f.rules) - 1; i >= 0; i-- {
		if strings.Contains(cmd, f.rules[i].match) {
			fn = f.rules[i].fn
			break
		}
	}
	f.mu.Unlock()

	if fn == nil {
		return remote.NewResult(0, "", ""), nil
	}
	return fn(cmd)
}

func (f *FakeExecutor) CopyFile(ctx context.Context, src, dest string) error {
	f.record("copy", dest)
	if f.CopyErr != nil {
		return f.CopyErr
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("fake copy %s: %w", src, err)
	}
	f.mu.Lock()
	f.Files[dest] = data
	f.mu.Unlock()
	return nil
}

func (f *FakeExecutor) DeleteFile(ctx context.Context, path string) error {
	f.record("delete", path)
	f.mu.Lock()
	delete(f.Files, path)
	f.mu.Unlock()
	return nil
}

func (f *FakeExecutor) StartContainer(ctx context.Context, name string) error {
	f.record("start", name)
	return nil
}

func (f *FakeExecutor) StopContainer(ctx context.Context, name string) error {
	f.record("stop", name)
	return nil
}

func (f *FakeExecutor) RemoveContainer(ctx context.Context, name string) error {
	f.record("remove", name)
	return nil
}

// Calls returns a copy of every recorded operation in order.
func (f *FakeExecutor) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Commands returns the recorded exec commands in order.
func (f *FakeExecutor) Commands() []string {
	var cmds []string
	for _, c := range f.Calls() {
		if c.Op == "exec" {
			cmds = append(cmds, c.Arg)
		}
	}
	return cmds
}

// Count returns how many recorded operations contain substr.
func (f *FakeExecutor) Count(substr string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.Contains(c.String(), substr) {
			n++
		}
	}
	return n
}

// Ran reports whether any recorded operation contains substr.
func (f *FakeExecutor) Ran(substr string) bool {
	return f.Count(substr) > 0
}

// Reset forgets recorded calls. Rules and files are kept.
func (f *FakeExecutor) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
