package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeRuntime is an in-memory dut.Runtime. Every method is recorded in
// Calls as "<method> <args>".
type FakeRuntime struct {
	mu         sync.Mutex
	containers map[string]bool // name -> running
	images     map[string]bool
	calls      []string

	// PullErr, when set, fails every PullImage.
	PullErr error
}

// NewFakeRuntime returns a runtime with no containers or images.
func NewFakeRuntime() *FakeRuntime {
	return &FakeRuntime{
		containers: make(map[string]bool),
		images:     make(map[string]bool),
	}
}

// AddContainer registers a container.
func (r *FakeRuntime) AddContainer(name string, running bool) *FakeRuntime {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.containers[name] = running
	return r
}

// AddImage registers an image reference.
func (r *FakeRuntime) AddImage(ref string) *FakeRuntime {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[ref] = true
	return r
}

// HasImage reports whether ref is present.
func (r *FakeRuntime) HasImage(ref string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.images[ref]
}

// HasContainer reports whether name exists.
func (r *FakeRuntime) HasContainer(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.containers[name]
	return ok
}

func (r *FakeRuntime) record(format string, args ...interface{}) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *FakeRuntime) ContainerRunning(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("running %s", name)
	return r.containers[name], nil
}

func (r *FakeRuntime) ContainerExists(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("exists %s", name)
	_, ok := r.containers[name]
	return ok, nil
}

func (r *FakeRuntime) StopContainer(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("stop %s", name)
	if _, ok := r.containers[name]; ok {
		r.containers[name] = false
	}
	return nil
}

func (r *FakeRuntime) RemoveContainer(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("rm %s", name)
	delete(r.containers, name)
	return nil
}

func (r *FakeRuntime) ImageExists(ctx context.Context, ref string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("image %s", ref)
	return r.images[ref], nil
}

func (r *FakeRuntime) TagImage(ctx context.Context, source, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("tag %s %s", source, target)
	if !r.images[source] {
		return fmt.Errorf("no such image: %s", source)
	}
	r.images[target] = true
	return nil
}

func (r *FakeRuntime) RemoveImage(ctx context.Context, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("rmi %s", ref)
	delete(r.images, ref)
	return nil
}

func (r *FakeRuntime) PullImage(ctx context.Context, ref, username, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("pull %s", ref)
	if r.PullErr != nil {
		return r.PullErr
	}
	r.images[ref] = true
	return nil
}

// Calls returns the recorded method calls in order.
func (r *FakeRuntime) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// FakeProber answers readiness probes from a function of the 1-based call
// number. A nil Ready never reports ready.
type FakeProber struct {
	mu    sync.Mutex
	Ready func(call int) bool
	calls int
}

// ReadyAfter returns a prober that fails n times and then succeeds.
func ReadyAfter(n int) *FakeProber {
	return &FakeProber{Ready: func(call int) bool { return call > n }}
}

func (p *FakeProber) Probe(ctx context.Context, addr string, timeout time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.Ready == nil {
		return false
	}
	return p.Ready(p.calls)
}

// Calls returns how many probes were made.
func (p *FakeProber) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Reset forgets recorded calls. Containers and images are kept.
func (r *FakeRuntime) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
