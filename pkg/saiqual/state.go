package saiqual

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// SessionState is persisted to <store>/<dut>/state.json while a container
// is deployed, so a later process can revert it.
type SessionState struct {
	DUT        string     `json:"dut"`
	Descriptor Descriptor `json:"descriptor"`
	State      State      `json:"state"`
	Variant    string     `json:"variant"`
	Vendor     string     `json:"vendor,omitempty"`
	OSVersion  string     `json:"os_version,omitempty"`
	Image      string     `json:"image,omitempty"`
	Progress   Progress   `json:"progress"`
	PID        int        `json:"pid"`
	Started    time.Time  `json:"started"`
	Updated    time.Time  `json:"updated"`
}

// Store keeps session state files under a base directory.
type Store struct {
	Dir string
}

// DefaultStoreDir returns ~/.saiqual/sessions.
func DefaultStoreDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("saiqual: user home dir: %w", err)
	}
	return filepath.Join(home, ".saiqual", "sessions"), nil
}

// NewStore returns a store rooted at dir, or at DefaultStoreDir when dir
// is empty.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultStoreDir(); err != nil {
			return nil, err
		}
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.Dir, name, "state.json")
}

// Save writes state, stamping Updated.
func (s *Store) Save(state *SessionState) error {
	state.Updated = time.Now()
	dir := filepath.Dir(s.path(state.DUT))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("saiqual: create state dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "    ")
	if err != nil {
		return fmt.Errorf("saiqual: marshal state: %w", err)
	}
	if err := os.WriteFile(s.path(state.DUT), data, 0644); err != nil {
		return fmt.Errorf("saiqual: write state: %w", err)
	}
	return nil
}

// Load reads the state of a DUT's session. Returns nil, nil if none exists.
func (s *Store) Load(name string) (*SessionState, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("saiqual: read state: %w", err)
	}

	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("saiqual: parse state.json: %w", err)
	}
	return &state, nil
}

// Remove deletes a DUT's session directory.
func (s *Store) Remove(name string) error {
	return os.RemoveAll(filepath.Join(s.Dir, name))
}

// List returns the names of DUTs with a persisted session, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("saiqual: list sessions: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(s.path(e.Name())); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Claim fails with util.ErrSessionLocked when another live process owns
// the DUT's session.
func (s *Store) Claim(name string) error {
	existing, err := s.Load(name)
	if err != nil {
		return err
	}
	if existing != nil && existing.PID != 0 && existing.PID != os.Getpid() && IsProcessAlive(existing.PID) {
		return fmt.Errorf("saiqual: %s: %w (pid %d)", name, util.ErrSessionLocked, existing.PID)
	}
	return nil
}

// Release clears the owning PID so another process may take the session
// over. A missing session is not an error.
func (s *Store) Release(name string) error {
	state, err := s.Load(name)
	if err != nil || state == nil {
		return err
	}
	state.PID = 0
	return s.Save(state)
}

// IsProcessAlive checks whether a process with the given PID exists.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}

// claim takes ownership of the persisted session, if any.
func (c *Controller) claim() error {
	if c.deps.Store == nil {
		return nil
	}
	return c.deps.Store.Claim(c.deps.Name)
}

func (c *Controller) snapshot() *SessionState {
	if c.session == nil {
		c.session = &SessionState{
			DUT:     c.deps.Name,
			Variant: c.desc.Name,
			Started: time.Now(),
		}
	}
	s := c.session
	s.Descriptor = c.desc
	s.State = c.state
	s.Vendor = c.images.Vendor
	s.OSVersion = c.images.OSVersion
	s.Image = c.images.Image
	s.Progress = c.progress
	s.PID = os.Getpid()
	return s
}

// persist records the session. Failing to write state does not fail the
// lifecycle operation. UNDEPLOYED is never written: the session either is
// removed or keeps its pending teardown.
func (c *Controller) persist() {
	if c.deps.Store == nil || c.state == Undeployed {
		return
	}
	if err := c.deps.Store.Save(c.snapshot()); err != nil {
		c.log.Warnf("Persisting session: %v", err)
	}
}

// forget drops the persisted session once the device is back to baseline.
func (c *Controller) forget() {
	c.session = nil
	if c.deps.Store == nil {
		return
	}
	if err := c.deps.Store.Remove(c.deps.Name); err != nil {
		c.log.Warnf("Removing session state: %v", err)
	}
}

// keepPending persists the session in TEARING_DOWN with the teardown steps
// in pending, released so any process may resume it.
func (c *Controller) keepPending(pending Progress) {
	if c.deps.Store == nil {
		return
	}
	s := c.snapshot()
	s.State = TearingDown
	s.Progress = pending
	s.PID = 0
	if err := c.deps.Store.Save(s); err != nil {
		c.log.Warnf("Persisting unfinished revert: %v", err)
		return
	}
	c.log.Warnf("Revert of %s incomplete, session kept for a later revert", c.desc.Name)
}

// Detach gives up ownership of the persisted session without reverting,
// so a later process can Resume it.
func (c *Controller) Detach() error {
	if c.deps.Store == nil || c.state == Undeployed {
		return nil
	}
	return c.deps.Store.Release(c.deps.Name)
}

// Resume rebuilds a controller from a persisted session, typically to
// revert a deployment made by an earlier process. The variant, image names
// and progress come from the session rather than opts.
func Resume(opts Options, deps Deps) (*Controller, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("saiqual: %w: resume needs a session store", util.ErrInvalidConfig)
	}
	if deps.Name == "" && deps.DUT != nil {
		deps.Name = deps.DUT.Host()
	}
	state, err := deps.Store.Load(deps.Name)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("saiqual: no session for %s: %w", deps.Name, util.ErrNotFound)
	}
	if err := deps.Store.Claim(deps.Name); err != nil {
		return nil, err
	}

	opts.Container = state.Variant
	c, err := NewController(opts, deps)
	if err != nil {
		return nil, err
	}
	c.desc = state.Descriptor
	c.state = state.State
	c.progress = state.Progress
	c.images = images{Vendor: state.Vendor, OSVersion: state.OSVersion, Image: state.Image}
	c.session = state
	if c.state == Deploying {
		// The deploying process died part way through.
		c.state = Failed
	}
	// TEARING_DOWN is kept: Revert reruns the pending teardown steps.
	c.log.Infof("Resumed session in state %s", c.state)
	return c, nil
}
