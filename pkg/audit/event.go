// Package audit keeps a history of the lifecycle changes made to DUTs, so
// an operator can tell who left a device in a test configuration.
package audit

import (
	"fmt"
	"os"
	"os/user"
	"time"
)

// Operations recorded in the history.
const (
	OpDeploy     = "deploy"
	OpRevert     = "revert"
	OpTransition = "transition"
	OpRun        = "run"
)

// Event is one entry in the history.
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	User      string        `json:"user"`
	PID       int           `json:"pid"`
	DUT       string        `json:"dut"`
	Container string        `json:"container"`
	Operation string        `json:"operation"`
	From      string        `json:"from,omitempty"`
	To        string        `json:"to,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Filter selects events in a query. Zero fields match everything.
type Filter struct {
	DUT         string
	Container   string
	Operation   string
	StartTime   time.Time
	EndTime     time.Time
	FailureOnly bool
	Limit       int
}

// NewEvent returns a successful event for the current user and process.
func NewEvent(dut, container, operation string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		User:      currentUser(),
		PID:       os.Getpid(),
		DUT:       dut,
		Container: container,
		Operation: operation,
		Success:   true,
	}
}

// NewTransition records a lifecycle state change.
func NewTransition(dut, container, from, to string) *Event {
	e := NewEvent(dut, container, OpTransition)
	e.From = from
	e.To = to
	return e
}

// WithError marks the event failed when err is non-nil.
func (e *Event) WithError(err error) *Event {
	if err != nil {
		e.Success = false
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets how long the operation took.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// Summary is a one-line description for listings.
func (e *Event) Summary() string {
	if e.Operation == OpTransition {
		return fmt.Sprintf("%s -> %s", e.From, e.To)
	}
	if !e.Success {
		return e.Operation + " failed: " + e.Error
	}
	return e.Operation
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
