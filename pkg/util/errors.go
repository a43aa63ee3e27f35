// Package util provides logging, error types and small string helpers shared
// by the harness packages.
package util

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers can
// classify a failure with errors.Is.
var (
	ErrCommandFailed     = errors.New("remote command failed")
	ErrDownloadFailed    = errors.New("image download failed")
	ErrSetupFailed       = errors.New("setup failed")
	ErrNotReady          = errors.New("container did not become ready")
	ErrUnsupportedVendor = errors.New("unsupported platform")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrSessionLocked     = errors.New("session owned by another process")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrNotFound          = errors.New("resource not found")
	ErrTransportFailed   = errors.New("remote transport failed")
)

// CommandOutput is the captured output of a remote command, attached to
// errors so the caller can show what the device printed.
type CommandOutput struct {
	ExitStatus int
	Stdout     []string
	Stderr     []string
}

// CommandError is a remote command that exited nonzero.
type CommandError struct {
	Host    string
	Command string
	Output  CommandOutput
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q on %s exited %d", e.Command, e.Host, e.Output.ExitStatus)
	if len(e.Output.Stderr) > 0 {
		msg += ": " + strings.Join(e.Output.Stderr, "\n")
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return ErrCommandFailed
}

// DownloadError is a failed registry login or image pull.
type DownloadError struct {
	Image string
	Err   error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.Image, e.Err)
}

func (e *DownloadError) Unwrap() []error {
	return []error{ErrDownloadFailed, e.Err}
}

// SetupError is the single condition every deploy-time failure is reported
// as. Output holds whatever the originating command captured.
type SetupError struct {
	Container string
	Step      string
	Err       error
	Output    CommandOutput
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup of %s failed at %s: %v", e.Container, e.Step, e.Err)
}

func (e *SetupError) Unwrap() []error {
	return []error{ErrSetupFailed, e.Err}
}

// NewSetupError wraps err as a setup failure, lifting captured command
// output out of err when it carries any.
func NewSetupError(container, step string, err error) *SetupError {
	se := &SetupError{Container: container, Step: step, Err: err}
	var ce *CommandError
	if errors.As(err, &ce) {
		se.Output = ce.Output
	}
	return se
}

// ReadinessError reports that the RPC endpoint never accepted a connection
// within the retry budget.
type ReadinessError struct {
	Container string
	Endpoint  string
	Timeout   time.Duration
}

func (e *ReadinessError) Error() string {
	return fmt.Sprintf("%s: container did not become ready at %s within %s", e.Container, e.Endpoint, e.Timeout)
}

func (e *ReadinessError) Unwrap() error {
	return ErrNotReady
}

// UnsupportedVendorError is raised for an ASIC type with no SAI test image.
type UnsupportedVendorError struct {
	AsicType string
}

func (e *UnsupportedVendorError) Error() string {
	return fmt.Sprintf("%q does not currently support saitest", e.AsicType)
}

func (e *UnsupportedVendorError) Unwrap() error {
	return ErrUnsupportedVendor
}

// TransitionError is an attempted lifecycle transition the state machine
// does not allow.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}
