package saiqual

import (
	"context"
	"errors"

	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// Session is a deployed test container plus the prepared PTF host. Release
// must be called exactly once the tests are done; WithSession does that on
// every exit path.
type Session struct {
	ctrl     *Controller
	ptf      *PTF
	released bool
}

// Acquire deploys the controller's container and prepares ptf, which may
// be nil. On failure whatever was reached is released before returning.
func Acquire(ctx context.Context, ctrl *Controller, ptf *PTF) (*Session, error) {
	if err := ctrl.Deploy(ctx); err != nil {
		if errors.Is(err, util.ErrInvalidTransition) || errors.Is(err, util.ErrSessionLocked) {
			return nil, err
		}
		return nil, errors.Join(err, ctrl.Revert(context.WithoutCancel(ctx)))
	}

	s := &Session{ctrl: ctrl, ptf: ptf}
	if ptf != nil && !ctrl.opts.SkipSetup {
		if err := ptf.Prepare(ctx); err != nil {
			return nil, errors.Join(err, s.Release(context.WithoutCancel(ctx)))
		}
	}
	return s, nil
}

// Controller returns the session's controller.
func (s *Session) Controller() *Controller {
	return s.ctrl
}

// PTF returns the session's PTF host, or nil.
func (s *Session) PTF() *PTF {
	return s.ptf
}

// Release removes the port map and reverts the container. The port map is
// removed even when setup was skipped, since an earlier run left it behind.
// Calling Release again does nothing.
func (s *Session) Release(ctx context.Context) error {
	if s.released {
		return nil
	}
	s.released = true

	var errs []error
	if s.ptf != nil && !s.ctrl.opts.KeepEnv {
		if err := s.ptf.Cleanup(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.ctrl.Revert(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// WithSession acquires a session, runs fn and releases the session whether
// fn returns, fails or panics. A panic is re-raised after the release.
func WithSession(ctx context.Context, ctrl *Controller, ptf *PTF, fn func(ctx context.Context, s *Session) error) (err error) {
	s, err := Acquire(ctx, ctrl, ptf)
	if err != nil {
		return err
	}
	defer func() {
		releaseErr := s.Release(context.WithoutCancel(ctx))
		if r := recover(); r != nil {
			if releaseErr != nil {
				ctrl.log.Errorf("Release after panic: %v", releaseErr)
			}
			panic(r)
		}
		err = errors.Join(err, releaseErr)
	}()
	return fn(ctx, s)
}
