// Package hotswitch temporarily mutates a live server diagnostic setting for
// the duration of a capture window and guarantees restoration. The session is
// the only component in the process that writes server state; negotiation and
// all collectors are read-only.
package hotswitch

import (
	"context"
	"fmt"
	"time"

	"github.com/luckyjian/sqlinsight/internal/level"
)

// Settings is a named snapshot of server diagnostic settings.
type Settings map[string]string

// Strategy is the engine-specific way of snapshotting, applying, and
// restoring the diagnostic settings around a capture window.
type Strategy interface {
	Engine() level.Engine
	Snapshot(ctx context.Context) (Settings, error)
	Apply(ctx context.Context) error
	Restore(ctx context.Context, original Settings) error
}

// ApplyError is fatal for the attempt: the window could not be opened and no
// capture happened under the desired setting.
type ApplyError struct {
	Engine level.Engine
	Err    error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("hot-switch apply failed for %s: %v", e.Engine, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// RestoreError is non-fatal: the captured data is still valid, the caller
// records the failure as a warning on the envelope.
type RestoreError struct {
	Engine level.Engine
	Err    error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("hot-switch restore failed for %s: %v", e.Engine, e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }

// Session owns the mutated server setting between Open and Close. At most
// one session exists process-wide: the scheduler's no-overlap cycle invariant
// is the only concurrency control this needs.
type Session struct {
	strategy         Strategy
	original         Settings
	openedAt         time.Time
	closedAt         time.Time
	closed           bool
	restoreAttempted bool
	restoreSucceeded bool
}

// Open snapshots the currently active settings and applies the capture
// setting. A snapshot or apply failure returns an *ApplyError and leaves no
// session to restore.
func Open(ctx context.Context, strategy Strategy) (*Session, error) {
	original, err := strategy.Snapshot(ctx)
	if err != nil {
		return nil, &ApplyError{Engine: strategy.Engine(), Err: fmt.Errorf("snapshot settings: %w", err)}
	}
	if err := strategy.Apply(ctx); err != nil {
		return nil, &ApplyError{Engine: strategy.Engine(), Err: err}
	}
	return &Session{
		strategy: strategy,
		original: original,
		openedAt: time.Now(),
	}, nil
}

// Close ends the window and, unless restore is disabled, restores the
// snapshot taken at Open. Restoration runs at most once per session no
// matter how many times Close is called or on which exit path; a restore
// failure comes back as a *RestoreError.
func (s *Session) Close(ctx context.Context, restore bool) error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.closedAt = time.Now()

	if !restore {
		return nil
	}
	s.restoreAttempted = true
	if err := s.strategy.Restore(ctx, s.original); err != nil {
		return &RestoreError{Engine: s.strategy.Engine(), Err: err}
	}
	s.restoreSucceeded = true
	return nil
}

// Original returns the settings snapshot taken when the session opened.
func (s *Session) Original() Settings { return s.original }

// OpenedAt returns when the capture window opened.
func (s *Session) OpenedAt() time.Time { return s.openedAt }

// ClosedAt returns when the session was closed; zero while still open.
func (s *Session) ClosedAt() time.Time { return s.closedAt }

// RestoreAttempted reports whether a restore was attempted.
func (s *Session) RestoreAttempted() bool { return s.restoreAttempted }

// RestoreSucceeded reports whether the attempted restore succeeded.
func (s *Session) RestoreSucceeded() bool { return s.restoreSucceeded }
