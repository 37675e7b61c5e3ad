// Package account holds the authenticated account mutations: the
// credential-change flow and the public registration exchange. Route access
// is the guards' business; these flows assume the front-end mounted them on
// the right side of a guard.
package account

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/communication-ltd/portal-front/internal/api"
	"github.com/communication-ltd/portal-front/internal/nav"
)

// MinNewPasswordLength is the client-side floor for a new password. The
// server applies the real policy; this only saves an obviously doomed
// round trip.
const MinNewPasswordLength = 10

const (
	msgFillAll        = "Please fill all fields."
	msgNoMatch        = "New password and confirmation do not match."
	msgTooShort       = "New password looks too short."
	msgChangeDone     = "Check your email to confirm the change."
	msgChangeFallback = "Request failed"
)

// changer is the slice of the API client the change flow needs.
type changer interface {
	ChangePassword(ctx context.Context, oldPassword, newPassword string) (string, error)
}

// ChangeConfig fixes the flow's navigation behavior.
type ChangeConfig struct {
	LandingRoute  string
	RedirectDelay time.Duration
}

// ChangeOption adjusts a ChangeFlow at construction.
type ChangeOption func(*ChangeFlow)

// WithChangeScheduler replaces the delayed-call primitive for tests.
func WithChangeScheduler(schedule func(time.Duration, func())) ChangeOption {
	return func(f *ChangeFlow) { f.schedule = schedule }
}

// ChangeSnapshot is the flow's externally visible state.
type ChangeSnapshot struct {
	Busy    bool
	Done    bool
	Message string
	IsError bool
}

// ChangeFlow is one visit to the change-password page.
type ChangeFlow struct {
	client    changer
	navigator nav.Navigator
	cfg       ChangeConfig
	schedule  func(time.Duration, func())

	mu      sync.Mutex
	busy    bool
	done    bool
	closed  bool
	message string
	isError bool
}

// NewChangeFlow builds the flow.
func NewChangeFlow(client changer, navigator nav.Navigator, cfg ChangeConfig, opts ...ChangeOption) *ChangeFlow {
	f := &ChangeFlow{
		client:    client,
		navigator: navigator,
		cfg:       cfg,
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Snapshot returns the current visible state.
func (f *ChangeFlow) Snapshot() ChangeSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *ChangeFlow) snapshotLocked() ChangeSnapshot {
	return ChangeSnapshot{
		Busy:    f.busy,
		Done:    f.done,
		Message: f.message,
		IsError: f.isError,
	}
}

// Submit runs the local policy gate and then the change exchange. The gate
// is not a substitute for server policy; its failures never reach the
// network. On success the server holds the change until the user confirms
// out-of-band, so the flow only reports the message and schedules the
// return to the landing page.
func (f *ChangeFlow) Submit(ctx context.Context, oldPassword, newPassword, confirmPassword string) ChangeSnapshot {
	f.mu.Lock()
	if f.busy || f.done {
		defer f.mu.Unlock()
		return f.snapshotLocked()
	}

	if msg := validateChange(oldPassword, newPassword, confirmPassword); msg != "" {
		f.message = msg
		f.isError = true
		defer f.mu.Unlock()
		return f.snapshotLocked()
	}

	f.busy = true
	f.message = ""
	f.isError = false
	f.mu.Unlock()

	serverMsg, err := f.client.ChangePassword(ctx, oldPassword, newPassword)

	f.mu.Lock()
	f.busy = false
	if err != nil {
		f.message = changeFailureMessage(err)
		f.isError = true
		defer f.mu.Unlock()
		return f.snapshotLocked()
	}

	f.done = true
	f.message = serverMsg
	if f.message == "" {
		f.message = msgChangeDone
	}
	snap := f.snapshotLocked()
	f.mu.Unlock()

	// Scheduled outside the lock; the schedule function may run the closure
	// inline.
	f.schedule(f.cfg.RedirectDelay, func() {
		f.mu.Lock()
		closed := f.closed
		f.mu.Unlock()
		if !closed {
			f.navigator.Push(f.cfg.LandingRoute)
		}
	})
	return snap
}

// Close marks the page unmounted.
func (f *ChangeFlow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func validateChange(oldPassword, newPassword, confirmPassword string) string {
	if oldPassword == "" || newPassword == "" || confirmPassword == "" {
		return msgFillAll
	}
	if newPassword != confirmPassword {
		return msgNoMatch
	}
	if len(newPassword) < MinNewPasswordLength {
		return msgTooShort
	}
	return ""
}

func changeFailureMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return msgChangeFallback
}
