package recovery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/communication-ltd/portal-front/internal/api"
	"github.com/communication-ltd/portal-front/internal/nav"
)

// ResetState is the reset page's lifecycle state.
type ResetState int

const (
	// ResetReady accepts a new password.
	ResetReady ResetState = iota
	// ResetMissingToken is terminal: the page was visited without a token
	// and no network call will ever be attempted.
	ResetMissingToken
	// ResetDone is terminal: the password was reset and the redirect to the
	// login page is scheduled.
	ResetDone
)

const (
	msgMissingToken  = "Missing token."
	msgWeakPassword  = "Please enter a stronger password."
	msgResetDone     = "Password reset successfully. Redirecting to sign in..."
	msgResetFallback = "Reset failed. The link may have expired."
)

// TokenConsumer is the slice of the API client the consume exchange needs.
type TokenConsumer interface {
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// ResetConfig fixes the flow's navigation behavior.
type ResetConfig struct {
	LoginRoute    string
	RedirectDelay time.Duration
}

// ResetOption adjusts a ResetFlow at construction.
type ResetOption func(*ResetFlow)

// WithResetScheduler replaces the delayed-call primitive for tests.
func WithResetScheduler(schedule func(time.Duration, func())) ResetOption {
	return func(f *ResetFlow) { f.schedule = schedule }
}

// ResetSnapshot is the flow's externally visible state.
type ResetSnapshot struct {
	State   ResetState
	Busy    bool
	Message string
	IsError bool
}

// ResetFlow is one visit to the reset page. The token comes from the
// navigational context and is forwarded verbatim; the client has no idea
// what is inside it.
type ResetFlow struct {
	client    TokenConsumer
	navigator nav.Navigator
	cfg       ResetConfig
	schedule  func(time.Duration, func())

	mu      sync.Mutex
	token   string
	state   ResetState
	busy    bool
	closed  bool
	message string
	isError bool
}

// NewResetFlow builds the flow for the given token. An absent token puts
// the flow in its terminal error state immediately.
func NewResetFlow(client TokenConsumer, navigator nav.Navigator, token string, cfg ResetConfig, opts ...ResetOption) *ResetFlow {
	f := &ResetFlow{
		client:    client,
		navigator: navigator,
		cfg:       cfg,
		token:     strings.TrimSpace(token),
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.token == "" {
		f.state = ResetMissingToken
		f.message = msgMissingToken
		f.isError = true
	}
	return f
}

// Snapshot returns the current visible state.
func (f *ResetFlow) Snapshot() ResetSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *ResetFlow) snapshotLocked() ResetSnapshot {
	return ResetSnapshot{
		State:   f.state,
		Busy:    f.busy,
		Message: f.message,
		IsError: f.isError,
	}
}

// Submit consumes the token with the chosen password. Without a token this
// is a no-op; the terminal error is already on display.
func (f *ResetFlow) Submit(ctx context.Context, newPassword string) ResetSnapshot {
	f.mu.Lock()
	if f.state != ResetReady || f.busy {
		defer f.mu.Unlock()
		return f.snapshotLocked()
	}
	if newPassword == "" {
		f.message = msgWeakPassword
		f.isError = true
		defer f.mu.Unlock()
		return f.snapshotLocked()
	}

	f.busy = true
	f.message = ""
	f.isError = false
	token := f.token
	f.mu.Unlock()

	err := f.client.ResetPassword(ctx, token, newPassword)

	f.mu.Lock()
	f.busy = false
	if err != nil {
		f.message = resetFailureMessage(err)
		f.isError = true
		defer f.mu.Unlock()
		return f.snapshotLocked()
	}

	f.state = ResetDone
	f.message = msgResetDone
	snap := f.snapshotLocked()
	f.mu.Unlock()

	// Scheduled outside the lock; the schedule function may run the closure
	// inline.
	f.schedule(f.cfg.RedirectDelay, func() {
		f.mu.Lock()
		closed := f.closed
		f.mu.Unlock()
		if !closed {
			f.navigator.Push(f.cfg.LoginRoute)
		}
	})
	return snap
}

// Close marks the page unmounted; a scheduled redirect that fires afterwards
// does nothing.
func (f *ResetFlow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// resetFailureMessage prefers the server's own words; transport failures
// get the expiry hint since an emailed link going stale is the common case.
func resetFailureMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return msgResetFallback
}
