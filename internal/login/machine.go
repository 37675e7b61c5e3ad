// Package login drives the two-step login protocol as an explicit state
// machine: a credential exchange, then — when the server demands it — a
// one-time-code exchange. Every transition is driven by a server response;
// the machine itself decides nothing about account validity.
package login

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/communication-ltd/portal-front/internal/api"
	"github.com/communication-ltd/portal-front/internal/log"
	"github.com/communication-ltd/portal-front/internal/nav"
	"github.com/communication-ltd/portal-front/internal/validate"
)

// Step is the visible step of the login flow.
type Step int

const (
	// StepCredentials collects the identifier and password.
	StepCredentials Step = iota
	// StepOneTimeCode collects the out-of-band code.
	StepOneTimeCode
)

func (s Step) String() string {
	switch s {
	case StepCredentials:
		return "credentials"
	case StepOneTimeCode:
		return "one-time-code"
	default:
		return "unknown"
	}
}

// Validation messages. These are produced locally, before any network call.
const (
	msgMissingFields = "Please fill in all required fields."
	msgBadIdentifier = "Enter a valid email or username."
	msgBadCode       = "Enter the 6-digit code."
	msgLoginSuccess  = "Logged in successfully."
)

// exchanger is the slice of the API client the machine consumes.
type exchanger interface {
	Login(ctx context.Context, identifier, password string) (api.LoginResult, error)
	LoginMFA(ctx context.Context, identifier, code string) error
}

// Config fixes the machine's navigation behavior.
type Config struct {
	// LandingRoute is where a completed login goes.
	LandingRoute string
	// RedirectDelay is how long the success message stays on screen before
	// the redirect fires. Display-only; zero is valid.
	RedirectDelay time.Duration
}

// Option adjusts a Machine at construction.
type Option func(*Machine)

// WithScheduler replaces the delayed-call primitive. Tests use this to make
// scheduled redirects synchronous.
func WithScheduler(schedule func(time.Duration, func())) Option {
	return func(m *Machine) { m.schedule = schedule }
}

// Snapshot is the machine's externally visible state. The front-end renders
// from snapshots and never touches the machine's internals.
type Snapshot struct {
	Step             Step
	Busy             bool
	Completed        bool
	ErrorMessage     string
	InfoMessage      string
	Identifier       string
	Code             string
	Method           string
	ExpiresInMinutes int
}

// Machine is one login page visit. Construct a fresh machine per visit;
// it owns its transient state exclusively.
type Machine struct {
	client    exchanger
	navigator nav.Navigator
	cfg       Config
	schedule  func(time.Duration, func())

	mu               sync.Mutex
	step             Step
	busy             bool
	completed        bool
	closed           bool
	errorMessage     string
	infoMessage      string
	identifier       string
	password         string
	code             string
	method           string
	expiresInMinutes int
}

// NewMachine builds a machine in the credentials step.
func NewMachine(client exchanger, navigator nav.Navigator, cfg Config, opts ...Option) *Machine {
	m := &Machine{
		client:    client,
		navigator: navigator,
		cfg:       cfg,
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns the current visible state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		Step:             m.step,
		Busy:             m.busy,
		Completed:        m.completed,
		ErrorMessage:     m.errorMessage,
		InfoMessage:      m.infoMessage,
		Identifier:       m.identifier,
		Code:             m.code,
		Method:           m.method,
		ExpiresInMinutes: m.expiresInMinutes,
	}
}

// SubmitCredentials runs the password step. Validation failures never reach
// the network; while a prior submission is in flight the call is a no-op.
func (m *Machine) SubmitCredentials(ctx context.Context, identifier, password string) Snapshot {
	identifier = strings.TrimSpace(identifier)

	m.mu.Lock()
	if m.busy || m.completed {
		defer m.mu.Unlock()
		return m.snapshotLocked()
	}
	m.errorMessage = ""
	m.infoMessage = ""

	if identifier == "" || strings.TrimSpace(password) == "" {
		m.errorMessage = msgMissingFields
		defer m.mu.Unlock()
		return m.snapshotLocked()
	}
	if !validate.Identifier(identifier) {
		m.errorMessage = msgBadIdentifier
		defer m.mu.Unlock()
		return m.snapshotLocked()
	}

	m.busy = true
	m.identifier = identifier
	m.password = password
	m.mu.Unlock()

	// The raw identifier goes on the wire; email-vs-username is the
	// server's call.
	result, err := m.client.Login(ctx, identifier, password)

	m.mu.Lock()
	m.busy = false
	if err != nil {
		m.errorMessage = api.DisplayMessage(err)
		defer m.mu.Unlock()
		return m.snapshotLocked()
	}

	if result.MFARequired {
		m.step = StepOneTimeCode
		m.code = "" // never carry a stale code into the new challenge
		m.method = result.Method
		m.expiresInMinutes = result.ExpiresInMinutes
		log.LogDebugWithFields("login", "code challenge started", map[string]any{
			"method":     result.Method,
			"expires_in": result.ExpiresInMinutes,
		})
		defer m.mu.Unlock()
		return m.snapshotLocked()
	}

	// Password alone satisfied the server: the session exists already.
	m.completeLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.scheduleRedirect()
	return snap
}

// SubmitCode runs the one-time-code step. Anything but exactly six digits
// is rejected locally.
func (m *Machine) SubmitCode(ctx context.Context, code string) Snapshot {
	code = strings.TrimSpace(code)

	m.mu.Lock()
	if m.busy || m.completed || m.step != StepOneTimeCode {
		defer m.mu.Unlock()
		return m.snapshotLocked()
	}
	m.errorMessage = ""

	if !validate.OTPCode(code) {
		m.errorMessage = msgBadCode
		defer m.mu.Unlock()
		return m.snapshotLocked()
	}

	m.busy = true
	m.code = code
	identifier := m.identifier
	m.mu.Unlock()

	err := m.client.LoginMFA(ctx, identifier, code)

	m.mu.Lock()
	m.busy = false
	if err != nil {
		// Expired and wrong codes arrive with the same shape; the machine
		// surfaces whatever the server said and stays put for a retry.
		m.errorMessage = api.DisplayMessage(err)
		defer m.mu.Unlock()
		return m.snapshotLocked()
	}

	m.completeLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.scheduleRedirect()
	return snap
}

// Back returns from the code step to the credentials step, discarding the
// entered code and any error. The identifier and password survive so the
// user can correct and resubmit.
func (m *Machine) Back() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy || m.completed || m.step != StepOneTimeCode {
		return m.snapshotLocked()
	}
	m.step = StepCredentials
	m.code = ""
	m.errorMessage = ""
	m.method = ""
	m.expiresInMinutes = 0
	return m.snapshotLocked()
}

// Close marks the page unmounted; a scheduled redirect that fires afterwards
// does nothing.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// completeLocked enters the terminal state. Callers hold m.mu and schedule
// the redirect after releasing it.
func (m *Machine) completeLocked() {
	m.completed = true
	m.password = ""
	m.code = ""
	m.infoMessage = msgLoginSuccess
}

// scheduleRedirect queues the landing navigation. Must be called without
// m.mu held: the schedule function may run the closure inline, and the
// closure takes the lock to check for Close.
func (m *Machine) scheduleRedirect() {
	m.schedule(m.cfg.RedirectDelay, func() {
		m.mu.Lock()
		closed := m.closed
		m.mu.Unlock()
		if !closed {
			m.navigator.Push(m.cfg.LandingRoute)
		}
	})
}
