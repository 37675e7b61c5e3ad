// Package guard gates route subtrees on session state. One generic guard
// covers both directions: protected routes require an authenticated session,
// entry routes (login, register, recovery) require the absence of one.
package guard

import (
	"context"
	"sync"

	"github.com/communication-ltd/portal-front/internal/log"
	"github.com/communication-ltd/portal-front/internal/nav"
	"github.com/communication-ltd/portal-front/internal/session"
)

// State is the guard's lifecycle state.
type State int

const (
	// StateChecking is the initial state: the probe is outstanding and the
	// front-end renders a neutral placeholder, never the guarded content.
	StateChecking State = iota
	// StateAuthorized means the guarded subtree may render.
	StateAuthorized
	// StateDenied means the user was redirected away, history replaced.
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthorized:
		return "authorized"
	case StateDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Policy is what a guard demands of the session, and where it sends the
// user otherwise.
type Policy struct {
	RequireAuthenticated bool
	RedirectTo           string
}

// Guard is a single-evaluation route gate. Each navigation constructs a
// fresh guard and pays one probe; guards never share results, so staleness
// is bounded by a single probe rather than a cache invalidation protocol.
type Guard struct {
	oracle    session.Oracle
	navigator nav.Navigator
	policy    Policy

	mu       sync.Mutex
	state    State
	identity session.Identity
	closed   bool
}

// New builds an unresolved guard.
func New(oracle session.Oracle, navigator nav.Navigator, policy Policy) *Guard {
	return &Guard{
		oracle:    oracle,
		navigator: navigator,
		policy:    policy,
	}
}

// RequireAuthenticated guards a protected subtree, redirecting to the login
// entry point when no session exists.
func RequireAuthenticated(oracle session.Oracle, navigator nav.Navigator, loginRoute string) *Guard {
	return New(oracle, navigator, Policy{RequireAuthenticated: true, RedirectTo: loginRoute})
}

// RequireAnonymous guards a public entry subtree, redirecting to the
// authenticated landing page when a session already exists.
func RequireAnonymous(oracle session.Oracle, navigator nav.Navigator, landingRoute string) *Guard {
	return New(oracle, navigator, Policy{RequireAuthenticated: false, RedirectTo: landingRoute})
}

// Evaluate runs the probe and resolves the guard. It is the mount-time
// entry point; the front-end may watch State from another goroutine to keep
// rendering the placeholder while this blocks.
func (g *Guard) Evaluate(ctx context.Context) State {
	return g.Resolve(g.oracle.Probe(ctx))
}

// Resolve applies a probe outcome. The first resolution wins; later ones
// are ignored, as are resolutions arriving after Close — a stale probe must
// never navigate a user who has already moved on.
func (g *Guard) Resolve(outcome session.Outcome) State {
	g.mu.Lock()
	if g.closed || g.state != StateChecking {
		state := g.state
		g.mu.Unlock()
		return state
	}

	if outcome.Authenticated == g.policy.RequireAuthenticated {
		g.state = StateAuthorized
		g.identity = outcome.Identity
	} else {
		g.state = StateDenied
	}
	state := g.state
	g.mu.Unlock()

	if state == StateDenied {
		log.LogDebugWithFields("guard", "access denied, redirecting", map[string]any{
			"require_authenticated": g.policy.RequireAuthenticated,
			"redirect_to":           g.policy.RedirectTo,
		})
		g.navigator.Replace(g.policy.RedirectTo)
	}
	return state
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Identity returns the probed identity once the guard authorized an
// authenticated subtree. ok is false while checking, after denial, and for
// anonymous-only guards.
func (g *Guard) Identity() (session.Identity, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ok := g.state == StateAuthorized && g.policy.RequireAuthenticated
	return g.identity, ok
}

// Close marks the guard unmounted. A resolution arriving afterwards is
// discarded instead of triggering a redirect.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}
