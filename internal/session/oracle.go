// Package session resolves the current identity from the ambient transport
// credential. The credential itself is owned by the network layer; this
// package only observes its effect.
package session

import (
	"context"

	"github.com/communication-ltd/portal-front/internal/api"
	"github.com/communication-ltd/portal-front/internal/log"
)

// Identity is the authenticated user as far as the client knows.
type Identity struct {
	ID       int64
	Username string
	Email    string
}

// Outcome is a single probe result. The zero value is Unauthenticated.
type Outcome struct {
	Authenticated bool
	Identity      Identity
}

// Oracle answers "am I authenticated, and as whom?". One probe per question;
// results are never cached here, and a probe never fails: every transport or
// server problem resolves to Unauthenticated.
type Oracle interface {
	Probe(ctx context.Context) Outcome
}

// prober is the slice of the API client the oracle needs.
type prober interface {
	Me(ctx context.Context) (api.Identity, error)
}

// APIOracle probes the portal backend's identity endpoint.
type APIOracle struct {
	client prober
}

// NewOracle builds an oracle backed by the given API client.
func NewOracle(client prober) *APIOracle {
	return &APIOracle{client: client}
}

// Probe performs a single identity probe. No retry: a failed probe is
// definitive for the navigation that requested it.
func (o *APIOracle) Probe(ctx context.Context) Outcome {
	me, err := o.client.Me(ctx)
	if err != nil {
		// Unauthorized, network failure, server error: all the same to the
		// caller. Details go to the debug log only.
		log.LogDebugWithFields("session", "probe resolved unauthenticated", map[string]any{
			"error": err.Error(),
		})
		return Outcome{}
	}
	return Outcome{
		Authenticated: true,
		Identity: Identity{
			ID:       me.ID,
			Username: me.Username,
			Email:    me.Email,
		},
	}
}

// ender is the slice of the API client End needs.
type ender interface {
	Logout(ctx context.Context) error
}

// End terminates the session best-effort. Failures are swallowed: the client
// proceeds to the unauthenticated state regardless, and the server-side
// session expires on its own.
func End(ctx context.Context, client ender) {
	if err := client.Logout(ctx); err != nil {
		log.LogWarnWithFields("session", "logout failed, proceeding anyway", map[string]any{
			"error": err.Error(),
		})
	}
}
