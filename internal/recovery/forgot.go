// Package recovery implements the password-recovery exchanges: requesting a
// reset link, and consuming the emailed token. Both are deliberately
// independent of the login state machine; they are reachable from the login
// page but carry none of its state.
package recovery

import (
	"context"
	"strings"

	"github.com/communication-ltd/portal-front/internal/log"
)

// GenericRequestMessage is the only thing a user ever learns from a
// reset-link request. Whether the account exists, does not exist, or the
// backend was unreachable must be indistinguishable here.
const GenericRequestMessage = "If this email exists, a reset link has been sent."

const msgBadEmail = "Please enter a valid email."

// LinkRequester is the slice of the API client the request exchange needs.
type LinkRequester interface {
	ForgotPassword(ctx context.Context, email string) error
}

// RequestOutcome is the user-visible result of a reset-link request.
// LocalError is set only by pre-network validation; once a request is
// dispatched the outcome is always the generic message.
type RequestOutcome struct {
	Message    string
	LocalError bool
}

// RequestLink asks the server to mail a reset link. The only local check is
// the bare minimum to form a request at all; everything past that point,
// including transport failure, resolves to the same generic message.
func RequestLink(ctx context.Context, client LinkRequester, email string) RequestOutcome {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return RequestOutcome{Message: msgBadEmail, LocalError: true}
	}

	if err := client.ForgotPassword(ctx, email); err != nil {
		// Logged for operators; the user sees exactly what a success shows.
		log.LogDebugWithFields("recovery", "reset-link request failed", map[string]any{
			"error": err.Error(),
		})
	}
	return RequestOutcome{Message: GenericRequestMessage}
}
