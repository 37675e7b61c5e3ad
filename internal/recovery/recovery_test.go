package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communication-ltd/portal-front/internal/api"
	"github.com/communication-ltd/portal-front/internal/testutil"
)

type stubRecoveryClient struct {
	forgotErr error
	resetErr  error

	forgotCalls []string
	resetCalls  []struct{ token, password string }
}

func (s *stubRecoveryClient) ForgotPassword(ctx context.Context, email string) error {
	s.forgotCalls = append(s.forgotCalls, email)
	return s.forgotErr
}

func (s *stubRecoveryClient) ResetPassword(ctx context.Context, token, newPassword string) error {
	s.resetCalls = append(s.resetCalls, struct{ token, password string }{token, newPassword})
	return s.resetErr
}

func TestRequestLinkValidationBlocksNetwork(t *testing.T) {
	for _, email := range []string{"", "   ", "no-at-sign.com"} {
		t.Run("email_"+email, func(t *testing.T) {
			client := &stubRecoveryClient{}
			outcome := RequestLink(context.Background(), client, email)

			assert.True(t, outcome.LocalError)
			assert.Equal(t, msgBadEmail, outcome.Message)
			assert.Empty(t, client.forgotCalls)
		})
	}
}

func TestRequestLinkOutcomeIsIndistinguishable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"success", nil},
		{"policy_rejection", &api.Error{Status: 400, Message: "invalid json"}},
		{"server_error", &api.Error{Status: 500, Message: "mailer error"}},
		{"network_failure", errors.New("connection refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubRecoveryClient{forgotErr: tt.err}
			outcome := RequestLink(context.Background(), client, "you@example.com")

			assert.False(t, outcome.LocalError)
			assert.Equal(t, GenericRequestMessage, outcome.Message,
				"every post-validation outcome must look identical")
			assert.Equal(t, []string{"you@example.com"}, client.forgotCalls)
		})
	}
}

func TestRequestLinkTrimsEmail(t *testing.T) {
	client := &stubRecoveryClient{}
	RequestLink(context.Background(), client, "  you@example.com ")
	assert.Equal(t, []string{"you@example.com"}, client.forgotCalls)
}

func immediate(d time.Duration, fn func()) { fn() }

func newResetFlow(client *stubRecoveryClient, recorder *testutil.NavRecorder, token string) *ResetFlow {
	return NewResetFlow(client, recorder, token,
		ResetConfig{LoginRoute: "/login"}, WithResetScheduler(immediate))
}

func TestResetWithoutTokenIsTerminal(t *testing.T) {
	client := &stubRecoveryClient{}
	for _, token := range []string{"", "   "} {
		flow := newResetFlow(client, &testutil.NavRecorder{}, token)

		snap := flow.Snapshot()
		assert.Equal(t, ResetMissingToken, snap.State)
		assert.Equal(t, msgMissingToken, snap.Message)
		assert.True(t, snap.IsError)

		// Submitting anyway must never reach the network.
		snap = flow.Submit(context.Background(), "new-password-123")
		assert.Equal(t, ResetMissingToken, snap.State)
		assert.Empty(t, client.resetCalls)
	}
}

func TestResetEmptyPasswordBlocksNetwork(t *testing.T) {
	client := &stubRecoveryClient{}
	flow := newResetFlow(client, &testutil.NavRecorder{}, "tok123")

	snap := flow.Submit(context.Background(), "")
	assert.Equal(t, msgWeakPassword, snap.Message)
	assert.True(t, snap.IsError)
	assert.Equal(t, ResetReady, snap.State)
	assert.Empty(t, client.resetCalls)
}

func TestResetSuccessSchedulesLoginRedirect(t *testing.T) {
	client := &stubRecoveryClient{}
	recorder := &testutil.NavRecorder{}
	flow := newResetFlow(client, recorder, "tok123")

	snap := flow.Submit(context.Background(), "new-password-123")

	assert.Equal(t, ResetDone, snap.State)
	assert.Equal(t, msgResetDone, snap.Message)
	assert.False(t, snap.IsError)

	require.Len(t, client.resetCalls, 1)
	assert.Equal(t, "tok123", client.resetCalls[0].token, "token is forwarded verbatim")

	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, "/login", last.Route)
}

func TestResetFailureSurfacesServerMessage(t *testing.T) {
	client := &stubRecoveryClient{resetErr: &api.Error{Status: 400, Message: "invalid or expired token"}}
	flow := newResetFlow(client, &testutil.NavRecorder{}, "tok123")

	snap := flow.Submit(context.Background(), "new-password-123")

	assert.Equal(t, ResetReady, snap.State, "the flow stays put for retry")
	assert.Equal(t, "invalid or expired token", snap.Message)
	assert.True(t, snap.IsError)
}

func TestResetTransportFailureUsesExpiryHint(t *testing.T) {
	client := &stubRecoveryClient{resetErr: errors.New("connection reset")}
	flow := newResetFlow(client, &testutil.NavRecorder{}, "tok123")

	snap := flow.Submit(context.Background(), "new-password-123")
	assert.Equal(t, msgResetFallback, snap.Message)
}

func TestResetDoneIgnoresFurtherSubmissions(t *testing.T) {
	client := &stubRecoveryClient{}
	flow := newResetFlow(client, &testutil.NavRecorder{}, "tok123")

	flow.Submit(context.Background(), "new-password-123")
	flow.Submit(context.Background(), "another-password")
	assert.Len(t, client.resetCalls, 1)
}

func TestResetRedirectRespectsClose(t *testing.T) {
	client := &stubRecoveryClient{}
	recorder := &testutil.NavRecorder{}

	var deferred func()
	flow := NewResetFlow(client, recorder, "tok123",
		ResetConfig{LoginRoute: "/login"},
		WithResetScheduler(func(d time.Duration, fn func()) { deferred = fn }))

	flow.Submit(context.Background(), "new-password-123")
	require.NotNil(t, deferred)

	flow.Close()
	deferred()
	assert.Empty(t, recorder.Events())
}
