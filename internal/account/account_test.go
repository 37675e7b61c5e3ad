package account

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

type stubAccountClient struct {
	changeMsg string
	changeErr error

	registerErr error

	changeCalls   []struct{ old, next string }
	registerCalls []api.RegisterRequest
}

func (s *stubAccountClient) ChangePassword(ctx context.Context, oldPassword, newPassword string) (string, error) {
	s.changeCalls = append(s.changeCalls, struct{ old, next string }{oldPassword, newPassword})
	return s.changeMsg, s.changeErr
}

func (s *stubAccountClient) Register(ctx context.Context, req api.RegisterRequest) (string, error) {
	s.registerCalls = append(s.registerCalls, req)
	return "", s.registerErr
}

func immediate(d time.Duration, fn func()) { fn() }

func newChangeFlow(client *stubAccountClient, recorder *testutil.NavRecorder) *ChangeFlow {
	return NewChangeFlow(client, recorder,
		ChangeConfig{LandingRoute: "/dashboard"}, WithChangeScheduler(immediate))
}

func TestChangeValidationBlocksNetwork(t *testing.T) {
	tests := []struct {
		name    string
		old     string
		next    string
		confirm string
		wantMsg string
	}{
		{"all_empty", "", "", "", msgFillAll},
		{"missing_old", "", "newpassword1", "newpassword1", msgFillAll},
		{"missing_confirm", "old", "newpassword1", "", msgFillAll},
		{"mismatch", "old", "newpassword1", "newpassword2", msgNoMatch},
		{"too_short", "old", "shortpw12", "shortpw12", msgTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubAccountClient{}
			flow := newChangeFlow(client, &testutil.NavRecorder{})

			snap := flow.Submit(context.Background(), tt.old, tt.next, tt.confirm)

			assert.Equal(t, tt.wantMsg, snap.Message)
			assert.True(t, snap.IsError)
			assert.Empty(t, client.changeCalls)
		})
	}
}

func TestChangeAcceptsExactlyMinLength(t *testing.T) {
	client := &stubAccountClient{}
	flow := newChangeFlow(client, &testutil.NavRecorder{})

	password := "0123456789" // exactly MinNewPasswordLength
	snap := flow.Submit(context.Background(), "old", password, password)
	assert.False(t, snap.IsError)
	require.Len(t, client.changeCalls, 1)
}

func TestChangeSuccessReportsServerMessageAndReturns(t *testing.T) {
	client := &stubAccountClient{changeMsg: "Confirmation mail sent."}
	recorder := &testutil.NavRecorder{}
	flow := newChangeFlow(client, recorder)

	snap := flow.Submit(context.Background(), "oldpassword", "newpassword1", "newpassword1")

	assert.True(t, snap.Done)
	assert.Equal(t, "Confirmation mail sent.", snap.Message)
	assert.False(t, snap.IsError)

	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, "/dashboard", last.Route)
}

func TestChangeSuccessWithoutServerMessage(t *testing.T) {
	client := &stubAccountClient{}
	flow := newChangeFlow(client, &testutil.NavRecorder{})

	snap := flow.Submit(context.Background(), "oldpassword", "newpassword1", "newpassword1")
	assert.Equal(t, msgChangeDone, snap.Message)
}

func TestChangeRejectionStaysForRetry(t *testing.T) {
	client := &stubAccountClient{changeErr: &api.Error{Status: 401, Message: "old password mismatch"}}
	recorder := &testutil.NavRecorder{}
	flow := newChangeFlow(client, recorder)

	snap := flow.Submit(context.Background(), "wrong", "newpassword1", "newpassword1")

	assert.False(t, snap.Done)
	assert.Equal(t, "old password mismatch", snap.Message)
	assert.True(t, snap.IsError)
	assert.Empty(t, recorder.Events())

	// Retriable.
	client.changeErr = nil
	snap = flow.Submit(context.Background(), "right", "newpassword1", "newpassword1")
	assert.True(t, snap.Done)
}

func TestChangeTransportFailureFallback(t *testing.T) {
	client := &stubAccountClient{changeErr: errors.New("connection refused")}
	flow := newChangeFlow(client, &testutil.NavRecorder{})

	snap := flow.Submit(context.Background(), "oldpassword", "newpassword1", "newpassword1")
	assert.Equal(t, msgChangeFallback, snap.Message)
}

func TestChangeDoneIgnoresFurtherSubmissions(t *testing.T) {
	client := &stubAccountClient{}
	flow := newChangeFlow(client, &testutil.NavRecorder{})

	flow.Submit(context.Background(), "oldpassword", "newpassword1", "newpassword1")
	flow.Submit(context.Background(), "oldpassword", "otherpassword2", "otherpassword2")
	assert.Len(t, client.changeCalls, 1)
}

func TestRegisterValidationBlocksNetwork(t *testing.T) {
	tests := []struct {
		name    string
		in      RegisterInput
		wantMsg string
	}{
		{"empty", RegisterInput{}, msgFillAll},
		{"bad_email", RegisterInput{Username: "eli123", Email: "not-an-email", Password: "pw", Confirm: "pw"}, msgRegisterBadEmail},
		{"mismatch", RegisterInput{Username: "eli123", Email: "you@example.com", Password: "pw1", Confirm: "pw2"}, msgRegisterNoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubAccountClient{}
			outcome := Register(context.Background(), client, tt.in)

			assert.True(t, outcome.LocalError)
			assert.Equal(t, tt.wantMsg, outcome.Message)
			assert.Empty(t, client.registerCalls)
		})
	}
}

func TestRegisterSuccess(t *testing.T) {
	client := &stubAccountClient{}
	outcome := Register(context.Background(), client, RegisterInput{
		Username: "  eli123 ",
		Email:    " you@example.com ",
		Password: "longenoughpw",
		Confirm:  "longenoughpw",
	})

	assert.True(t, outcome.Success)
	assert.Equal(t, msgRegisterDone, outcome.Message)
	require.Len(t, client.registerCalls, 1)
	assert.Equal(t, "eli123", client.registerCalls[0].Username)
	assert.Equal(t, "you@example.com", client.registerCalls[0].Email)
}

func TestRegisterServerRejection(t *testing.T) {
	client := &stubAccountClient{registerErr: &api.Error{Status: 409, Message: "username taken"}}
	outcome := Register(context.Background(), client, RegisterInput{
		Username: "eli123", Email: "you@example.com", Password: "pw123456789", Confirm: "pw123456789",
	})

	assert.False(t, outcome.Success)
	assert.False(t, outcome.LocalError)
	assert.Equal(t, "username taken", outcome.Message)
}

func TestRegisterTransportFailureFallback(t *testing.T) {
	client := &stubAccountClient{registerErr: errors.New("connection refused")}
	outcome := Register(context.Background(), client, RegisterInput{
		Username: "eli123", Email: "you@example.com", Password: "pw123456789", Confirm: "pw123456789",
	})
	assert.Equal(t, msgRegisterFallback, outcome.Message)
}
