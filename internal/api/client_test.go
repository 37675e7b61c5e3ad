package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, 5*time.Second)
	require.NoError(t, err)
	return client, srv
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", time.Second)
	assert.Error(t, err)

	_, err = NewClient("://nope", time.Second)
	assert.Error(t, err)
}

func TestLoginDecodesMFAChallenge(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "eli123", body["id"])

		json.NewEncoder(w).Encode(map[string]any{
			"mfa_required": true,
			"method":       "email_otp",
			"expires_in":   5,
		})
	}))

	result, err := client.Login(context.Background(), "eli123", "hunter2hunter2")
	require.NoError(t, err)
	assert.True(t, result.MFARequired)
	assert.Equal(t, "email_otp", result.Method)
	assert.Equal(t, 5, result.ExpiresInMinutes)
}

func TestErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error_field", http.StatusUnauthorized, `{"error":"invalid credentials"}`, "invalid credentials"},
		{"message_field", http.StatusBadRequest, `{"message":"missing fields"}`, "missing fields"},
		{"empty_body", http.StatusBadGateway, ``, "Request failed (502)"},
		{"non_json_body", http.StatusInternalServerError, `<html>boom</html>`, "Request failed (500)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			_, err := client.Login(context.Background(), "eli123", "pw")
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Error())
			assert.Equal(t, tt.wantMsg, DisplayMessage(err))
		})
	}
}

func TestDisplayMessageFallsBackOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)
	srv.Close() // force a connection error

	err = client.LoginMFA(context.Background(), "eli123", "123456")
	require.Error(t, err)
	assert.Equal(t, FallbackMessage, DisplayMessage(err))
}

func TestSessionCookieRoundTrip(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login/mfa":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "opaque-token", Path: "/", HttpOnly: true})
			json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
		case "/api/me":
			cookie, err := r.Cookie("session")
			if err != nil || cookie.Value != "opaque-token" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"user_id": 7, "username": "eli123"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	ctx := context.Background()

	// Before login the probe is rejected.
	_, err := client.Me(ctx)
	require.Error(t, err)

	require.NoError(t, client.LoginMFA(ctx, "eli123", "123456"))

	identity, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), identity.ID)
	assert.Equal(t, "eli123", identity.Username)
}

func TestRegisterOmitsCookies(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login/mfa":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok", Path: "/"})
			w.WriteHeader(http.StatusOK)
		case "/api/register":
			assert.Empty(t, r.Cookies(), "register must not carry a session cookie")
			json.NewEncoder(w).Encode(map[string]string{"message": "account created"})
		}
	}))

	ctx := context.Background()
	require.NoError(t, client.LoginMFA(ctx, "eli123", "123456"))

	msg, err := client.Register(ctx, RegisterRequest{Username: "new", Email: "new@example.com", Password: "longenoughpw"})
	require.NoError(t, err)
	assert.Equal(t, "account created", msg)
}

func TestTolerantSuccessDecode(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))

	// A garbage success body decodes to the zero result instead of failing.
	result, err := client.Login(context.Background(), "eli123", "pw")
	require.NoError(t, err)
	assert.False(t, result.MFARequired)
}

func TestSearchCustomersQuery(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/customers/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "acme", q.Get("q"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("size"))
		json.NewEncoder(w).Encode(CustomerPage{
			Items: []Customer{{ID: 1, Name: "Acme Ltd", Email: "ops@acme.com"}},
			Page:  2, Size: 10, Total: 11,
		})
	}))

	page, err := client.SearchCustomers(context.Background(), "acme", 2, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Acme Ltd", page.Items[0].Name)
	assert.Equal(t, 11, page.Total)
}

func TestBasePathIsPreserved(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/portal", time.Second)
	require.NoError(t, err)

	require.NoError(t, client.Health(context.Background()))
	assert.Equal(t, "/portal/health", gotPath)
}
