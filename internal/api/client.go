// Package api is the HTTP transport to the portal backend. It owns the
// session credential: the httpOnly cookie lives in the client's jar and is
// attached to every request automatically. Nothing above this package ever
// sees or handles the cookie value.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/communication-ltd/portal-front/internal/log"
)

const maxResponseBody = 1 << 20 // 1 MiB, far above any portal response

// Client talks to the portal backend. The zero value is not usable;
// construct with NewClient.
type Client struct {
	base *url.URL

	// http carries the cookie jar and is used for every session-aware call.
	// anon shares the transport but has no jar: registration must not send
	// an existing session cookie.
	http *http.Client
	anon *http.Client
}

// NewClient builds a client for the given base URL. timeout bounds each
// individual request; callers pass a context for anything stricter.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https, got %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &Client{
		base: base,
		http: &http.Client{Jar: jar, Timeout: timeout},
		anon: &http.Client{Timeout: timeout},
	}, nil
}

// endpoint joins the base URL with an API path, handling slashes.
func (c *Client) endpoint(p string, query url.Values) string {
	u := *c.base
	u.Path = path.Join(u.Path, p)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, p string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(p, query), reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := hc.Do(req)
	if err != nil {
		log.LogDebugWithFields("api", "request failed", map[string]any{
			"method":     method,
			"path":       p,
			"request_id": requestID,
			"error":      err.Error(),
		})
		return fmt.Errorf("%s %s: %w", method, p, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode, Message: extractMessage(data)}
		log.LogDebugWithFields("api", "request rejected", map[string]any{
			"method":     method,
			"path":       p,
			"status":     resp.StatusCode,
			"request_id": requestID,
		})
		return apiErr
	}

	// Tolerant decode: an empty or non-JSON success body is treated as an
	// empty result, matching the backend's mixed response shapes.
	if out != nil && len(data) > 0 {
		_ = json.Unmarshal(data, out)
	}
	return nil
}

func (c *Client) post(ctx context.Context, p string, body, out any) error {
	return c.do(ctx, c.http, http.MethodPost, p, nil, body, out)
}

func (c *Client) get(ctx context.Context, p string, query url.Values, out any) error {
	return c.do(ctx, c.http, http.MethodGet, p, query, nil, out)
}

// extractMessage pulls the display text out of an error body. The backend
// uses `error` for rejections and `message` for a few informational ones.
func extractMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
