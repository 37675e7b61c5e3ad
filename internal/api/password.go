package api

import "context"

// ForgotPassword requests a reset link for email. The response body is never
// inspected: the recovery flow presents the same message on every outcome.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.post(ctx, "/api/password/forgot", map[string]string{
		"email": email,
	}, nil)
}

// ResetPassword consumes a reset token. The token is forwarded verbatim;
// the client has no notion of its structure or validity.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.post(ctx, "/api/password/reset", map[string]string{
		"token":        token,
		"new_password": newPassword,
	}, nil)
}

// ChangePassword requests a password change on the active session. The
// server answers with a confirmation message (the change itself is applied
// after out-of-band confirmation).
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.post(ctx, "/api/password/change", map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}
