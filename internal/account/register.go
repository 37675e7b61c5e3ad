package account

import (
	"context"
	"errors"
	"strings"

	"github.com/communication-ltd/portal-front/internal/api"
	"github.com/communication-ltd/portal-front/internal/validate"
)

const (
	msgRegisterDone     = "Account created. A verification mail was sent to your email."
	msgRegisterFallback = "Registration failed"
	msgRegisterBadEmail = "Please enter a valid email."
	msgRegisterNoMatch  = "Passwords do not match."
)

// registrar is the slice of the API client registration needs.
type registrar interface {
	Register(ctx context.Context, req api.RegisterRequest) (string, error)
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Confirm  string
}

// RegisterOutcome is the user-visible result of a registration attempt.
type RegisterOutcome struct {
	Success bool
	Message string
	// LocalError marks pre-network validation failures.
	LocalError bool
}

// Register validates the form locally and runs the registration exchange.
// Server-side password policy is authoritative; the local gate only checks
// the form's internal consistency.
func Register(ctx context.Context, client registrar, in RegisterInput) RegisterOutcome {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if in.Username == "" || in.Password == "" || in.Confirm == "" {
		return RegisterOutcome{Message: msgFillAll, LocalError: true}
	}
	if !validate.Email(in.Email) {
		return RegisterOutcome{Message: msgRegisterBadEmail, LocalError: true}
	}
	if in.Password != in.Confirm {
		return RegisterOutcome{Message: msgRegisterNoMatch, LocalError: true}
	}

	_, err := client.Register(ctx, api.RegisterRequest{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			return RegisterOutcome{Message: apiErr.Error()}
		}
		return RegisterOutcome{Message: msgRegisterFallback}
	}
	return RegisterOutcome{Success: true, Message: msgRegisterDone}
}
