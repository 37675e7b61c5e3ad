package api

import (
	"errors"
	"fmt"
)

// FallbackMessage is shown when a call fails without a usable server message,
// e.g. on a transport error or an empty error body.
const FallbackMessage = "Network error. Please try again."

// Error is a non-2xx response from the portal backend. Message is the
// server-provided text, extracted from the `error` or `message` field of the
// body, and is meant to be displayed verbatim. The orchestration layer never
// branches on Status; it is kept for logging.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Request failed (%d)", e.Status)
}

// DisplayMessage extracts the user-facing text for err: the server message
// when present, FallbackMessage otherwise.
func DisplayMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return FallbackMessage
}
