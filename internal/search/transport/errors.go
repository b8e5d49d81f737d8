package transport

import (
	"errors"
	"fmt"
)

// Category is the normalized failure taxonomy of a court call.
type Category string

const (
	// CategoryAuth means the API credential was rejected.
	CategoryAuth Category = "AUTH_ERROR"

	// CategoryForbidden means the credential lacks access to the index.
	CategoryForbidden Category = "FORBIDDEN"

	// CategoryNotFound means the court endpoint does not exist.
	CategoryNotFound Category = "NOT_FOUND"

	// CategoryUnavailable covers 5xx answers from the backend.
	CategoryUnavailable Category = "UPSTREAM_UNAVAILABLE"

	// CategoryTimeout means no answer arrived within the transport timeout.
	CategoryTimeout Category = "TIMEOUT"

	// CategoryMalformed means the body was not JSON or lacked the hits envelope.
	CategoryMalformed Category = "MALFORMED_RESPONSE"

	// CategoryNetwork covers connection-level failures.
	CategoryNetwork Category = "NETWORK_ERROR"

	// CategoryUpstream covers any other non-2xx status.
	CategoryUpstream Category = "UPSTREAM_ERROR"
)

// Error is a categorized transport failure.
type Error struct {
	Category   Category
	Endpoint   string
	Status     int
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Category, e.Message)
	if e.Status != 0 {
		msg = fmt.Sprintf("[%s] status %d: %s", e.Category, e.Status, e.Message)
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError creates a categorized error.
func NewError(category Category, endpoint, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Endpoint:   endpoint,
		Message:    message,
		Underlying: underlying,
	}
}

// CategoryOf extracts the category from err, or CategoryNetwork for foreign errors.
func CategoryOf(err error) Category {
	var te *Error
	if errors.As(err, &te) {
		return te.Category
	}
	return CategoryNetwork
}
