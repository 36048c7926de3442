package service

import (
	"errors"
	"fmt"
)

// ErrMalformedRequest marks a payload that could not be parsed at all.
var ErrMalformedRequest = errors.New("malformed request")

// ErrInvalidRole marks a role tag outside the fixed clinical-staff set.
var ErrInvalidRole = errors.New("invalid role")

// MissingFieldError names the required request field that was absent or of
// the wrong shape.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}
