package pattern

import (
	"errors"
	"fmt"
)

// ErrInvalidToken is wrapped by every Error returned from New.
var ErrInvalidToken = errors.New("pattern: invalid token")

// Error describes an invalid token specification.
type Error struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("pattern: invalid %s: %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalidToken.
func (e *Error) Unwrap() error { return ErrInvalidToken }
