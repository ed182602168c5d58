package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPhrase is returned when a PhraseRef names no phrase.
	ErrUnknownPhrase = errors.New("compiler: unknown phrase")

	// ErrInvalidRule is returned for rule sources that cannot be compiled.
	ErrInvalidRule = errors.New("compiler: invalid rule")
)

// RuleError reports the rule a compilation error belongs to.
type RuleError struct {
	RuleID string
	Err    error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	return fmt.Sprintf("compiler: rule %s: %v", e.RuleID, e.Err)
}

// Unwrap returns the underlying error.
func (e *RuleError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRule, fmt.Sprintf(format, args...))
}
