package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFAQNotFound      = errors.New("faq entry not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrIndexUnavailable = errors.New("document index unavailable")
	ErrIndexQuery       = errors.New("document index query failed")
	ErrGeneration       = errors.New("answer generation failed")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
