package support

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks request errors the caller can fix.
var ErrInvalidInput = errors.New("invalid input")

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// InvalidErr marks err as caller-fixable while keeping it matchable.
func InvalidErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
