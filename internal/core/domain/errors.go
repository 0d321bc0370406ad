package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrCorpus       = errors.New("corpus error")
	ErrUnavailable  = errors.New("service unavailable")
	ErrTemporary    = errors.New("temporary failure")
	ErrIndexCorrupt = errors.New("index artifact corrupt")
	ErrNotFound     = errors.New("not found")
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
