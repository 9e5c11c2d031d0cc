package domain

import (
	"errors"
	"fmt"
)

var (
	ErrArtifactMissing = errors.New("artifact missing")
	ErrArtifactCorrupt = errors.New("artifact corrupt")
	ErrUnknownItem     = errors.New("unknown item")
	ErrInvalidInput    = errors.New("invalid input")
	ErrTemporary       = errors.New("temporary failure")
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

// IsDomainUnavailable reports whether err means a domain's artifacts could not
// be loaded. Such failures last until the process restarts.
func IsDomainUnavailable(err error) bool {
	return errors.Is(err, ErrArtifactMissing) || errors.Is(err, ErrArtifactCorrupt)
}
