package services

import (
	"errors"
	"fmt"
)

// ErrValidation marks requests rejected before any write. The underlying
// cause (usually a core validation sentinel) stays reachable via errors.Is.
var ErrValidation = errors.New("invalid request")

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
