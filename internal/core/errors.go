package core

import "errors"

// Cross-cutting domain errors. Validation sentinels live next to the types
// they guard (entry.go, date.go).
var (
	// ErrNotFound is returned when an entry or category cannot be resolved.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the requester does not own the record.
	// No further detail about the record is exposed.
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicateOccurrence signals that a (parent, date) pair already
	// exists. Materialization treats it as "already exists, skip".
	ErrDuplicateOccurrence = errors.New("occurrence already exists for this date")

	// ErrNotSeriesOrigin is returned when a lifecycle operation targets an
	// entry that is not the origin of a recurring series.
	ErrNotSeriesOrigin = errors.New("entry is not the origin of a recurring series")

	// ErrNotFixedOrigin is returned when pause/resume targets an entry
	// that is not a fixed recurring origin.
	ErrNotFixedOrigin = errors.New("entry is not a fixed recurring origin")

	// ErrNotASeries is returned when cancel targets a standalone entry.
	ErrNotASeries = errors.New("entry is not part of a recurring series")
)
