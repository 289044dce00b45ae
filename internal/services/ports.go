package services

import (
	"context"

	"github.com/google/uuid"

	"financas/internal/core"
)

// Ports for the persistence and messaging collaborators. The services layer
// owns only the recurrence and entry logic; storage, category resolution and
// event transport are injected through these interfaces.
type (
	// EntryStore is the ledger-entry persistence collaborator.
	EntryStore interface {
		// Insert persists a single entry. Inserting an occurrence whose
		// (parent, date) pair already exists returns
		// core.ErrDuplicateOccurrence.
		Insert(ctx context.Context, e core.LedgerEntry) error

		// InsertBatch persists all entries or none of them.
		InsertBatch(ctx context.Context, entries []core.LedgerEntry) error

		// GetByID returns core.ErrNotFound when the id does not exist.
		GetByID(ctx context.Context, id uuid.UUID) (core.LedgerEntry, error)

		Update(ctx context.Context, e core.LedgerEntry) error
		Delete(ctx context.Context, id uuid.UUID) error

		// DeleteOccurrencesAfter removes every occurrence of the series
		// dated strictly after the given date and reports how many rows
		// were removed. The origin itself is never touched.
		DeleteOccurrencesAfter(ctx context.Context, parentID uuid.UUID, after core.Date) (int64, error)

		// OccurrenceExists checks the (parent, date) uniqueness index.
		OccurrenceExists(ctx context.Context, parentID uuid.UUID, date core.Date) (bool, error)

		// LatestOccurrenceDate returns the date of the most recent
		// occurrence of the series, or ok=false when none exist yet.
		LatestOccurrenceDate(ctx context.Context, parentID uuid.UUID) (core.Date, bool, error)

		// FindByOwnerAndDateRange returns the owner's entries dated in
		// [from, to], ordered by date ascending.
		FindByOwnerAndDateRange(ctx context.Context, owner uuid.UUID, from, to core.Date) ([]core.LedgerEntry, error)

		// FindByOwner returns all of the owner's entries ordered by date.
		FindByOwner(ctx context.Context, owner uuid.UUID) ([]core.LedgerEntry, error)

		// FindActiveFixedOrigins returns every fixed origin (nil parent)
		// with active=true, across all owners. Used by the horizon sweep.
		FindActiveFixedOrigins(ctx context.Context) ([]core.LedgerEntry, error)

		// FindOriginsByOwner returns the owner's series origins of the
		// given recurrence kind and active flag.
		FindOriginsByOwner(ctx context.Context, owner uuid.UUID, kind core.RecurrenceKind, active bool) ([]core.LedgerEntry, error)

		// SetActive toggles the pause flag on an origin.
		SetActive(ctx context.Context, id uuid.UUID, active bool) error
	}

	// CategoryStore resolves owner-scoped categories.
	CategoryStore interface {
		// GetByIDAndOwner returns core.ErrNotFound when the category does
		// not exist or belongs to a different owner.
		GetByIDAndOwner(ctx context.Context, id, owner uuid.UUID) (core.Category, error)

		ListByOwner(ctx context.Context, owner uuid.UUID) ([]core.Category, error)
	}

	// EventPublisher pushes entry lifecycle events to the export pipeline.
	// Publishing is best-effort and never fails the calling operation.
	EventPublisher interface {
		PublishEntrySync(ctx context.Context, id uuid.UUID) error
		PublishEntryDelete(ctx context.Context, id uuid.UUID) error
	}
)
