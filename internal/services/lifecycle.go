package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"financas/internal/core"
)

// Lifecycle implements pause, resume and cancel on series origins. Every
// operation checks that the requester owns the origin before touching state;
// a foreign id surfaces as core.ErrForbidden with no further detail.
type Lifecycle struct {
	store EntryStore
}

func NewLifecycle(store EntryStore) *Lifecycle {
	return &Lifecycle{store: store}
}

// Pause stops horizon extension for a fixed origin. Existing occurrences are
// kept.
func (l *Lifecycle) Pause(ctx context.Context, owner, id uuid.UUID) (core.LedgerEntry, error) {
	return l.setActive(ctx, owner, id, false)
}

// Resume re-enables horizon extension. The next sweep or forecast picks up
// from the latest existing occurrence.
func (l *Lifecycle) Resume(ctx context.Context, owner, id uuid.UUID) (core.LedgerEntry, error) {
	return l.setActive(ctx, owner, id, true)
}

func (l *Lifecycle) setActive(ctx context.Context, owner, id uuid.UUID, active bool) (core.LedgerEntry, error) {
	origin, err := l.ownedOrigin(ctx, owner, id)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	if origin.Recurrence.Kind != core.Fixed {
		return core.LedgerEntry{}, invalid(core.ErrNotFixedOrigin)
	}

	if err := l.store.SetActive(ctx, id, active); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("set active: %w", err)
	}
	origin.Active = active

	slog.InfoContext(ctx, "Series active flag changed",
		"origin_id", id,
		"active", active)

	return origin, nil
}

// Cancel ends a series going forward: occurrences dated strictly after today
// are deleted, past occurrences and the origin are kept (history is
// immutable). A fixed origin is additionally paused so the sweep stops
// regenerating what was just removed.
func (l *Lifecycle) Cancel(ctx context.Context, owner, id uuid.UUID, today core.Date) (int64, error) {
	origin, err := l.ownedOrigin(ctx, owner, id)
	if err != nil {
		return 0, err
	}

	switch origin.Recurrence.Kind {
	case core.Installment:
		// nothing extra, just the future deletions below
	case core.Fixed:
		if err := l.store.SetActive(ctx, id, false); err != nil {
			return 0, fmt.Errorf("pause before cancel: %w", err)
		}
	default:
		return 0, invalid(core.ErrNotASeries)
	}

	deleted, err := l.store.DeleteOccurrencesAfter(ctx, id, today)
	if err != nil {
		return 0, fmt.Errorf("delete future occurrences: %w", err)
	}

	slog.InfoContext(ctx, "Series cancelled",
		"origin_id", id,
		"kind", origin.Recurrence.Kind,
		"deleted", deleted)

	return deleted, nil
}

func (l *Lifecycle) ownedOrigin(ctx context.Context, owner, id uuid.UUID) (core.LedgerEntry, error) {
	e, err := l.store.GetByID(ctx, id)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	if e.OwnerID != owner {
		return core.LedgerEntry{}, core.ErrForbidden
	}
	if e.ParentID != nil {
		return core.LedgerEntry{}, invalid(core.ErrNotSeriesOrigin)
	}
	return e, nil
}
