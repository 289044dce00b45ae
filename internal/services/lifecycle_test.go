package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"financas/internal/core"
)

func TestPauseAndResume(t *testing.T) {
	store := newMemStore()
	lc := NewLifecycle(store)
	origin := fixedOrigin(core.NewDate(2025, 8, 1), core.Monthly)
	_ = store.Insert(context.Background(), origin)

	paused, err := lc.Pause(context.Background(), origin.OwnerID, origin.ID)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused.Active {
		t.Fatal("pause must clear the active flag")
	}
	stored, _ := store.GetByID(context.Background(), origin.ID)
	if stored.Active {
		t.Fatal("pause not persisted")
	}

	resumed, err := lc.Resume(context.Background(), origin.OwnerID, origin.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !resumed.Active {
		t.Fatal("resume must set the active flag")
	}
}

func TestPauseRejectsNonFixed(t *testing.T) {
	store := newMemStore()
	lc := NewLifecycle(store)
	origin := installmentOrigin(core.NewDate(2025, 8, 1), 3)
	_ = store.Insert(context.Background(), origin)

	_, err := lc.Pause(context.Background(), origin.OwnerID, origin.ID)
	if !errors.Is(err, core.ErrNotFixedOrigin) {
		t.Fatalf("expected ErrNotFixedOrigin, got %v", err)
	}
}

func TestPauseRejectsForeignOwner(t *testing.T) {
	store := newMemStore()
	lc := NewLifecycle(store)
	origin := fixedOrigin(core.NewDate(2025, 8, 1), core.Monthly)
	_ = store.Insert(context.Background(), origin)

	_, err := lc.Pause(context.Background(), uuid.New(), origin.ID)
	if !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPauseRejectsOccurrence(t *testing.T) {
	store := newMemStore()
	mat := NewMaterializer(store)
	lc := NewLifecycle(store)
	origin := fixedOrigin(core.NewDate(2025, 8, 1), core.Monthly)
	_ = store.Insert(context.Background(), origin)
	if _, err := mat.ExtendFixed(context.Background(), origin, core.NewDate(2025, 10, 1)); err != nil {
		t.Fatal(err)
	}
	occ := store.occurrencesOf(origin.ID)[0]

	_, err := lc.Pause(context.Background(), origin.OwnerID, occ.ID)
	if !errors.Is(err, core.ErrNotSeriesOrigin) {
		t.Fatalf("expected ErrNotSeriesOrigin, got %v", err)
	}
}

func TestPauseUnknownID(t *testing.T) {
	lc := NewLifecycle(newMemStore())
	_, err := lc.Pause(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelInstallmentSeries(t *testing.T) {
	// 2 past and 3 future occurrences: cancel deletes exactly the future
	// ones and keeps past history and the origin.
	store := newMemStore()
	mat := NewMaterializer(store)
	lc := NewLifecycle(store)

	origin := installmentOrigin(core.NewDate(2025, 4, 15), 6)
	series, err := mat.ExpandInstallments(context.Background(), origin, "Sofa")
	if err != nil {
		t.Fatal(err)
	}
	originID := series[0].ID

	today := core.NewDate(2025, 6, 20) // installments 1-3 are past, 4-6 future
	deleted, err := lc.Cancel(context.Background(), origin.OwnerID, originID, today)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted occurrences, got %d", deleted)
	}

	remaining := store.occurrencesOf(originID)
	if len(remaining) != 2 {
		t.Fatalf("expected 2 past occurrences to remain, got %d", len(remaining))
	}
	for _, occ := range remaining {
		if occ.Date.After(today) {
			t.Errorf("future occurrence %s survived cancellation", occ.Date)
		}
	}
	if _, err := store.GetByID(context.Background(), originID); err != nil {
		t.Fatal("origin must survive cancellation")
	}
}

func TestCancelFixedSeriesPausesAndDeletesFuture(t *testing.T) {
	store := newMemStore()
	mat := NewMaterializer(store)
	lc := NewLifecycle(store)

	origin := fixedOrigin(core.NewDate(2025, 5, 1), core.Monthly)
	_ = store.Insert(context.Background(), origin)
	if _, err := mat.ExtendFixed(context.Background(), origin, core.NewDate(2025, 12, 1)); err != nil {
		t.Fatal(err)
	}

	today := core.NewDate(2025, 8, 15)
	deleted, err := lc.Cancel(context.Background(), origin.OwnerID, origin.ID, today)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 4 { // Sep, Oct, Nov, Dec
		t.Fatalf("expected 4 deleted occurrences, got %d", deleted)
	}

	stored, _ := store.GetByID(context.Background(), origin.ID)
	if stored.Active {
		t.Fatal("cancel must pause a fixed origin")
	}
	for _, occ := range store.occurrencesOf(origin.ID) {
		if occ.Date.After(today) {
			t.Errorf("future occurrence %s survived cancellation", occ.Date)
		}
	}
}

func TestCancelRejectsStandalone(t *testing.T) {
	store := newMemStore()
	lc := NewLifecycle(store)
	e := installmentOrigin(core.NewDate(2025, 8, 1), 3)
	e.Recurrence = core.NoRecurrence()
	_ = store.Insert(context.Background(), e)

	_, err := lc.Cancel(context.Background(), e.OwnerID, e.ID, core.NewDate(2025, 8, 15))
	if !errors.Is(err, core.ErrNotASeries) {
		t.Fatalf("expected ErrNotASeries, got %v", err)
	}
}
