package services

import (
	"context"
	"testing"

	"financas/internal/core"
)

func TestHorizonJobExtendsAllActiveOrigins(t *testing.T) {
	store := newMemStore()
	job := NewHorizonJob(store, NewMaterializer(store), 4)

	rent := fixedOrigin(core.NewDate(2025, 8, 1), core.Monthly)
	salary := fixedOrigin(core.NewDate(2025, 7, 5), core.Monthly)
	salary.Kind = core.Income
	_ = store.Insert(context.Background(), rent)
	_ = store.Insert(context.Background(), salary)

	created, err := job.Run(context.Background(), core.NewDate(2025, 8, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == 0 {
		t.Fatal("expected occurrences to be created")
	}

	// Each origin's last occurrence must not be before today+12m minus one
	// step, and never past the horizon.
	horizon := core.NewDate(2026, 8, 30)
	for _, origin := range []core.LedgerEntry{rent, salary} {
		occs := store.occurrencesOf(origin.ID)
		if len(occs) == 0 {
			t.Fatalf("origin %s got no occurrences", origin.Description)
		}
		last := occs[len(occs)-1]
		if last.Date.After(horizon) {
			t.Errorf("origin %s materialized past the horizon: %s", origin.Description, last.Date)
		}
		if horizon.AddMonths(-1).After(last.Date) {
			t.Errorf("origin %s underfilled: last occurrence %s", origin.Description, last.Date)
		}
	}
}

func TestHorizonJobIdempotent(t *testing.T) {
	store := newMemStore()
	job := NewHorizonJob(store, NewMaterializer(store), 2)
	origin := fixedOrigin(core.NewDate(2025, 8, 1), core.Monthly)
	_ = store.Insert(context.Background(), origin)

	today := core.NewDate(2025, 8, 30)
	if _, err := job.Run(context.Background(), today); err != nil {
		t.Fatal(err)
	}
	second, err := job.Run(context.Background(), today)
	if err != nil {
		t.Fatal(err)
	}
	if second != 0 {
		t.Fatalf("second sweep created %d occurrences, want 0", second)
	}
}

func TestHorizonJobSkipsPausedOrigins(t *testing.T) {
	store := newMemStore()
	job := NewHorizonJob(store, NewMaterializer(store), 2)
	origin := fixedOrigin(core.NewDate(2025, 8, 1), core.Monthly)
	origin.Active = false
	_ = store.Insert(context.Background(), origin)

	created, err := job.Run(context.Background(), core.NewDate(2025, 8, 30))
	if err != nil {
		t.Fatal(err)
	}
	if created != 0 {
		t.Fatalf("paused origin produced %d occurrences", created)
	}
	if len(store.occurrencesOf(origin.ID)) != 0 {
		t.Fatal("paused origin must not be extended")
	}
}

func TestHorizonJobResumeContinuesFromLatest(t *testing.T) {
	store := newMemStore()
	job := NewHorizonJob(store, NewMaterializer(store), 2)
	origin := fixedOrigin(core.NewDate(2025, 1, 1), core.Monthly)
	_ = store.Insert(context.Background(), origin)

	today := core.NewDate(2025, 1, 15)
	if _, err := job.Run(context.Background(), today); err != nil {
		t.Fatal(err)
	}
	occsBefore := store.occurrencesOf(origin.ID)

	_ = store.SetActive(context.Background(), origin.ID, false)
	if created, _ := job.Run(context.Background(), today.AddMonths(2)); created != 0 {
		t.Fatalf("paused sweep created %d occurrences", created)
	}

	_ = store.SetActive(context.Background(), origin.ID, true)
	if _, err := job.Run(context.Background(), today.AddMonths(2)); err != nil {
		t.Fatal(err)
	}
	occsAfter := store.occurrencesOf(origin.ID)
	if len(occsAfter) <= len(occsBefore) {
		t.Fatal("resume should extend past the earlier horizon")
	}
	// No gaps, no duplicates: consecutive dates exactly one month apart.
	for i := 1; i < len(occsAfter); i++ {
		if !occsAfter[i].Date.Equal(occsAfter[i-1].Date.AddMonths(1)) {
			t.Fatalf("gap or duplicate between %s and %s", occsAfter[i-1].Date, occsAfter[i].Date)
		}
	}
}

func TestHorizonJobIsolatesPerOriginFailures(t *testing.T) {
	store := newMemStore()
	job := NewHorizonJob(store, NewMaterializer(store), 1)

	broken := fixedOrigin(core.NewDate(2025, 8, 1), core.Monthly)
	healthy := fixedOrigin(core.NewDate(2025, 8, 2), core.Monthly)
	_ = store.Insert(context.Background(), broken)
	_ = store.Insert(context.Background(), healthy)
	store.failOccurrenceInsert[broken.ID] = true

	created, err := job.Run(context.Background(), core.NewDate(2025, 8, 30))
	if err != nil {
		t.Fatalf("sweep must not fail on a single origin: %v", err)
	}
	if created == 0 {
		t.Fatal("healthy origin should still be extended")
	}
	if len(store.occurrencesOf(healthy.ID)) == 0 {
		t.Fatal("healthy origin got no occurrences")
	}
}
