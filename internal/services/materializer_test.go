package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"financas/internal/core"
)

func fixedOrigin(date core.Date, freq core.Frequency) core.LedgerEntry {
	return core.LedgerEntry{
		ID:          uuid.New(),
		Description: "Rent",
		Amount:      decimal.NewFromInt(1200),
		Date:        date,
		Kind:        core.Expense,
		CategoryID:  uuid.New(),
		OwnerID:     uuid.New(),
		Recurrence:  core.FixedEvery(freq),
		Active:      true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
}

func installmentOrigin(date core.Date, count int) core.LedgerEntry {
	return core.LedgerEntry{
		ID:          uuid.New(),
		Description: "Sofa",
		Amount:      decimal.NewFromInt(300),
		Date:        date,
		Kind:        core.Expense,
		CategoryID:  uuid.New(),
		OwnerID:     uuid.New(),
		Recurrence:  core.InstallmentOf(1, count),
		Active:      true,
	}
}

func TestExpandInstallments(t *testing.T) {
	store := newMemStore()
	mat := NewMaterializer(store)
	origin := installmentOrigin(core.NewDate(2025, 1, 15), 3)

	series, err := mat.ExpandInstallments(context.Background(), origin, "Sofa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("expected 3 entries in series, got %d", len(series))
	}
	if store.count() != 3 {
		t.Fatalf("expected 3 persisted entries, got %d", store.count())
	}

	wantDates := []core.Date{
		core.NewDate(2025, 1, 15),
		core.NewDate(2025, 2, 15),
		core.NewDate(2025, 3, 15),
	}
	for i, e := range series {
		if !e.Date.Equal(wantDates[i]) {
			t.Errorf("installment %d dated %s, want %s", i+1, e.Date, wantDates[i])
		}
		if e.Recurrence.InstallmentIndex != i+1 {
			t.Errorf("installment %d has index %d", i+1, e.Recurrence.InstallmentIndex)
		}
		if e.Recurrence.InstallmentCount != 3 {
			t.Errorf("installment %d has count %d", i+1, e.Recurrence.InstallmentCount)
		}
		want := fmt.Sprintf("Sofa (%d/3)", i+1)
		if e.Description != want {
			t.Errorf("installment %d labeled %q, want %q", i+1, e.Description, want)
		}
	}

	if series[0].ParentID != nil {
		t.Error("origin must have nil parent")
	}
	for _, e := range series[1:] {
		if e.ParentID == nil || *e.ParentID != series[0].ID {
			t.Error("occurrence must reference origin as parent")
		}
	}
}

func TestExpandInstallmentsEndOfMonthClamp(t *testing.T) {
	store := newMemStore()
	mat := NewMaterializer(store)
	origin := installmentOrigin(core.NewDate(2025, 1, 31), 4)

	series, err := mat.ExpandInstallments(context.Background(), origin, "Sofa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantDates := []core.Date{
		core.NewDate(2025, 1, 31),
		core.NewDate(2025, 2, 28),
		core.NewDate(2025, 3, 31),
		core.NewDate(2025, 4, 30),
	}
	for i, e := range series {
		if !e.Date.Equal(wantDates[i]) {
			t.Errorf("installment %d dated %s, want %s", i+1, e.Date, wantDates[i])
		}
	}
}

func TestExpandInstallmentsAtomic(t *testing.T) {
	store := newMemStore()
	mat := NewMaterializer(store)
	origin := installmentOrigin(core.NewDate(2025, 1, 15), 5)
	store.failOccurrenceInsert[origin.ID] = true

	if _, err := mat.ExpandInstallments(context.Background(), origin, "Sofa"); err == nil {
		t.Fatal("expected batch failure")
	}
	if store.count() != 0 {
		t.Fatalf("failed expansion must persist nothing, found %d entries", store.count())
	}
}

func TestExpandInstallmentsRejectsWrongKind(t *testing.T) {
	mat := NewMaterializer(newMemStore())
	origin := fixedOrigin(core.NewDate(2025, 1, 1), core.Monthly)
	_, err := mat.ExpandInstallments(context.Background(), origin, "Rent")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtendFixedConcreteScenario(t *testing.T) {
	// Origin 2025-08-01 MONTHLY, horizon 2025-11-01: occurrences on
	// 2025-09-01, 2025-10-01, 2025-11-01; origin untouched.
	store := newMemStore()
	mat := NewMaterializer(store)
	origin := fixedOrigin(core.NewDate(2025, 8, 1), core.Monthly)
	if err := store.Insert(context.Background(), origin); err != nil {
		t.Fatal(err)
	}

	created, err := mat.ExtendFixed(context.Background(), origin, core.NewDate(2025, 11, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 3 {
		t.Fatalf("expected 3 occurrences, got %d", created)
	}

	occs := store.occurrencesOf(origin.ID)
	wantDates := []core.Date{
		core.NewDate(2025, 9, 1),
		core.NewDate(2025, 10, 1),
		core.NewDate(2025, 11, 1),
	}
	if len(occs) != len(wantDates) {
		t.Fatalf("expected %d occurrences, got %d", len(wantDates), len(occs))
	}
	for i, occ := range occs {
		if !occ.Date.Equal(wantDates[i]) {
			t.Errorf("occurrence %d dated %s, want %s", i, occ.Date, wantDates[i])
		}
	}

	stored, err := store.GetByID(context.Background(), origin.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Date.Equal(core.NewDate(2025, 8, 1)) {
		t.Errorf("origin date moved to %s", stored.Date)
	}
}

func TestExtendFixedIdempotent(t *testing.T) {
	store := newMemStore()
	mat := NewMaterializer(store)
	origin := fixedOrigin(core.NewDate(2025, 8, 1), core.Monthly)
	_ = store.Insert(context.Background(), origin)
	horizon := core.NewDate(2026, 8, 1)

	first, err := mat.ExtendFixed(context.Background(), origin, horizon)
	if err != nil {
		t.Fatal(err)
	}
	second, err := mat.ExtendFixed(context.Background(), origin, horizon)
	if err != nil {
		t.Fatal(err)
	}
	if second != 0 {
		t.Fatalf("second extension created %d occurrences, want 0 (first created %d)", second, first)
	}
}

func TestExtendFixedMonotonic(t *testing.T) {
	// Extending to H1 then H2 must equal extending directly to H2.
	h1 := core.NewDate(2025, 12, 1)
	h2 := core.NewDate(2026, 6, 1)

	stepped := newMemStore()
	mat := NewMaterializer(stepped)
	origin := fixedOrigin(core.NewDate(2025, 8, 15), core.Monthly)
	_ = stepped.Insert(context.Background(), origin)
	if _, err := mat.ExtendFixed(context.Background(), origin, h1); err != nil {
		t.Fatal(err)
	}
	if _, err := mat.ExtendFixed(context.Background(), origin, h2); err != nil {
		t.Fatal(err)
	}

	direct := newMemStore()
	mat2 := NewMaterializer(direct)
	origin2 := origin
	_ = direct.Insert(context.Background(), origin2)
	if _, err := mat2.ExtendFixed(context.Background(), origin2, h2); err != nil {
		t.Fatal(err)
	}

	a := stepped.occurrencesOf(origin.ID)
	b := direct.occurrencesOf(origin2.ID)
	if len(a) != len(b) {
		t.Fatalf("stepped produced %d occurrences, direct %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Date.Equal(b[i].Date) {
			t.Errorf("occurrence %d: stepped %s vs direct %s", i, a[i].Date, b[i].Date)
		}
	}
}

func TestExtendFixedResumesFromLatestOccurrence(t *testing.T) {
	store := newMemStore()
	mat := NewMaterializer(store)
	origin := fixedOrigin(core.NewDate(2025, 1, 10), core.Monthly)
	_ = store.Insert(context.Background(), origin)

	if _, err := mat.ExtendFixed(context.Background(), origin, core.NewDate(2025, 4, 10)); err != nil {
		t.Fatal(err)
	}
	before := len(store.occurrencesOf(origin.ID))

	created, err := mat.ExtendFixed(context.Background(), origin, core.NewDate(2025, 6, 10))
	if err != nil {
		t.Fatal(err)
	}
	if created != 2 {
		t.Fatalf("expected 2 new occurrences past the existing %d, got %d", before, created)
	}
	occs := store.occurrencesOf(origin.ID)
	last := occs[len(occs)-1]
	if !last.Date.Equal(core.NewDate(2025, 6, 10)) {
		t.Fatalf("last occurrence %s, want 2025-06-10", last.Date)
	}
}

func TestExtendFixedTreatsDuplicateAsSkip(t *testing.T) {
	store := newMemStore()
	mat := NewMaterializer(store)
	origin := fixedOrigin(core.NewDate(2025, 8, 1), core.Weekly)
	_ = store.Insert(context.Background(), origin)

	// Pre-insert one future occurrence out of order, as a racing
	// materialization would.
	parentID := origin.ID
	raced := origin
	raced.ID = uuid.New()
	raced.ParentID = &parentID
	raced.Date = core.NewDate(2025, 8, 15)
	if err := store.Insert(context.Background(), raced); err != nil {
		t.Fatal(err)
	}

	// Walk starts after the latest occurrence, so this extension begins at
	// 2025-08-22 and never conflicts; the raced row simply remains.
	if _, err := mat.ExtendFixed(context.Background(), origin, core.NewDate(2025, 9, 5)); err != nil {
		t.Fatal(err)
	}
	if exists, _ := store.OccurrenceExists(context.Background(), origin.ID, core.NewDate(2025, 8, 15)); !exists {
		t.Fatal("raced occurrence should remain")
	}
}
