package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"financas/internal/core"
)

// Materializer expands a series origin into its child occurrences. It is the
// single place that dispatches on the recurrence kind; callers hold an origin
// and ask for installments or for a horizon extension, never both.
type Materializer struct {
	store EntryStore
}

func NewMaterializer(store EntryStore) *Materializer {
	return &Materializer{store: store}
}

// ExpandInstallments persists an installment series whole: the origin
// (installment 1, labeled "(1/N)") together with occurrences 2..N, dated one
// calendar month apart, in a single atomic batch. Either the full series
// exists afterwards or nothing does. base is the unlabeled description shared
// by the series; the returned slice is the whole series, origin first.
func (m *Materializer) ExpandInstallments(ctx context.Context, origin core.LedgerEntry, base string) ([]core.LedgerEntry, error) {
	rec := origin.Recurrence
	if rec.Kind != core.Installment {
		return nil, invalid(fmt.Errorf("expand installments on %s entry", rec.Kind))
	}
	if origin.ParentID != nil {
		return nil, invalid(core.ErrNotSeriesOrigin)
	}
	if rec.InstallmentIndex != 1 {
		return nil, invalid(core.ErrInstallmentIndex)
	}
	if err := rec.Validate(); err != nil {
		return nil, invalid(err)
	}

	now := time.Now().UTC()
	series := make([]core.LedgerEntry, 0, rec.InstallmentCount)
	origin.Description = installmentLabel(base, 1, rec.InstallmentCount)
	series = append(series, origin)

	parentID := origin.ID
	for i := 2; i <= rec.InstallmentCount; i++ {
		occ := origin
		occ.ID = uuid.New()
		occ.Description = installmentLabel(base, i, rec.InstallmentCount)
		occ.Date = origin.Date.AddMonths(i - 1)
		occ.Recurrence = core.InstallmentOf(i, rec.InstallmentCount)
		occ.ParentID = &parentID
		occ.CreatedAt = now
		occ.UpdatedAt = now
		series = append(series, occ)
	}

	if err := m.store.InsertBatch(ctx, series); err != nil {
		return nil, fmt.Errorf("insert installment series: %w", err)
	}

	slog.InfoContext(ctx, "Installment series created",
		"origin_id", origin.ID,
		"installments", rec.InstallmentCount,
		"first_date", origin.Date.String(),
		"last_date", series[len(series)-1].Date.String())

	return series, nil
}

// ExtendFixed walks a fixed series forward and creates every missing
// occurrence dated on or before horizon. It starts from the later of the
// origin's date and the latest existing occurrence, checks existence before
// each insert, and treats a uniqueness conflict as "already exists". Running
// it twice with the same horizon therefore creates nothing the second time.
func (m *Materializer) ExtendFixed(ctx context.Context, origin core.LedgerEntry, horizon core.Date) (int, error) {
	rec := origin.Recurrence
	if rec.Kind != core.Fixed {
		return 0, invalid(fmt.Errorf("extend horizon on %s entry", rec.Kind))
	}
	if origin.ParentID != nil {
		return 0, invalid(core.ErrNotSeriesOrigin)
	}
	if !rec.Frequency.Valid() {
		return 0, invalid(core.ErrMissingFrequency)
	}

	cursor := origin.Date
	if latest, ok, err := m.store.LatestOccurrenceDate(ctx, origin.ID); err != nil {
		return 0, fmt.Errorf("find latest occurrence: %w", err)
	} else if ok && latest.After(cursor) {
		cursor = latest
	}

	created := 0
	for next := rec.Frequency.Next(cursor); !next.After(horizon); next = rec.Frequency.Next(next) {
		exists, err := m.store.OccurrenceExists(ctx, origin.ID, next)
		if err != nil {
			return created, fmt.Errorf("check occurrence %s: %w", next, err)
		}
		if exists {
			continue
		}

		occ := m.fixedOccurrence(origin, next)
		if err := m.store.Insert(ctx, occ); err != nil {
			if errors.Is(err, core.ErrDuplicateOccurrence) {
				// Lost a race with a concurrent materialization of the
				// same origin. The row exists, which is all we wanted.
				slog.DebugContext(ctx, "Occurrence insert raced, skipping",
					"origin_id", origin.ID, "date", next.String())
				continue
			}
			return created, fmt.Errorf("insert occurrence %s: %w", next, err)
		}
		created++
	}

	if created > 0 {
		slog.InfoContext(ctx, "Fixed series extended",
			"origin_id", origin.ID,
			"frequency", rec.Frequency,
			"created", created,
			"horizon", horizon.String())
	}

	return created, nil
}

func (m *Materializer) fixedOccurrence(origin core.LedgerEntry, date core.Date) core.LedgerEntry {
	now := time.Now().UTC()
	parentID := origin.ID
	occ := origin
	occ.ID = uuid.New()
	occ.Date = date
	occ.ParentID = &parentID
	occ.Active = true
	occ.CreatedAt = now
	occ.UpdatedAt = now
	return occ
}

func installmentLabel(base string, index, count int) string {
	return fmt.Sprintf("%s (%d/%d)", base, index, count)
}
