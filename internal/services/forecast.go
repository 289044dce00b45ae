package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"financas/internal/core"
)

// ForecastEntry is a month-view row: either a persisted entry or a virtual
// projection of a fixed occurrence that has not been materialized yet.
// Virtual entries have a nil ID.
type ForecastEntry struct {
	core.LedgerEntry
	Virtual bool
}

// Forecaster answers "what entries exist or would exist for month M" by
// merging persisted entries with computed projections of active fixed series.
// It never writes, so it stays correct however far ahead the caller asks and
// whether or not the horizon sweep has run recently.
type Forecaster struct {
	store EntryStore
}

func NewForecaster(store EntryStore) *Forecaster {
	return &Forecaster{store: store}
}

// Month returns the owner's entries for (year, month), real and virtual,
// sorted ascending by date. A fixed occurrence that already exists as a real
// row is never duplicated by its virtual counterpart.
func (f *Forecaster) Month(ctx context.Context, owner uuid.UUID, year, month int) ([]ForecastEntry, error) {
	if month < 1 || month > 12 {
		return nil, invalid(fmt.Errorf("month %d out of range", month))
	}
	first, last := core.MonthBounds(year, month)

	real, err := f.store.FindByOwnerAndDateRange(ctx, owner, first, last)
	if err != nil {
		return nil, fmt.Errorf("find entries for month: %w", err)
	}

	origins, err := f.store.FindOriginsByOwner(ctx, owner, core.Fixed, true)
	if err != nil {
		return nil, fmt.Errorf("find fixed origins: %w", err)
	}

	result := make([]ForecastEntry, 0, len(real))
	for _, e := range real {
		result = append(result, ForecastEntry{LedgerEntry: e})
	}

	virtual := 0
	for _, origin := range origins {
		if origin.Date.After(last) {
			continue
		}
		candidate, ok := occurrenceInMonth(origin, first, last)
		if !ok {
			continue
		}
		if coveredByReal(real, origin.ID, candidate) {
			continue
		}
		result = append(result, ForecastEntry{
			LedgerEntry: f.project(origin, candidate),
			Virtual:     true,
		})
		virtual++
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	slog.DebugContext(ctx, "Forecast computed",
		"owner_id", owner,
		"year", year,
		"month", month,
		"real", len(real),
		"virtual", virtual)

	return result, nil
}

// occurrenceInMonth walks the series forward from its origin date until the
// computed date lands in [first, last] or passes it.
func occurrenceInMonth(origin core.LedgerEntry, first, last core.Date) (core.Date, bool) {
	d := origin.Date
	for d.Before(first) {
		d = origin.Recurrence.Frequency.Next(d)
	}
	if d.After(last) {
		return core.Date{}, false
	}
	return d, true
}

// coveredByReal reports whether the candidate date is already represented by
// a persisted row of the series: either a materialized occurrence or the
// origin itself, when the requested month is the origin's own month.
func coveredByReal(real []core.LedgerEntry, originID uuid.UUID, candidate core.Date) bool {
	for _, e := range real {
		if !e.Date.Equal(candidate) {
			continue
		}
		if e.ID == originID {
			return true
		}
		if e.ParentID != nil && *e.ParentID == originID {
			return true
		}
	}
	return false
}

// project synthesizes the unpersisted occurrence: origin fields, candidate
// date, nil id as the "not yet materialized" sentinel.
func (f *Forecaster) project(origin core.LedgerEntry, date core.Date) core.LedgerEntry {
	parentID := origin.ID
	occ := origin
	occ.ID = uuid.Nil
	occ.Date = date
	occ.ParentID = &parentID
	return occ
}
