package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// EntryService orchestrates ledger-entry operations: creation routed by
// recurrence kind, owner-scoped reads and updates, and best-effort export
// events. The events publisher may be nil; the ledger is the source of truth
// and the export worker recovers missed messages from its pending sweep.
type EntryService struct {
	entries      EntryStore
	categories   CategoryStore
	events       EventPublisher
	materializer *Materializer
}

func NewEntryService(entries EntryStore, categories CategoryStore, events EventPublisher, materializer *Materializer) *EntryService {
	return &EntryService{
		entries:      entries,
		categories:   categories,
		events:       events,
		materializer: materializer,
	}
}

// CreateEntryInput carries the user-entered fields of a new entry. For
// Recurrence only the kind and its own parameters matter: InstallmentCount
// for installment series, Frequency for fixed series.
type CreateEntryInput struct {
	Description string
	Amount      decimal.Decimal
	Date        core.Date
	Kind        core.Kind
	Notes       string
	CategoryID  uuid.UUID
	Recurrence  core.Recurrence
}

// Create validates the input against the owner's category and routes on the
// recurrence kind: a standalone insert, an atomic installment expansion, or a
// fixed origin insert followed by eager materialization to the rolling
// horizon. Validation failures reject the request before any write.
func (s *EntryService) Create(ctx context.Context, owner uuid.UUID, in CreateEntryInput) (core.LedgerEntry, error) {
	category, err := s.categories.GetByIDAndOwner(ctx, in.CategoryID, owner)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("resolve category: %w", err)
	}
	if !category.Accepts(in.Kind) {
		return core.LedgerEntry{}, invalid(core.ErrCategoryMismatch)
	}

	switch in.Recurrence.Kind {
	case core.None, "":
		return s.createStandalone(ctx, owner, in)
	case core.Installment:
		return s.createInstallments(ctx, owner, in)
	case core.Fixed:
		return s.createFixed(ctx, owner, in)
	default:
		return core.LedgerEntry{}, invalid(fmt.Errorf("unknown recurrence kind %q", in.Recurrence.Kind))
	}
}

func (s *EntryService) createStandalone(ctx context.Context, owner uuid.UUID, in CreateEntryInput) (core.LedgerEntry, error) {
	entry := s.newEntry(owner, in)
	entry.Recurrence = core.NoRecurrence()
	if err := entry.Validate(); err != nil {
		return core.LedgerEntry{}, invalid(err)
	}

	if err := s.entries.Insert(ctx, entry); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("insert entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry created",
		"id", entry.ID,
		"kind", entry.Kind,
		"date", entry.Date.String())

	s.publishSync(ctx, entry.ID)
	return entry, nil
}

func (s *EntryService) createInstallments(ctx context.Context, owner uuid.UUID, in CreateEntryInput) (core.LedgerEntry, error) {
	origin := s.newEntry(owner, in)
	origin.Recurrence = core.InstallmentOf(1, in.Recurrence.InstallmentCount)
	if err := origin.Validate(); err != nil {
		return core.LedgerEntry{}, invalid(err)
	}

	series, err := s.materializer.ExpandInstallments(ctx, origin, in.Description)
	if err != nil {
		return core.LedgerEntry{}, err
	}

	slog.InfoContext(ctx, "Installment entry created",
		"origin_id", series[0].ID,
		"installments", len(series))

	for _, e := range series {
		s.publishSync(ctx, e.ID)
	}
	return series[0], nil
}

func (s *EntryService) createFixed(ctx context.Context, owner uuid.UUID, in CreateEntryInput) (core.LedgerEntry, error) {
	origin := s.newEntry(owner, in)
	origin.Recurrence = core.FixedEvery(in.Recurrence.Frequency)
	origin.Active = true
	if err := origin.Validate(); err != nil {
		return core.LedgerEntry{}, invalid(err)
	}

	if err := s.entries.Insert(ctx, origin); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("insert fixed origin: %w", err)
	}

	// Eager pre-materialization to the rolling horizon, so month navigation
	// sees real rows immediately. The daily sweep keeps the window full
	// afterwards; a failure here just leaves work for it.
	horizon := origin.Date.AddMonths(DefaultHorizonMonths)
	created, err := s.materializer.ExtendFixed(ctx, origin, horizon)
	if err != nil {
		slog.WarnContext(ctx, "Eager materialization incomplete, sweep will complement",
			"origin_id", origin.ID,
			"created", created,
			"error", err)
	}

	slog.InfoContext(ctx, "Fixed entry created",
		"origin_id", origin.ID,
		"frequency", origin.Recurrence.Frequency,
		"occurrences", created)

	s.publishSync(ctx, origin.ID)
	return origin, nil
}

func (s *EntryService) newEntry(owner uuid.UUID, in CreateEntryInput) core.LedgerEntry {
	now := time.Now().UTC()
	return core.LedgerEntry{
		ID:          uuid.New(),
		Description: in.Description,
		Amount:      in.Amount,
		Date:        in.Date,
		Kind:        in.Kind,
		Notes:       in.Notes,
		CategoryID:  in.CategoryID,
		OwnerID:     owner,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// List returns the owner's entries, restricted to [from, to] when both are
// given, ordered by date ascending.
func (s *EntryService) List(ctx context.Context, owner uuid.UUID, from, to *core.Date) ([]core.LedgerEntry, error) {
	if from != nil && to != nil {
		return s.entries.FindByOwnerAndDateRange(ctx, owner, *from, *to)
	}
	return s.entries.FindByOwner(ctx, owner)
}

// Get fetches one entry, rejecting ids owned by someone else.
func (s *EntryService) Get(ctx context.Context, owner, id uuid.UUID) (core.LedgerEntry, error) {
	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	if e.OwnerID != owner {
		return core.LedgerEntry{}, core.ErrForbidden
	}
	return e, nil
}

// UpdateEntryInput lists the fields an update may change; nil means "keep".
// The recurrence parameters of a series are immutable after creation, so they
// are deliberately absent.
type UpdateEntryInput struct {
	Description *string
	Amount      *decimal.Decimal
	Date        *core.Date
	Notes       *string
	CategoryID  *uuid.UUID
}

// Update applies a field-wise patch to an owned entry. A category change is
// re-validated against the entry's kind.
func (s *EntryService) Update(ctx context.Context, owner, id uuid.UUID, in UpdateEntryInput) (core.LedgerEntry, error) {
	e, err := s.Get(ctx, owner, id)
	if err != nil {
		return core.LedgerEntry{}, err
	}

	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Amount != nil {
		e.Amount = *in.Amount
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	if in.Notes != nil {
		e.Notes = *in.Notes
	}
	if in.CategoryID != nil {
		category, err := s.categories.GetByIDAndOwner(ctx, *in.CategoryID, owner)
		if err != nil {
			return core.LedgerEntry{}, fmt.Errorf("resolve category: %w", err)
		}
		if !category.Accepts(e.Kind) {
			return core.LedgerEntry{}, invalid(core.ErrCategoryMismatch)
		}
		e.CategoryID = category.ID
	}

	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, invalid(err)
	}

	e.UpdatedAt = time.Now().UTC()
	if err := s.entries.Update(ctx, e); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("update entry: %w", err)
	}

	s.publishSync(ctx, e.ID)
	return e, nil
}

// Delete removes a single owned entry.
func (s *EntryService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}
	if err := s.entries.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry deleted", "id", id)
	s.publishDelete(ctx, id)
	return nil
}

// Summary totals the owner's income and expense, optionally over [from, to].
func (s *EntryService) Summary(ctx context.Context, owner uuid.UUID, from, to *core.Date) (core.Summary, error) {
	entries, err := s.List(ctx, owner, from, to)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(entries), nil
}

// Categories lists the owner's categories for the presentation boundary.
func (s *EntryService) Categories(ctx context.Context, owner uuid.UUID) ([]core.Category, error) {
	return s.categories.ListByOwner(ctx, owner)
}

func (s *EntryService) publishSync(ctx context.Context, id uuid.UUID) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEntrySync(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry sync message",
			"id", id, "error", err)
	}
}

func (s *EntryService) publishDelete(ctx context.Context, id uuid.UUID) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEntryDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry delete message",
			"id", id, "error", err)
	}
}
