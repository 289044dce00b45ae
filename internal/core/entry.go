package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the direction of a ledger entry. The stored amount is always
// positive; the sign is derived from the kind.
type Kind string

const (
	Income  Kind = "INCOME"
	Expense Kind = "EXPENSE"
)

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// RecurrenceKind tags the recurrence union.
type RecurrenceKind string

const (
	None        RecurrenceKind = "NONE"
	Installment RecurrenceKind = "INSTALLMENT"
	Fixed       RecurrenceKind = "FIXED"
)

const (
	MinInstallments = 2
	MaxInstallments = 60
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = errors.New("description too long (max 100 characters)")
	ErrDescriptionTooShort = errors.New("description too short (min 2 characters)")
	ErrNotesTooLong        = errors.New("notes too long (max 500 characters)")
	ErrInvalidKind         = errors.New("invalid entry kind")
	ErrInstallmentCount    = fmt.Errorf("installment count must be between %d and %d", MinInstallments, MaxInstallments)
	ErrInstallmentIndex    = errors.New("installment index out of range")
	ErrMissingFrequency    = errors.New("frequency is required for fixed entries")
	ErrCategoryMismatch    = errors.New("entry kind must match category kind")
)

// Recurrence is a tagged union over the three recurrence kinds. Only the
// fields belonging to the active kind are meaningful.
type Recurrence struct {
	Kind RecurrenceKind

	// Installment only. Count is fixed at series creation; Index is 1 for
	// the origin and 2..Count for generated occurrences.
	InstallmentCount int
	InstallmentIndex int

	// Fixed only.
	Frequency Frequency
}

// NoRecurrence is the zero series: a standalone entry.
func NoRecurrence() Recurrence {
	return Recurrence{Kind: None}
}

// InstallmentOf builds the recurrence for installment index of count.
func InstallmentOf(index, count int) Recurrence {
	return Recurrence{Kind: Installment, InstallmentCount: count, InstallmentIndex: index}
}

// FixedEvery builds the recurrence for an unbounded series with the given
// cadence.
func FixedEvery(f Frequency) Recurrence {
	return Recurrence{Kind: Fixed, Frequency: f}
}

func (r Recurrence) Validate() error {
	switch r.Kind {
	case None:
		return nil
	case Installment:
		if r.InstallmentCount < MinInstallments || r.InstallmentCount > MaxInstallments {
			return ErrInstallmentCount
		}
		if r.InstallmentIndex < 1 || r.InstallmentIndex > r.InstallmentCount {
			return ErrInstallmentIndex
		}
		return nil
	case Fixed:
		if !r.Frequency.Valid() {
			return ErrMissingFrequency
		}
		return nil
	}
	return fmt.Errorf("unknown recurrence kind %q", string(r.Kind))
}

// LedgerEntry is the unit of the domain: a single dated income or expense
// record, optionally part of a recurring series.
type LedgerEntry struct {
	ID          uuid.UUID
	Description string
	Amount      decimal.Decimal
	Date        Date
	Kind        Kind
	Notes       string
	CategoryID  uuid.UUID
	OwnerID     uuid.UUID
	Recurrence  Recurrence

	// ParentID is nil for the origin of a series and set to the origin's
	// id for every generated occurrence. Chains never exceed depth 1.
	ParentID *uuid.UUID

	// Active is meaningful only on fixed origins; false pauses horizon
	// extension.
	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e LedgerEntry) Validate() error {
	desc := strings.TrimSpace(e.Description)
	if desc == "" {
		return ErrEmptyDescription
	}
	if len(desc) < 2 {
		return ErrDescriptionTooShort
	}
	if len(e.Description) > 100 {
		return ErrDescriptionTooLong
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if len(e.Notes) > 500 {
		return ErrNotesTooLong
	}
	if e.CategoryID == uuid.Nil {
		return errors.New("category is required")
	}
	if e.OwnerID == uuid.Nil {
		return errors.New("owner is required")
	}
	return e.Recurrence.Validate()
}

// IsOrigin reports whether e is the authoritative definition of a series.
func (e LedgerEntry) IsOrigin() bool {
	return e.ParentID == nil && e.Recurrence.Kind != None
}

// SignedAmount returns the amount negated for expenses.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Kind == Expense {
		return e.Amount.Neg()
	}
	return e.Amount
}
