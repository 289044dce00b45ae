package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/services"
)

// recurrencePayload mirrors core.Recurrence on the wire. Only the fields of
// the active kind are populated.
type recurrencePayload struct {
	Kind             string `json:"kind"`
	InstallmentCount int    `json:"installment_count,omitempty"`
	InstallmentIndex int    `json:"installment_index,omitempty"`
	Frequency        string `json:"frequency,omitempty"`
}

type createEntryRequest struct {
	Description string             `json:"description"`
	Amount      decimal.Decimal    `json:"amount"`
	Date        string             `json:"date"`
	Kind        string             `json:"kind"`
	Notes       string             `json:"notes"`
	CategoryID  uuid.UUID          `json:"category_id"`
	Recurrence  *recurrencePayload `json:"recurrence,omitempty"`
}

// updateEntryRequest patches an entry; absent fields keep their value.
type updateEntryRequest struct {
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *string          `json:"date"`
	Notes       *string          `json:"notes"`
	CategoryID  *uuid.UUID       `json:"category_id"`
}

// entryResponse is the wire shape of a ledger entry. ID is a pointer so that
// virtual forecast rows, which have no persisted identity, serialize as null.
type entryResponse struct {
	ID          *uuid.UUID        `json:"id"`
	Description string            `json:"description"`
	Amount      decimal.Decimal   `json:"amount"`
	Date        string            `json:"date"`
	Kind        string            `json:"kind"`
	Notes       string            `json:"notes,omitempty"`
	CategoryID  uuid.UUID         `json:"category_id"`
	Recurrence  recurrencePayload `json:"recurrence"`
	ParentID    *uuid.UUID        `json:"parent_id,omitempty"`
	Active      bool              `json:"active"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type forecastEntryResponse struct {
	entryResponse
	Virtual bool `json:"virtual"`
}

type summaryResponse struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
}

type categoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Kind string    `json:"kind"`
}

type cancelResponse struct {
	Deleted int64 `json:"deleted"`
}

type runJobResponse struct {
	Created int `json:"created"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toEntryResponse(e core.LedgerEntry) entryResponse {
	resp := entryResponse{
		Description: e.Description,
		Amount:      e.Amount,
		Date:        e.Date.String(),
		Kind:        string(e.Kind),
		Notes:       e.Notes,
		CategoryID:  e.CategoryID,
		Recurrence: recurrencePayload{
			Kind:             string(e.Recurrence.Kind),
			InstallmentCount: e.Recurrence.InstallmentCount,
			InstallmentIndex: e.Recurrence.InstallmentIndex,
			Frequency:        string(e.Recurrence.Frequency),
		},
		ParentID:  e.ParentID,
		Active:    e.Active,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.ID != uuid.Nil {
		id := e.ID
		resp.ID = &id
	}
	return resp
}

func toEntryResponses(entries []core.LedgerEntry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}

func toForecastResponses(entries []services.ForecastEntry) []forecastEntryResponse {
	out := make([]forecastEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, forecastEntryResponse{
			entryResponse: toEntryResponse(e.LedgerEntry),
			Virtual:       e.Virtual,
		})
	}
	return out
}

func toCategoryResponses(categories []core.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{
			ID:   c.ID,
			Name: c.Name,
			Kind: string(c.Kind),
		})
	}
	return out
}
