package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/services"
)

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	in := services.CreateEntryInput{
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
		Kind:        core.Kind(req.Kind),
		Notes:       req.Notes,
		CategoryID:  req.CategoryID,
	}
	if req.Recurrence != nil {
		in.Recurrence = core.Recurrence{
			Kind:             core.RecurrenceKind(req.Recurrence.Kind),
			InstallmentCount: req.Recurrence.InstallmentCount,
			Frequency:        core.Frequency(req.Recurrence.Frequency),
		}
	}

	entry, err := s.entries.Create(r.Context(), ownerFrom(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRangeParams(w, r)
	if !ok {
		return
	}

	entries, err := s.entries.List(r.Context(), ownerFrom(r.Context()), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponses(entries))
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	entry, err := s.entries.Get(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	in := services.UpdateEntryInput{
		Description: req.Description,
		Amount:      req.Amount,
		Notes:       req.Notes,
		CategoryID:  req.CategoryID,
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
			return
		}
		in.Date = &date
	}

	entry, err := s.entries.Update(r.Context(), ownerFrom(r.Context()), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := s.entries.Delete(r.Context(), ownerFrom(r.Context()), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRangeParams(w, r)
	if !ok {
		return
	}

	summary, err := s.entries.Summary(r.Context(), ownerFrom(r.Context()), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		TotalIncome:  summary.TotalIncome,
		TotalExpense: summary.TotalExpense,
		Balance:      summary.Balance,
	})
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be an integer")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be an integer")
		return
	}

	entries, err := s.forecasts.Month(r.Context(), ownerFrom(r.Context()), year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toForecastResponses(entries))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.entries.Categories(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponses(categories))
}

func (s *Server) handlePauseSeries(w http.ResponseWriter, r *http.Request) {
	s.setSeriesActive(w, r, false)
}

func (s *Server) handleResumeSeries(w http.ResponseWriter, r *http.Request) {
	s.setSeriesActive(w, r, true)
}

func (s *Server) setSeriesActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var (
		origin core.LedgerEntry
		err    error
	)
	if active {
		origin, err = s.lifecycle.Resume(r.Context(), ownerFrom(r.Context()), id)
	} else {
		origin, err = s.lifecycle.Pause(r.Context(), ownerFrom(r.Context()), id)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(origin))
}

func (s *Server) handleCancelSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	deleted, err := s.lifecycle.Cancel(r.Context(), ownerFrom(r.Context()), id, core.DateOf(time.Now()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{Deleted: deleted})
}

// handleRunHorizonJob triggers the maintenance sweep on demand, the same
// sweep the worker runs on its schedule. Useful after imports and in tests.
func (s *Server) handleRunHorizonJob(w http.ResponseWriter, r *http.Request) {
	created, err := s.horizon.Run(r.Context(), core.DateOf(time.Now()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runJobResponse{Created: created})
}

func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// dateRangeParams reads the optional from/to query pair. The two come
// together or not at all.
func dateRangeParams(w http.ResponseWriter, r *http.Request) (*core.Date, *core.Date, bool) {
	rawFrom := r.URL.Query().Get("from")
	rawTo := r.URL.Query().Get("to")
	if rawFrom == "" && rawTo == "" {
		return nil, nil, true
	}
	if rawFrom == "" || rawTo == "" {
		writeError(w, http.StatusBadRequest, "from and to must be provided together")
		return nil, nil, false
	}

	from, err := core.ParseDate(rawFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be formatted as YYYY-MM-DD")
		return nil, nil, false
	}
	to, err := core.ParseDate(rawTo)
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be formatted as YYYY-MM-DD")
		return nil, nil, false
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not precede from")
		return nil, nil, false
	}
	return &from, &to, true
}
