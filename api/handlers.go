/*
handlers.go - HTTP API handlers for the timecard engine

PURPOSE:
  Exposes the timecard engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every rule decision to the hours
  package.

ENDPOINTS:
  Reporting periods:
    GET    /api/periods                       Bucketed period list
    POST   /api/periods                       Create period (admin)
    GET    /api/periods/{start}/projects      Selectable projects

  Timecards:
    GET    /api/periods/{start}/timecard      Open (get-or-create) a card
    POST   /api/periods/{start}/timecard      Save entries
    POST   /api/periods/{start}/timecard/submit

  Reports:
    GET    /api/reports/periods/{start}.csv   Submitted-hours CSV export

TIME:
  Rule decisions use an explicit "as of" date: the as_of query parameter
  when present, otherwise today. This keeps the amendable-window logic
  testable without a frozen clock.

ERROR HANDLING:
  - 400: malformed input, hour-bound validation failures
  - 403: submitted card outside the amendable window (clients fall back
         to the read-only detail view)
  - 404: unknown period or timecard
  - 409: concurrent duplicate create
  - 500: everything else
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/timecard-engine/dates"
	"github.com/warp/timecard-engine/hours"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *hours.TimesheetService

	// now supplies "today" when the request doesn't carry as_of.
	now func() dates.Date
}

// NewHandler creates a new handler around the service.
func NewHandler(service *hours.TimesheetService) *Handler {
	return &Handler{Service: service, now: dates.Today}
}

// asOf resolves the effective date for a request.
func (h *Handler) asOf(r *http.Request) (dates.Date, error) {
	if v := r.URL.Query().Get("as_of"); v != "" {
		return dates.Parse(v)
	}
	return h.now(), nil
}

func periodStart(r *http.Request) (dates.Date, error) {
	return dates.Parse(chi.URLParam(r, "start"))
}

// =============================================================================
// REPORTING PERIODS
// =============================================================================

// ListPeriods returns all reporting periods bucketed by editability.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	today, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date")
		return
	}
	buckets, err := h.Service.ListPeriods(r.Context(), today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, PeriodListDTO{
		Uncompleted:        toPeriodDTOs(buckets.Uncompleted),
		AmendableCompleted: toPeriodDTOs(buckets.AmendableCompleted),
		Completed:          toPeriodDTOs(buckets.Completed),
	})
}

// CreatePeriod creates a reporting period.
func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req CreatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	start, err := dates.Parse(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	end, err := dates.Parse(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date")
		return
	}

	rp := &hours.ReportingPeriod{
		StartDate:         start,
		EndDate:           end,
		ExactWorkingHours: defaultInt(req.ExactWorkingHours, 40),
		MinWorkingHours:   defaultInt(req.MinWorkingHours, 40),
		MaxWorkingHours:   defaultInt(req.MaxWorkingHours, 60),
		Message:           req.Message,
	}
	for _, hp := range req.HolidayPrefills {
		rp.HolidayPrefills = append(rp.HolidayPrefills, hours.HolidayPrefill{
			ProjectID:      hp.ProjectID,
			HoursPerPeriod: hp.HoursPerPeriod,
		})
	}

	if err := h.Service.CreateReportingPeriod(r.Context(), rp); err != nil {
		if errors.Is(err, hours.ErrDuplicatePeriod) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodDTO(rp))
}

// ListProjects returns the projects selectable for a period.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	start, err := periodStart(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period start date")
		return
	}
	today, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date")
		return
	}
	list, err := h.Service.SelectableProjects(r.Context(), start, today)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	out := make([]ProjectDTO, 0, len(list))
	for _, p := range list {
		out = append(out, ProjectDTO{ID: p.ID, Name: p.Name, Active: p.Active})
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// TIMECARDS
// =============================================================================

// OpenTimecard returns (creating on first open) the user's timecard for a
// period, with prefill suggestions when brand new.
func (h *Handler) OpenTimecard(w http.ResponseWriter, r *http.Request) {
	start, err := periodStart(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period start date")
		return
	}
	userID := r.URL.Query().Get("user")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user query parameter required")
		return
	}
	today, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date")
		return
	}

	view, err := h.Service.OpenTimecard(r.Context(), userID, start, today)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TimecardDTO{
		ID:        view.Timecard.ID,
		UserID:    view.Timecard.UserID,
		Period:    toPeriodDTO(view.Period),
		Submitted: view.Timecard.Submitted,
		Editable:  view.Editable,
		Entries:   toEntryDTOs(view.Entries),
		Suggested: toEntryDTOs(view.Suggested),
	})
}

// SaveTimecard replaces the entry set for a user's timecard.
func (h *Handler) SaveTimecard(w http.ResponseWriter, r *http.Request) {
	start, err := periodStart(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period start date")
		return
	}
	var req SaveTimecardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	today, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date")
		return
	}
	entries, err := parseEntryInputs(req.Entries)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid hours_spent: %v", err))
		return
	}

	tc, err := h.Service.SaveTimecard(r.Context(), hours.SaveInput{
		UserID:      req.UserID,
		PeriodStart: start,
		Today:       today,
		Entries:     entries,
		SaveOnly:    req.SaveOnly,
		Submit:      req.Submit,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        tc.ID,
		"submitted": tc.Submitted,
	})
}

// SubmitTimecard marks a timecard submitted. Re-submitting keeps the
// record; it never duplicates.
func (h *Handler) SubmitTimecard(w http.ResponseWriter, r *http.Request) {
	start, err := periodStart(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period start date")
		return
	}
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	today, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date")
		return
	}

	tc, err := h.Service.Submit(r.Context(), req.UserID, start, today)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        tc.ID,
		"submitted": tc.Submitted,
	})
}

// =============================================================================
// REPORTS
// =============================================================================

const csvTimeLayout = "2006-01-02 15:04:05"

// PeriodCSV streams one CSV row per submitted hour entry for a period.
func (h *Handler) PeriodCSV(w http.ResponseWriter, r *http.Request) {
	start, err := periodStart(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period start date")
		return
	}
	rows, err := h.Service.PeriodExport(r.Context(), start)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="timecards-%s.csv"`, start))

	streamer := newCSVStreamer(w)
	if err := streamer.writeRow([]string{
		"Reporting Period", "Last Modified", "User", "Project", "Number of Hours",
	}); err != nil {
		return
	}
	for _, row := range rows {
		if err := streamer.writeRow([]string{
			row.PeriodLabel,
			row.Modified.Format(csvTimeLayout),
			row.Username,
			row.ProjectName,
			row.HoursString(),
		}); err != nil {
			return
		}
	}
	_ = streamer.Flush()
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case hours.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, hours.ErrNotEditable):
		writeError(w, http.StatusForbidden, err.Error())
	case hours.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, hours.ErrDuplicateTimecard), errors.Is(err, hours.ErrDuplicatePeriod):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func defaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}
