/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DERIVED FIELDS:
  EntryDTO exposes grade and account fields in responses only. The save
  request type deliberately has no slots for them: the classifier
  recomputes all derived fields on every save, so there is nothing for a
  client to send.

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/timecard-engine/hours"
	"github.com/warp/timecard-engine/projects"
)

// =============================================================================
// REPORTING PERIODS
// =============================================================================

// PeriodDTO represents a reporting period in API responses.
type PeriodDTO struct {
	ID                string `json:"id"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	ExactWorkingHours int    `json:"exact_working_hours"`
	MinWorkingHours   int    `json:"min_working_hours"`
	MaxWorkingHours   int    `json:"max_working_hours"`
	Message           string `json:"message,omitempty"`
	FiscalYear        int    `json:"fiscal_year"`
}

// PeriodListDTO groups periods by editability.
type PeriodListDTO struct {
	Uncompleted        []PeriodDTO `json:"uncompleted"`
	AmendableCompleted []PeriodDTO `json:"amendable_completed"`
	Completed          []PeriodDTO `json:"completed"`
}

// CreatePeriodRequest is the request to create a reporting period.
type CreatePeriodRequest struct {
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	ExactWorkingHours int    `json:"exact_working_hours"`
	MinWorkingHours   int    `json:"min_working_hours"`
	MaxWorkingHours   int    `json:"max_working_hours"`
	Message           string `json:"message"`

	HolidayPrefills []HolidayPrefillDTO `json:"holiday_prefills,omitempty"`
}

// HolidayPrefillDTO names a project/hours pair to seed new timecards with.
type HolidayPrefillDTO struct {
	ProjectID      string `json:"project_id"`
	HoursPerPeriod int    `json:"hours_per_period"`
}

// =============================================================================
// TIMECARDS
// =============================================================================

// TimecardDTO is the timecard form payload.
type TimecardDTO struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Period    PeriodDTO  `json:"period"`
	Submitted bool       `json:"submitted"`
	Editable  bool       `json:"editable"`
	Entries   []EntryDTO `json:"entries"`
	Suggested []EntryDTO `json:"suggested,omitempty"`
}

// EntryDTO is one hour entry in responses. The grade and account fields
// are derived snapshots.
type EntryDTO struct {
	ID         string  `json:"id,omitempty"`
	ProjectID  string  `json:"project_id"`
	HoursSpent *string `json:"hours_spent,omitempty"`
	Notes      string  `json:"notes,omitempty"`

	Grade              *int    `json:"grade,omitempty"`
	RevenueAccountID   *string `json:"revenue_profit_loss_account,omitempty"`
	RevenueAccountName *string `json:"revenue_profit_loss_account_name,omitempty"`
	ExpenseAccountID   *string `json:"expense_profit_loss_account,omitempty"`
	ExpenseAccountName *string `json:"expense_profit_loss_account_name,omitempty"`
	Submitted          bool    `json:"submitted"`
}

// SaveTimecardRequest is the request to save (and optionally submit) a
// timecard's entries.
type SaveTimecardRequest struct {
	UserID   string             `json:"user_id"`
	SaveOnly bool               `json:"save_only"`
	Submit   bool               `json:"submit"`
	Entries  []SaveEntryRequest `json:"entries"`
}

// SaveEntryRequest is one hour entry as submitted by a client.
type SaveEntryRequest struct {
	ID         string  `json:"id,omitempty"`
	ProjectID  string  `json:"project_id"`
	HoursSpent *string `json:"hours_spent,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// SubmitRequest identifies whose timecard to submit.
type SubmitRequest struct {
	UserID string `json:"user_id"`
}

// ProjectDTO represents a selectable project.
type ProjectDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPeriodDTO(rp *hours.ReportingPeriod) PeriodDTO {
	return PeriodDTO{
		ID:                rp.ID,
		StartDate:         rp.StartDate.String(),
		EndDate:           rp.EndDate.String(),
		ExactWorkingHours: rp.ExactWorkingHours,
		MinWorkingHours:   rp.MinWorkingHours,
		MaxWorkingHours:   rp.MaxWorkingHours,
		Message:           rp.Message,
		FiscalYear:        rp.FiscalYear(),
	}
}

func toPeriodDTOs(rps []*hours.ReportingPeriod) []PeriodDTO {
	out := make([]PeriodDTO, 0, len(rps))
	for _, rp := range rps {
		out = append(out, toPeriodDTO(rp))
	}
	return out
}

func toEntryDTO(e *hours.TimecardObject) EntryDTO {
	dto := EntryDTO{
		ID:        e.ID,
		ProjectID: e.ProjectID,
		Notes:     e.Notes,
		Submitted: e.Submitted,
	}
	if e.HoursSpent.Valid {
		s := e.HoursSpent.Decimal.StringFixed(2)
		dto.HoursSpent = &s
	}
	if e.Grade != nil {
		g := e.Grade.Grade
		dto.Grade = &g
	}
	dto.RevenueAccountID, dto.RevenueAccountName = accountRefs(e.RevenueProfitLossAccount)
	dto.ExpenseAccountID, dto.ExpenseAccountName = accountRefs(e.ExpenseProfitLossAccount)
	return dto
}

func accountRefs(a *projects.ProfitLossAccount) (*string, *string) {
	if a == nil {
		return nil, nil
	}
	id, name := a.ID, a.Name
	return &id, &name
}

func toEntryDTOs(entries []*hours.TimecardObject) []EntryDTO {
	out := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryDTO(e))
	}
	return out
}

func parseEntryInputs(reqs []SaveEntryRequest) ([]hours.EntryInput, error) {
	out := make([]hours.EntryInput, 0, len(reqs))
	for _, r := range reqs {
		in := hours.EntryInput{ID: r.ID, ProjectID: r.ProjectID, Notes: r.Notes}
		if r.HoursSpent != nil && *r.HoursSpent != "" {
			d, err := decimal.NewFromString(*r.HoursSpent)
			if err != nil {
				return nil, err
			}
			in.HoursSpent = decimal.NullDecimal{Decimal: d, Valid: true}
		}
		out = append(out, in)
	}
	return out, nil
}
