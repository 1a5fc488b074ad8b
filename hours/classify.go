/*
classify.go - Derived-field stamping for hour entries

PURPOSE:
  Every time an entry is persisted (including amendments) its four derived
  fields are recomputed from scratch:

    1. Grade:    the user's pay grade as of the period's END date — not the
                 entry's own timestamp and not today. An entry amended
                 months later still reflects the grade at period close.
    2. Submitted: mirrored from the parent timecard.
    3. Revenue account: the project's profit/loss account, if it is a
                 Revenue account effective at the period end date.
    4. Expense account: the user's profit/loss account, if it is an Expense
                 account effective at the period end date.

  All four are overwritten unconditionally; values a caller set beforehand
  are discarded. A missing grade or account yields nil, never an error.
  Stamping is idempotent for unchanged inputs.
*/
package hours

import (
	"context"

	"github.com/warp/timecard-engine/dates"
	"github.com/warp/timecard-engine/employees"
	"github.com/warp/timecard-engine/projects"
)

// =============================================================================
// COLLABORATOR SLICES
// =============================================================================

// GradeSource resolves a user's pay grade as of a date.
// employees.Directory satisfies this.
type GradeSource interface {
	GradeFor(ctx context.Context, userID string, asOf dates.Date) (*employees.EmployeeGrade, error)
}

// AccountSource looks up profit/loss accounts by ID, returning nil, nil
// for unknown IDs. projects.Catalog satisfies this.
type AccountSource interface {
	AccountByID(ctx context.Context, id string) (*projects.ProfitLossAccount, error)
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classifier stamps derived fields onto hour entries.
type Classifier struct {
	Grades   GradeSource
	Accounts AccountSource
}

// EntryContext carries the related records an entry is classified against.
// Project and UserData may be nil; missing relations simply yield nil
// derived fields.
type EntryContext struct {
	Timecard *Timecard
	Period   *ReportingPeriod
	Project  *projects.Project
	UserData *employees.UserData
}

// Stamp recomputes entry's derived fields in place. The only error path is
// a failing collaborator lookup; business outcomes (no grade, no
// applicable account) are nil fields, not errors.
func (c *Classifier) Stamp(ctx context.Context, entry *TimecardObject, ec EntryContext) error {
	asOf := ec.Period.EndDate

	grade, err := c.Grades.GradeFor(ctx, ec.Timecard.UserID, asOf)
	if err != nil {
		return err
	}
	entry.Grade = grade

	entry.Submitted = ec.Timecard.Submitted

	projectAccount, err := c.accountFor(ctx, ec.Project)
	if err != nil {
		return err
	}
	entry.RevenueProfitLossAccount = projects.ResolveAccount(projectAccount, asOf, projects.AccountRevenue)

	userAccount, err := c.userAccountFor(ctx, ec.UserData)
	if err != nil {
		return err
	}
	entry.ExpenseProfitLossAccount = projects.ResolveAccount(userAccount, asOf, projects.AccountExpense)

	return nil
}

func (c *Classifier) accountFor(ctx context.Context, p *projects.Project) (*projects.ProfitLossAccount, error) {
	if p == nil || p.ProfitLossAccountID == "" {
		return nil, nil
	}
	return c.Accounts.AccountByID(ctx, p.ProfitLossAccountID)
}

func (c *Classifier) userAccountFor(ctx context.Context, ud *employees.UserData) (*projects.ProfitLossAccount, error) {
	if ud == nil || ud.ProfitLossAccountID == "" {
		return nil, nil
	}
	return c.Accounts.AccountByID(ctx, ud.ProfitLossAccountID)
}
