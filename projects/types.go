// Package projects holds the project catalog and profit/loss account
// records that timecard entries are classified against. The engine
// consumes these records, it does not manage their lifecycle.
package projects

import (
	"context"

	"github.com/warp/timecard-engine/dates"
)

// =============================================================================
// ACCOUNT TYPE
// =============================================================================

// AccountType distinguishes the two sides a profit/loss account can sit on.
type AccountType string

const (
	AccountRevenue AccountType = "Revenue"
	AccountExpense AccountType = "Expense"
)

// =============================================================================
// RECORDS
// =============================================================================

// ProfitLossAccount is an accounting bucket with an effective-date window.
// The window is open at both ends: the account applies strictly between
// AsStartDate and AsEndDate, never on either boundary.
type ProfitLossAccount struct {
	ID               string
	Name             string
	AccountingString string
	AccountType      AccountType
	AsStartDate      dates.Date
	AsEndDate        dates.Date
}

// Project is something hours can be logged against.
type Project struct {
	ID     string
	Name   string
	Active bool

	// Optional lifetime bounds. Nil means unbounded on that side.
	StartDate *dates.Date
	EndDate   *dates.Date

	// Optional revenue-side profit/loss account assignment.
	ProfitLossAccountID string
}

// =============================================================================
// CATALOG - read access to project and account records
// =============================================================================

// Catalog is the read interface the timecard engine consumes.
type Catalog interface {
	// ProjectByID returns nil, nil when no such project exists.
	ProjectByID(ctx context.Context, id string) (*Project, error)

	// AccountByID returns nil, nil when no such account exists.
	AccountByID(ctx context.Context, id string) (*ProfitLossAccount, error)

	// SelectableProjects lists the projects a timecard for a period starting
	// at periodStart may log hours against. See Selectable for the rule.
	SelectableProjects(ctx context.Context, periodStart, today dates.Date) ([]*Project, error)
}

// Selectable reports whether a project may appear on a timecard for a
// reporting period starting at periodStart. A project qualifies when it is
// active, it started on or before the period start (or has started since,
// up to today), and it did not end before the period start.
func (p *Project) Selectable(periodStart, today dates.Date) bool {
	if !p.Active {
		return false
	}
	if p.StartDate != nil {
		started := p.StartDate.BeforeOrEqual(periodStart) ||
			(p.StartDate.AfterOrEqual(periodStart) && p.StartDate.BeforeOrEqual(today))
		if !started {
			return false
		}
	}
	if p.EndDate != nil && p.EndDate.Before(periodStart) {
		return false
	}
	return true
}

// =============================================================================
// STATIC CATALOG - in-memory implementation (for testing/dev)
// =============================================================================

// StaticCatalog serves a fixed set of records.
type StaticCatalog struct {
	Projects []*Project
	Accounts []*ProfitLossAccount
}

var _ Catalog = (*StaticCatalog)(nil)

func (c *StaticCatalog) ProjectByID(_ context.Context, id string) (*Project, error) {
	for _, p := range c.Projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (c *StaticCatalog) AccountByID(_ context.Context, id string) (*ProfitLossAccount, error) {
	for _, a := range c.Accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (c *StaticCatalog) SelectableProjects(_ context.Context, periodStart, today dates.Date) ([]*Project, error) {
	var out []*Project
	for _, p := range c.Projects {
		if p.Selectable(periodStart, today) {
			out = append(out, p)
		}
	}
	return out, nil
}
