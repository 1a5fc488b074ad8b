// Package employees exposes the employee records the timecard engine
// consumes: pay grades resolvable as of a date, and per-user data such as
// the alternative-work-schedule flag and the expense-side profit/loss
// account assignment.
package employees

import (
	"context"

	"github.com/warp/timecard-engine/dates"
)

// =============================================================================
// RECORDS
// =============================================================================

// EmployeeGrade is a pay grade effective from GradeStartDate onward, until
// superseded by a later grade record for the same user.
type EmployeeGrade struct {
	UserID         string
	Grade          int
	GradeStartDate dates.Date
}

// UserData carries per-user attributes relevant to timecards.
type UserData struct {
	UserID   string
	Username string

	// Employment window. Nil means unbounded on that side.
	StartDate *dates.Date
	EndDate   *dates.Date

	CurrentEmployee bool

	// IsAWSEligible marks users on an alternative work schedule; their
	// timecard totals are exempt from the period's min/max hour bounds.
	IsAWSEligible bool

	// Optional expense-side profit/loss account assignment.
	ProfitLossAccountID string
}

// =============================================================================
// DIRECTORY - read access to employee records
// =============================================================================

// Directory is the read interface the timecard engine consumes.
type Directory interface {
	// UserDataFor returns nil, nil when the user is unknown.
	UserDataFor(ctx context.Context, userID string) (*UserData, error)

	// GradeFor returns the user's pay grade in effect as of the given date,
	// or nil, nil when the user has no grade record yet.
	GradeFor(ctx context.Context, userID string, asOf dates.Date) (*EmployeeGrade, error)

	// IsAWSEligible reports whether the user is exempt from hour bounds.
	// Unknown users are not exempt.
	IsAWSEligible(ctx context.Context, userID string) (bool, error)
}

// ResolveGrade picks the grade in effect as of a date from a user's grade
// history: the record with the latest GradeStartDate that is on or before
// asOf. Returns nil when no record qualifies.
func ResolveGrade(grades []*EmployeeGrade, userID string, asOf dates.Date) *EmployeeGrade {
	var best *EmployeeGrade
	for _, g := range grades {
		if g.UserID != userID {
			continue
		}
		if g.GradeStartDate.After(asOf) {
			continue
		}
		if best == nil || g.GradeStartDate.After(best.GradeStartDate) {
			best = g
		}
	}
	return best
}

// =============================================================================
// STATIC DIRECTORY - in-memory implementation (for testing/dev)
// =============================================================================

// StaticDirectory serves a fixed set of records.
type StaticDirectory struct {
	Users  []*UserData
	Grades []*EmployeeGrade
}

var _ Directory = (*StaticDirectory)(nil)

func (d *StaticDirectory) UserDataFor(_ context.Context, userID string) (*UserData, error) {
	for _, u := range d.Users {
		if u.UserID == userID {
			return u, nil
		}
	}
	return nil, nil
}

func (d *StaticDirectory) GradeFor(_ context.Context, userID string, asOf dates.Date) (*EmployeeGrade, error) {
	return ResolveGrade(d.Grades, userID, asOf), nil
}

func (d *StaticDirectory) IsAWSEligible(ctx context.Context, userID string) (bool, error) {
	ud, err := d.UserDataFor(ctx, userID)
	if err != nil || ud == nil {
		return false, err
	}
	return ud.IsAWSEligible, nil
}
