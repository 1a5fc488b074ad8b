package hours_test

import (
	"context"
	"testing"
	"time"

	"github.com/warp/timecard-engine/dates"
	"github.com/warp/timecard-engine/employees"
	"github.com/warp/timecard-engine/hours"
	"github.com/warp/timecard-engine/projects"
)

// =============================================================================
// FIXTURE
// =============================================================================

// classifierFixture wires a classifier against static records:
//   - user u1: grade 4 from 2014-01-01, grade 5 from 2015-06-01,
//     expense account effective (2014-12-31, 2016-01-01)
//   - project p1: revenue account effective (2014-12-31, 2016-01-01)
type classifierFixture struct {
	classifier *hours.Classifier
	catalog    *projects.StaticCatalog
	directory  *employees.StaticDirectory
	project    *projects.Project
	userData   *employees.UserData
	period     *hours.ReportingPeriod
}

func newClassifierFixture() *classifierFixture {
	catalog := &projects.StaticCatalog{
		Accounts: []*projects.ProfitLossAccount{
			{
				ID:          "acct-rev",
				Name:        "Revenue 2015",
				AccountType: projects.AccountRevenue,
				AsStartDate: dates.New(2014, time.December, 31),
				AsEndDate:   dates.New(2016, time.January, 1),
			},
			{
				ID:          "acct-exp",
				Name:        "Expense 2015",
				AccountType: projects.AccountExpense,
				AsStartDate: dates.New(2014, time.December, 31),
				AsEndDate:   dates.New(2016, time.January, 1),
			},
		},
	}
	project := &projects.Project{ID: "p1", Name: "Peace Corps", Active: true, ProfitLossAccountID: "acct-rev"}
	catalog.Projects = []*projects.Project{project}

	userData := &employees.UserData{UserID: "u1", Username: "aaron.snow", ProfitLossAccountID: "acct-exp"}
	directory := &employees.StaticDirectory{
		Users: []*employees.UserData{userData},
		Grades: []*employees.EmployeeGrade{
			{UserID: "u1", Grade: 4, GradeStartDate: dates.New(2014, time.January, 1)},
			{UserID: "u1", Grade: 5, GradeStartDate: dates.New(2015, time.June, 1)},
		},
	}

	return &classifierFixture{
		classifier: &hours.Classifier{Grades: directory, Accounts: catalog},
		catalog:    catalog,
		directory:  directory,
		project:    project,
		userData:   userData,
		period: &hours.ReportingPeriod{
			ID:        "rp-1",
			StartDate: dates.New(2015, time.March, 1),
			EndDate:   dates.New(2015, time.March, 7),
		},
	}
}

func (f *classifierFixture) entryContext(tc *hours.Timecard) hours.EntryContext {
	return hours.EntryContext{Timecard: tc, Period: f.period, Project: f.project, UserData: f.userData}
}

// =============================================================================
// STAMPING TESTS
// =============================================================================

func TestStamp_SetsAllDerivedFields(t *testing.T) {
	f := newClassifierFixture()
	tc := &hours.Timecard{ID: "tc-1", UserID: "u1", Submitted: true}
	entry := &hours.TimecardObject{ID: "e-1", TimecardID: "tc-1", ProjectID: "p1"}

	if err := f.classifier.Stamp(context.Background(), entry, f.entryContext(tc)); err != nil {
		t.Fatalf("stamp failed: %v", err)
	}

	if entry.Grade == nil || entry.Grade.Grade != 4 {
		t.Errorf("expected grade 4 (in effect at period end 2015-03-07), got %+v", entry.Grade)
	}
	if entry.RevenueProfitLossAccount == nil || entry.RevenueProfitLossAccount.ID != "acct-rev" {
		t.Errorf("expected revenue account acct-rev, got %+v", entry.RevenueProfitLossAccount)
	}
	if entry.ExpenseProfitLossAccount == nil || entry.ExpenseProfitLossAccount.ID != "acct-exp" {
		t.Errorf("expected expense account acct-exp, got %+v", entry.ExpenseProfitLossAccount)
	}
	if !entry.Submitted {
		t.Error("entry must mirror the timecard's submitted flag")
	}
}

func TestStamp_GradeResolvedAsOfPeriodEnd(t *testing.T) {
	// GIVEN: The user's grade changed to 5 on 2015-06-01
	// WHEN: Stamping an entry for a period ending after the change
	// THEN: Grade 5 is stamped, even though earlier periods would get 4

	f := newClassifierFixture()
	f.period = &hours.ReportingPeriod{
		ID:        "rp-2",
		StartDate: dates.New(2015, time.June, 1),
		EndDate:   dates.New(2015, time.June, 7),
	}
	tc := &hours.Timecard{ID: "tc-1", UserID: "u1"}
	entry := &hours.TimecardObject{ID: "e-1", ProjectID: "p1"}

	if err := f.classifier.Stamp(context.Background(), entry, f.entryContext(tc)); err != nil {
		t.Fatalf("stamp failed: %v", err)
	}
	if entry.Grade == nil || entry.Grade.Grade != 5 {
		t.Errorf("expected grade 5 as of period end, got %+v", entry.Grade)
	}
}

func TestStamp_OverwritesCallerValues(t *testing.T) {
	// GIVEN: An entry with bogus derived values pre-set by the caller
	// WHEN: Stamping
	// THEN: Every derived field is recomputed; the bogus values vanish

	f := newClassifierFixture()
	tc := &hours.Timecard{ID: "tc-1", UserID: "u1", Submitted: false}
	entry := &hours.TimecardObject{
		ID:        "e-1",
		ProjectID: "p1",
		Grade:     &employees.EmployeeGrade{UserID: "u1", Grade: 99},
		RevenueProfitLossAccount: &projects.ProfitLossAccount{ID: "bogus"},
		Submitted:                true,
	}

	if err := f.classifier.Stamp(context.Background(), entry, f.entryContext(tc)); err != nil {
		t.Fatalf("stamp failed: %v", err)
	}
	if entry.Grade.Grade != 4 {
		t.Errorf("caller-set grade must be replaced, got %d", entry.Grade.Grade)
	}
	if entry.RevenueProfitLossAccount.ID != "acct-rev" {
		t.Errorf("caller-set account must be replaced, got %s", entry.RevenueProfitLossAccount.ID)
	}
	if entry.Submitted {
		t.Error("submitted must mirror the unsubmitted timecard")
	}
}

func TestStamp_Idempotent(t *testing.T) {
	f := newClassifierFixture()
	tc := &hours.Timecard{ID: "tc-1", UserID: "u1", Submitted: true}
	entry := &hours.TimecardObject{ID: "e-1", ProjectID: "p1"}
	ctx := context.Background()

	if err := f.classifier.Stamp(ctx, entry, f.entryContext(tc)); err != nil {
		t.Fatalf("first stamp failed: %v", err)
	}
	first := *entry
	if err := f.classifier.Stamp(ctx, entry, f.entryContext(tc)); err != nil {
		t.Fatalf("second stamp failed: %v", err)
	}
	if entry.Grade.Grade != first.Grade.Grade ||
		entry.RevenueProfitLossAccount.ID != first.RevenueProfitLossAccount.ID ||
		entry.ExpenseProfitLossAccount.ID != first.ExpenseProfitLossAccount.ID ||
		entry.Submitted != first.Submitted {
		t.Error("stamping twice with unchanged inputs must not change the entry")
	}
}

func TestStamp_AccountOutsideWindowYieldsNil(t *testing.T) {
	// GIVEN: A period ending outside the accounts' effective window
	// WHEN: Stamping
	// THEN: Both account fields come back nil; no error

	f := newClassifierFixture()
	f.period = &hours.ReportingPeriod{
		ID:        "rp-old",
		StartDate: dates.New(2014, time.June, 1),
		EndDate:   dates.New(2014, time.June, 7),
	}
	tc := &hours.Timecard{ID: "tc-1", UserID: "u1"}
	entry := &hours.TimecardObject{ID: "e-1", ProjectID: "p1"}

	if err := f.classifier.Stamp(context.Background(), entry, f.entryContext(tc)); err != nil {
		t.Fatalf("stamp failed: %v", err)
	}
	if entry.RevenueProfitLossAccount != nil {
		t.Error("revenue account outside its window must stamp nil")
	}
	if entry.ExpenseProfitLossAccount != nil {
		t.Error("expense account outside its window must stamp nil")
	}
}

func TestStamp_NoGradeHistoryYieldsNil(t *testing.T) {
	f := newClassifierFixture()
	tc := &hours.Timecard{ID: "tc-1", UserID: "u-new"}
	entry := &hours.TimecardObject{ID: "e-1", ProjectID: "p1"}

	ec := f.entryContext(tc)
	ec.UserData = &employees.UserData{UserID: "u-new", Username: "new.hire"}
	if err := f.classifier.Stamp(context.Background(), entry, ec); err != nil {
		t.Fatalf("stamp failed: %v", err)
	}
	if entry.Grade != nil {
		t.Error("user with no grade history must stamp nil grade")
	}
}
