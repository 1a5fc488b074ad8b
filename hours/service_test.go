package hours_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timecard-engine/dates"
	"github.com/warp/timecard-engine/employees"
	"github.com/warp/timecard-engine/hours"
	"github.com/warp/timecard-engine/hours/store"
	"github.com/warp/timecard-engine/projects"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*hours.TimesheetService, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	mem.RegisterUsername("u1", "aaron.snow")
	mem.RegisterProjectName("p1", "Peace Corps")
	mem.RegisterProjectName("p2", "Out Of Office")

	catalog := &projects.StaticCatalog{
		Projects: []*projects.Project{
			{ID: "p1", Name: "Peace Corps", Active: true, ProfitLossAccountID: "acct-rev"},
			{ID: "p2", Name: "Out Of Office", Active: true},
		},
		Accounts: []*projects.ProfitLossAccount{
			{
				ID:          "acct-rev",
				Name:        "Revenue 2015",
				AccountType: projects.AccountRevenue,
				AsStartDate: dates.New(2014, time.December, 31),
				AsEndDate:   dates.New(2016, time.January, 1),
			},
		},
	}
	directory := &employees.StaticDirectory{
		Users: []*employees.UserData{
			{UserID: "u1", Username: "aaron.snow", CurrentEmployee: true},
			{UserID: "u2", Username: "flex.worker", CurrentEmployee: true, IsAWSEligible: true},
		},
		Grades: []*employees.EmployeeGrade{
			{UserID: "u1", Grade: 4, GradeStartDate: dates.New(2014, time.January, 1)},
		},
	}

	return hours.NewTimesheetService(mem, catalog, directory), mem
}

// seedWeeklyPeriods creates n consecutive 7-day periods starting at start.
func seedWeeklyPeriods(t *testing.T, svc *hours.TimesheetService, start dates.Date, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		s := start.AddDays(7 * i)
		err := svc.CreateReportingPeriod(context.Background(), &hours.ReportingPeriod{
			ID:              fmt.Sprintf("rp-%d", i+1),
			StartDate:       s,
			EndDate:         s.AddDays(6),
			MinWorkingHours: 40,
			MaxWorkingHours: 60,
		})
		require.NoError(t, err)
	}
}

func hoursOf(h int64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromInt(h), Valid: true}
}

// =============================================================================
// PERIOD TESTS
// =============================================================================

func TestCreateReportingPeriod_RejectsInvertedRange(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.CreateReportingPeriod(context.Background(), &hours.ReportingPeriod{
		StartDate: dates.New(2015, time.January, 7),
		EndDate:   dates.New(2015, time.January, 1),
	})
	require.Error(t, err)
}

func TestCreateReportingPeriod_RejectsDuplicateStart(t *testing.T) {
	svc, _ := newTestService(t)
	seedWeeklyPeriods(t, svc, dates.New(2015, time.January, 1), 1)

	err := svc.CreateReportingPeriod(context.Background(), &hours.ReportingPeriod{
		StartDate: dates.New(2015, time.January, 1),
		EndDate:   dates.New(2015, time.January, 10),
	})
	require.ErrorIs(t, err, hours.ErrDuplicatePeriod)
}

func TestListPeriods_Buckets(t *testing.T) {
	svc, _ := newTestService(t)
	seedWeeklyPeriods(t, svc, dates.New(2015, time.January, 1), 3)

	buckets, err := svc.ListPeriods(context.Background(), dates.New(2015, time.January, 20))
	require.NoError(t, err)
	assert.Len(t, buckets.Uncompleted, 1)
	assert.Len(t, buckets.AmendableCompleted, 1)
	assert.Len(t, buckets.Completed, 1)
	assert.Equal(t, "rp-2", buckets.AmendableCompleted[0].ID)
}

// =============================================================================
// SAVE / SUBMIT TESTS
// =============================================================================

func TestSaveTimecard_CreatesAndStamps(t *testing.T) {
	svc, mem := newTestService(t)
	seedWeeklyPeriods(t, svc, dates.New(2015, time.March, 1), 1)
	ctx := context.Background()

	tc, err := svc.SaveTimecard(ctx, hours.SaveInput{
		UserID:      "u1",
		PeriodStart: dates.New(2015, time.March, 1),
		Today:       dates.New(2015, time.March, 5),
		Entries: []hours.EntryInput{
			{ProjectID: "p1", HoursSpent: hoursOf(40)},
		},
		Submit: true,
	})
	require.NoError(t, err)
	assert.True(t, tc.Submitted)

	entries, err := mem.EntriesFor(ctx, tc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	require.NotNil(t, e.Grade)
	assert.Equal(t, 4, e.Grade.Grade)
	require.NotNil(t, e.RevenueProfitLossAccount)
	assert.Equal(t, "acct-rev", e.RevenueProfitLossAccount.ID)
	assert.True(t, e.Submitted, "entry must mirror the submitted timecard")
}

func TestSaveTimecard_BoundsBlockSubmission(t *testing.T) {
	svc, mem := newTestService(t)
	seedWeeklyPeriods(t, svc, dates.New(2015, time.March, 1), 1)
	ctx := context.Background()

	_, err := svc.SaveTimecard(ctx, hours.SaveInput{
		UserID:      "u1",
		PeriodStart: dates.New(2015, time.March, 1),
		Today:       dates.New(2015, time.March, 5),
		Entries: []hours.EntryInput{
			{ProjectID: "p1", HoursSpent: hoursOf(61)},
		},
		Submit: true,
	})
	require.ErrorIs(t, err, hours.ErrTooManyHours)

	// Nothing was written.
	_, err = mem.TimecardFor(ctx, "u1", "rp-1")
	require.ErrorIs(t, err, hours.ErrTimecardNotFound)
}

func TestSaveTimecard_SaveOnlySkipsBounds(t *testing.T) {
	// GIVEN: A partial card with only 8 hours
	// WHEN: Saving as a draft (SaveOnly)
	// THEN: The card is parked unsubmitted despite being under the minimum

	svc, _ := newTestService(t)
	seedWeeklyPeriods(t, svc, dates.New(2015, time.March, 1), 1)

	tc, err := svc.SaveTimecard(context.Background(), hours.SaveInput{
		UserID:      "u1",
		PeriodStart: dates.New(2015, time.March, 1),
		Today:       dates.New(2015, time.March, 5),
		Entries: []hours.EntryInput{
			{ProjectID: "p1", HoursSpent: hoursOf(8)},
		},
		SaveOnly: true,
	})
	require.NoError(t, err)
	assert.False(t, tc.Submitted)
}

func TestSaveTimecard_ExemptUserSkipsBounds(t *testing.T) {
	svc, _ := newTestService(t)
	seedWeeklyPeriods(t, svc, dates.New(2015, time.March, 1), 1)

	tc, err := svc.SaveTimecard(context.Background(), hours.SaveInput{
		UserID:      "u2",
		PeriodStart: dates.New(2015, time.March, 1),
		Today:       dates.New(2015, time.March, 5),
		Entries: []hours.EntryInput{
			{ProjectID: "p1", HoursSpent: hoursOf(8)},
		},
		Submit: true,
	})
	require.NoError(t, err)
	assert.True(t, tc.Submitted)
}

func TestSaveTimecard_SubmittedOutsideWindowRejected(t *testing.T) {
	// GIVEN: Six periods; u1 submitted a card for period 1 long ago
	// WHEN: Amending it while period 6 is current
	// THEN: Rejected; period 1 left the amendable window

	svc, _ := newTestService(t)
	seedWeeklyPeriods(t, svc, dates.New(2015, time.January, 1), 6)
	ctx := context.Background()

	_, err := svc.SaveTimecard(ctx, hours.SaveInput{
		UserID:      "u1",
		PeriodStart: dates.New(2015, time.January, 1),
		Today:       dates.New(2015, time.January, 5),
		Entries:     []hours.EntryInput{{ProjectID: "p1", HoursSpent: hoursOf(40)}},
		Submit:      true,
	})
	require.NoError(t, err)

	_, err = svc.SaveTimecard(ctx, hours.SaveInput{
		UserID:      "u1",
		PeriodStart: dates.New(2015, time.January, 1),
		Today:       dates.New(2015, time.February, 7),
		Entries:     []hours.EntryInput{{ProjectID: "p1", HoursSpent: hoursOf(45)}},
		Submit:      true,
	})
	require.ErrorIs(t, err, hours.ErrNotEditable)
}

func TestSaveTimecard_AmendableWindowAllowsEdit(t *testing.T) {
	svc, _ := newTestService(t)
	seedWeeklyPeriods(t, svc, dates.New(2015, time.January, 1), 6)
	ctx := context.Background()

	// Submit for period 5 while it is current.
	_, err := svc.SaveTimecard(ctx, hours.SaveInput{
		UserID:      "u1",
		PeriodStart: dates.New(2015, time.January, 29),
		Today:       dates.New(2015, time.February, 1),
		Entries:     []hours.EntryInput{{ProjectID: "p1", HoursSpent: hoursOf(40)}},
		Submit:      true,
	})
	require.NoError(t, err)

	// Amend during period 6; period 5 is the amendable one.
	tc, err := svc.SaveTimecard(ctx, hours.SaveInput{
		UserID:      "u1",
		PeriodStart: dates.New(2015, time.January, 29),
		Today:       dates.New(2015, time.February, 7),
		Entries:     []hours.EntryInput{{ProjectID: "p1", HoursSpent: hoursOf(45)}},
		Submit:      true,
	})
	require.NoError(t, err)
	assert.True(t, tc.Submitted, "amending must not clear the submitted flag")
}

func TestSaveTimecard_UnsubmittedOldPeriodStillEditable(t *testing.T) {
	svc, _ := newTestService(t)
	seedWeeklyPeriods(t, svc, dates.New(2015, time.January, 1), 6)
	ctx := context.Background()

	// Draft for period 1, never submitted.
	_, err := svc.SaveTimecard(ctx, hours.SaveInput{
		UserID:      "u1",
		PeriodStart: dates.New(2015, time.January, 1),
		Today:       dates.New(2015, time.January, 5),
		Entries:     []hours.EntryInput{{ProjectID: "p1", HoursSpent: hoursOf(8)}},
		SaveOnly:    true,
	})
	require.NoError(t, err)

	// Months later the draft is still open for completion.
	_, err = svc.SaveTimecard(ctx, hours.SaveInput{
		UserID:      "u1",
		PeriodStart: dates.New(2015, time.January, 1),
		Today:       dates.New(2015, time.June, 1),
		Entries:     []hours.EntryInput{{ProjectID: "p1", HoursSpent: hoursOf(40)}},
		Submit:      true,
	})
	require.NoError(t, err)
}

func TestSubmit_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	seedWeeklyPeriods(t, svc, dates.New(2015, time.March, 1), 1)
	ctx := context.Background()
	today := dates.New(2015, time.March, 5)

	_, err := svc.SaveTimecard(ctx, hours.SaveInput{
		UserID:      "u1",
		PeriodStart: dates.New(2015, time.March, 1),
		Today:       today,
		Entries:     []hours.EntryInput{{ProjectID: "p1", HoursSpent: hoursOf(40)}},
		Submit:      true,
	})
	require.NoError(t, err)

	tc, err := svc.Submit(ctx, "u1", dates.New(2015, time.March, 1), today)
	require.NoError(t, err)
	assert.True(t, tc.Submitted)
}

// =============================================================================
// OPEN / PREFILL TESTS
// =============================================================================

func TestOpenTimecard_CreatesOnFirstOpen(t *testing.T) {
	svc, _ := newTestService(t)
	seedWeeklyPeriods(t, svc, dates.New(2015, time.March, 1), 1)

	view, err := svc.OpenTimecard(context.Background(), "u1",
		dates.New(2015, time.March, 1), dates.New(2015, time.March, 5))
	require.NoError(t, err)
	assert.NotEmpty(t, view.Timecard.ID)
	assert.False(t, view.Timecard.Submitted)
	assert.True(t, view.Editable)
	assert.Empty(t, view.Entries)
}

func TestOpenTimecard_UnknownPeriod(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.OpenTimecard(context.Background(), "u1",
		dates.New(2015, time.March, 1), dates.New(2015, time.March, 5))
	require.True(t, errors.Is(err, hours.ErrPeriodNotFound))
}

func TestOpenTimecard_HolidayPrefill(t *testing.T) {
	// GIVEN: A period carrying an 8-hour holiday prefill
	// WHEN: Opening a brand-new timecard
	// THEN: The suggestion names the holiday project with hours filled in

	svc, _ := newTestService(t)
	err := svc.CreateReportingPeriod(context.Background(), &hours.ReportingPeriod{
		ID:              "rp-holiday",
		StartDate:       dates.New(2015, time.July, 1),
		EndDate:         dates.New(2015, time.July, 7),
		MinWorkingHours: 40,
		MaxWorkingHours: 60,
		HolidayPrefills: []hours.HolidayPrefill{{ProjectID: "p2", HoursPerPeriod: 8}},
	})
	require.NoError(t, err)

	view, err := svc.OpenTimecard(context.Background(), "u1",
		dates.New(2015, time.July, 1), dates.New(2015, time.July, 3))
	require.NoError(t, err)
	require.Len(t, view.Suggested, 1)
	assert.Equal(t, "p2", view.Suggested[0].ProjectID)
	assert.True(t, view.Suggested[0].HoursSpent.Valid)
	assert.True(t, view.Suggested[0].HoursSpent.Decimal.Equal(decimal.NewFromInt(8)))
}

func TestOpenTimecard_PrefillsFromLastSubmittedCard(t *testing.T) {
	// GIVEN: u1 submitted a card for period 1 with two projects
	// WHEN: Opening a new card for period 2
	// THEN: The same projects are suggested with hours left blank

	svc, _ := newTestService(t)
	seedWeeklyPeriods(t, svc, dates.New(2015, time.January, 1), 2)
	ctx := context.Background()

	_, err := svc.SaveTimecard(ctx, hours.SaveInput{
		UserID:      "u1",
		PeriodStart: dates.New(2015, time.January, 1),
		Today:       dates.New(2015, time.January, 5),
		Entries: []hours.EntryInput{
			{ProjectID: "p1", HoursSpent: hoursOf(32)},
			{ProjectID: "p2", HoursSpent: hoursOf(8)},
		},
		Submit: true,
	})
	require.NoError(t, err)

	view, err := svc.OpenTimecard(ctx, "u1",
		dates.New(2015, time.January, 8), dates.New(2015, time.January, 10))
	require.NoError(t, err)
	require.Len(t, view.Suggested, 2)
	for _, s := range view.Suggested {
		assert.False(t, s.HoursSpent.Valid, "prefilled hours must be blank")
	}
}

func TestOpenTimecard_NoPrefillWithoutHistory(t *testing.T) {
	svc, _ := newTestService(t)
	seedWeeklyPeriods(t, svc, dates.New(2015, time.January, 1), 1)

	view, err := svc.OpenTimecard(context.Background(), "u1",
		dates.New(2015, time.January, 1), dates.New(2015, time.January, 5))
	require.NoError(t, err)
	assert.Empty(t, view.Suggested)
}

// =============================================================================
// EXPORT TESTS
// =============================================================================

func TestPeriodExport_SubmittedEntriesOnly(t *testing.T) {
	// GIVEN: u1 submitted 2 entries, u2 drafted 1 entry for the same period
	// WHEN: Exporting the period
	// THEN: Only the 2 submitted rows appear

	svc, _ := newTestService(t)
	seedWeeklyPeriods(t, svc, dates.New(2015, time.January, 1), 1)
	ctx := context.Background()
	today := dates.New(2015, time.January, 5)

	_, err := svc.SaveTimecard(ctx, hours.SaveInput{
		UserID:      "u1",
		PeriodStart: dates.New(2015, time.January, 1),
		Today:       today,
		Entries: []hours.EntryInput{
			{ProjectID: "p1", HoursSpent: hoursOf(28)},
			{ProjectID: "p2", HoursSpent: hoursOf(12)},
		},
		Submit: true,
	})
	require.NoError(t, err)

	_, err = svc.SaveTimecard(ctx, hours.SaveInput{
		UserID:      "u2",
		PeriodStart: dates.New(2015, time.January, 1),
		Today:       today,
		Entries:     []hours.EntryInput{{ProjectID: "p1", HoursSpent: hoursOf(5)}},
		SaveOnly:    true,
	})
	require.NoError(t, err)

	rows, err := svc.PeriodExport(ctx, dates.New(2015, time.January, 1))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "2015-01-01 - 2015-01-07", rows[0].PeriodLabel)
	assert.Equal(t, "aaron.snow", rows[0].Username)
	assert.Equal(t, "Out Of Office", rows[0].ProjectName)
	assert.Equal(t, "12.00", rows[0].HoursString())
	assert.Equal(t, "Peace Corps", rows[1].ProjectName)
	assert.Equal(t, "28.00", rows[1].HoursString())
}
