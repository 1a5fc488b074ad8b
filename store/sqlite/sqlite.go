/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements all persistence interfaces using SQLite. In production the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  hours.Store / hours.TxStore: periods, timecards, entries
  projects.Catalog:            project and profit/loss account records
  employees.Directory:         user data and effective-dated grades

KEY TABLES:
  reporting_periods:     date ranges with hour policy; unique start, end
  holiday_prefills:      per-period timecard seeds
  timecards:             UNIQUE(user_id, reporting_period_id) serializes
                         concurrent creates for the same pair
  timecard_entries:      hour entries with persisted derived snapshots
  projects:              project catalog
  profit_loss_accounts:  effective-dated accounts
  user_data:             per-user flags and account assignment
  employee_grades:       grade history, resolved as-of a date

DERIVED SNAPSHOTS:
  timecard_entries stores the classifier's output (grade, revenue/expense
  account IDs, mirrored submitted flag) alongside the entry. Rows are only
  written by ReplaceEntries inside the save transaction, so the snapshots
  are always consistent with the entry they describe.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) and foreign keys on.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - hours/store.go: interface definitions
  - hours/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/timecard-engine/dates"
	"github.com/warp/timecard-engine/employees"
	"github.com/warp/timecard-engine/hours"
	"github.com/warp/timecard-engine/projects"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	q  querier
}

var (
	_ hours.TxStore       = (*Store)(nil)
	_ projects.Catalog    = (*Store)(nil)
	_ employees.Directory = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, q: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reporting_periods (
		id TEXT PRIMARY KEY,
		start_date TEXT NOT NULL UNIQUE,
		end_date TEXT NOT NULL UNIQUE,
		exact_working_hours INTEGER NOT NULL DEFAULT 40,
		min_working_hours INTEGER NOT NULL DEFAULT 40,
		max_working_hours INTEGER NOT NULL DEFAULT 60,
		message TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reporting_periods_start
		ON reporting_periods(start_date DESC);

	CREATE TABLE IF NOT EXISTS holiday_prefills (
		reporting_period_id TEXT NOT NULL REFERENCES reporting_periods(id),
		project_id TEXT NOT NULL,
		hours_per_period INTEGER NOT NULL DEFAULT 8,
		UNIQUE(reporting_period_id, project_id)
	);

	CREATE TABLE IF NOT EXISTS timecards (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		reporting_period_id TEXT NOT NULL REFERENCES reporting_periods(id),
		submitted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL,
		UNIQUE(user_id, reporting_period_id)
	);

	CREATE TABLE IF NOT EXISTS timecard_entries (
		id TEXT PRIMARY KEY,
		timecard_id TEXT NOT NULL REFERENCES timecards(id) ON DELETE CASCADE,
		project_id TEXT NOT NULL,
		hours_spent TEXT,
		notes TEXT NOT NULL DEFAULT '',
		grade INTEGER,
		grade_start_date TEXT,
		revenue_account_id TEXT,
		expense_account_id TEXT,
		submitted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_timecard_entries_timecard
		ON timecard_entries(timecard_id);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		start_date TEXT,
		end_date TEXT,
		profit_loss_account_id TEXT
	);

	CREATE TABLE IF NOT EXISTS profit_loss_accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		accounting_string TEXT NOT NULL DEFAULT '',
		account_type TEXT NOT NULL,
		as_start_date TEXT NOT NULL,
		as_end_date TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_data (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		start_date TEXT,
		end_date TEXT,
		current_employee INTEGER NOT NULL DEFAULT 1,
		is_aws_eligible INTEGER NOT NULL DEFAULT 0,
		profit_loss_account_id TEXT
	);

	CREATE TABLE IF NOT EXISTS employee_grades (
		user_id TEXT NOT NULL,
		grade INTEGER NOT NULL,
		grade_start_date TEXT NOT NULL,
		UNIQUE(user_id, grade_start_date)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(hours.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// REPORTING PERIODS
// =============================================================================

func (s *Store) CreateReportingPeriod(ctx context.Context, rp *hours.ReportingPeriod) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO reporting_periods
			(id, start_date, end_date, exact_working_hours, min_working_hours,
			 max_working_hours, message, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rp.ID, rp.StartDate.String(), rp.EndDate.String(),
		rp.ExactWorkingHours, rp.MinWorkingHours, rp.MaxWorkingHours,
		rp.Message, fmtTime(rp.Created), fmtTime(rp.Modified))
	if isUniqueViolation(err) {
		return hours.ErrDuplicatePeriod
	}
	if err != nil {
		return err
	}
	for _, hp := range rp.HolidayPrefills {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO holiday_prefills (reporting_period_id, project_id, hours_per_period)
			VALUES (?, ?, ?)`,
			rp.ID, hp.ProjectID, hp.HoursPerPeriod)
		if err != nil {
			return err
		}
	}
	return nil
}

const periodColumns = `id, start_date, end_date, exact_working_hours,
	min_working_hours, max_working_hours, message, created_at, modified_at`

func (s *Store) ReportingPeriods(ctx context.Context) ([]*hours.ReportingPeriod, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+periodColumns+` FROM reporting_periods ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*hours.ReportingPeriod
	for rows.Next() {
		rp, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, rp := range out {
		if err := s.loadPrefills(ctx, rp); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) ReportingPeriodByStart(ctx context.Context, start dates.Date) (*hours.ReportingPeriod, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+periodColumns+` FROM reporting_periods WHERE start_date = ?`,
		start.String())
	rp, err := scanPeriod(row)
	if err == sql.ErrNoRows {
		return nil, hours.ErrPeriodNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadPrefills(ctx, rp); err != nil {
		return nil, err
	}
	return rp, nil
}

func (s *Store) loadPrefills(ctx context.Context, rp *hours.ReportingPeriod) error {
	rows, err := s.q.QueryContext(ctx, `
		SELECT project_id, hours_per_period FROM holiday_prefills
		WHERE reporting_period_id = ?`, rp.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var hp hours.HolidayPrefill
		if err := rows.Scan(&hp.ProjectID, &hp.HoursPerPeriod); err != nil {
			return err
		}
		rp.HolidayPrefills = append(rp.HolidayPrefills, hp)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeriod(r rowScanner) (*hours.ReportingPeriod, error) {
	var rp hours.ReportingPeriod
	var start, end, created, modified string
	err := r.Scan(&rp.ID, &start, &end, &rp.ExactWorkingHours,
		&rp.MinWorkingHours, &rp.MaxWorkingHours, &rp.Message, &created, &modified)
	if err != nil {
		return nil, err
	}
	if rp.StartDate, err = dates.Parse(start); err != nil {
		return nil, err
	}
	if rp.EndDate, err = dates.Parse(end); err != nil {
		return nil, err
	}
	if rp.Created, err = parseTime(created); err != nil {
		return nil, err
	}
	if rp.Modified, err = parseTime(modified); err != nil {
		return nil, err
	}
	return &rp, nil
}

// =============================================================================
// TIMECARDS
// =============================================================================

func (s *Store) CreateTimecard(ctx context.Context, tc *hours.Timecard) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO timecards (id, user_id, reporting_period_id, submitted, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tc.ID, tc.UserID, tc.ReportingPeriodID, boolInt(tc.Submitted),
		fmtTime(tc.Created), fmtTime(tc.Modified))
	if isUniqueViolation(err) {
		return hours.ErrDuplicateTimecard
	}
	return err
}

func (s *Store) TimecardFor(ctx context.Context, userID, periodID string) (*hours.Timecard, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, user_id, reporting_period_id, submitted, created_at, modified_at
		FROM timecards WHERE user_id = ? AND reporting_period_id = ?`,
		userID, periodID)
	return scanTimecard(row)
}

func (s *Store) UpdateTimecard(ctx context.Context, tc *hours.Timecard) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE timecards SET submitted = ?, modified_at = ? WHERE id = ?`,
		boolInt(tc.Submitted), fmtTime(tc.Modified), tc.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return hours.ErrTimecardNotFound
	}
	return nil
}

func (s *Store) LastSubmittedTimecard(ctx context.Context, userID string, before dates.Date) (*hours.Timecard, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT t.id, t.user_id, t.reporting_period_id, t.submitted, t.created_at, t.modified_at
		FROM timecards t
		JOIN reporting_periods rp ON rp.id = t.reporting_period_id
		WHERE t.user_id = ? AND t.submitted = 1 AND rp.start_date < ?
		ORDER BY rp.start_date DESC
		LIMIT 1`,
		userID, before.String())
	return scanTimecard(row)
}

func scanTimecard(row *sql.Row) (*hours.Timecard, error) {
	var tc hours.Timecard
	var submitted int
	var created, modified string
	err := row.Scan(&tc.ID, &tc.UserID, &tc.ReportingPeriodID, &submitted, &created, &modified)
	if err == sql.ErrNoRows {
		return nil, hours.ErrTimecardNotFound
	}
	if err != nil {
		return nil, err
	}
	tc.Submitted = submitted != 0
	if tc.Created, err = parseTime(created); err != nil {
		return nil, err
	}
	if tc.Modified, err = parseTime(modified); err != nil {
		return nil, err
	}
	return &tc, nil
}

// =============================================================================
// ENTRIES
// =============================================================================

func (s *Store) EntriesFor(ctx context.Context, timecardID string) ([]*hours.TimecardObject, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT e.id, e.timecard_id, e.project_id, e.hours_spent, e.notes,
		       e.grade, e.grade_start_date, e.revenue_account_id,
		       e.expense_account_id, e.submitted, e.created_at, e.modified_at,
		       t.user_id
		FROM timecard_entries e
		JOIN timecards t ON t.id = e.timecard_id
		WHERE e.timecard_id = ?
		ORDER BY e.created_at, e.id`, timecardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*hours.TimecardObject
	for rows.Next() {
		var e hours.TimecardObject
		var hoursSpent, gradeStart, revenueID, expenseID sql.NullString
		var grade sql.NullInt64
		var submitted int
		var created, modified, userID string
		err := rows.Scan(&e.ID, &e.TimecardID, &e.ProjectID, &hoursSpent, &e.Notes,
			&grade, &gradeStart, &revenueID, &expenseID, &submitted,
			&created, &modified, &userID)
		if err != nil {
			return nil, err
		}
		if hoursSpent.Valid {
			d, err := decimal.NewFromString(hoursSpent.String)
			if err != nil {
				return nil, err
			}
			e.HoursSpent = decimal.NullDecimal{Decimal: d, Valid: true}
		}
		if grade.Valid && gradeStart.Valid {
			gs, err := dates.Parse(gradeStart.String)
			if err != nil {
				return nil, err
			}
			e.Grade = &employees.EmployeeGrade{
				UserID:         userID,
				Grade:          int(grade.Int64),
				GradeStartDate: gs,
			}
		}
		if revenueID.Valid {
			if e.RevenueProfitLossAccount, err = s.AccountByID(ctx, revenueID.String); err != nil {
				return nil, err
			}
		}
		if expenseID.Valid {
			if e.ExpenseProfitLossAccount, err = s.AccountByID(ctx, expenseID.String); err != nil {
				return nil, err
			}
		}
		e.Submitted = submitted != 0
		if e.Created, err = parseTime(created); err != nil {
			return nil, err
		}
		if e.Modified, err = parseTime(modified); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *Store) ReplaceEntries(ctx context.Context, timecardID string, entries []*hours.TimecardObject) error {
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM timecard_entries WHERE timecard_id = ?`, timecardID); err != nil {
		return err
	}
	for _, e := range entries {
		var hoursSpent, grade, gradeStart, revenueID, expenseID any
		if e.HoursSpent.Valid {
			hoursSpent = e.HoursSpent.Decimal.String()
		}
		if e.Grade != nil {
			grade = e.Grade.Grade
			gradeStart = e.Grade.GradeStartDate.String()
		}
		if e.RevenueProfitLossAccount != nil {
			revenueID = e.RevenueProfitLossAccount.ID
		}
		if e.ExpenseProfitLossAccount != nil {
			expenseID = e.ExpenseProfitLossAccount.ID
		}
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO timecard_entries
				(id, timecard_id, project_id, hours_spent, notes, grade,
				 grade_start_date, revenue_account_id, expense_account_id,
				 submitted, created_at, modified_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, timecardID, e.ProjectID, hoursSpent, e.Notes, grade,
			gradeStart, revenueID, expenseID, boolInt(e.Submitted),
			fmtTime(e.Created), fmtTime(e.Modified))
		if err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

func (s *Store) PeriodExport(ctx context.Context, periodID string) ([]hours.ExportRow, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT rp.start_date, rp.end_date, t.modified_at, u.username, p.name, e.hours_spent
		FROM timecard_entries e
		JOIN timecards t ON t.id = e.timecard_id
		JOIN reporting_periods rp ON rp.id = t.reporting_period_id
		LEFT JOIN user_data u ON u.user_id = t.user_id
		LEFT JOIN projects p ON p.id = e.project_id
		WHERE t.reporting_period_id = ? AND t.submitted = 1
		ORDER BY u.username, p.name`, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hours.ExportRow
	for rows.Next() {
		var r hours.ExportRow
		var start, end, modified string
		var username, project, hoursSpent sql.NullString
		if err := rows.Scan(&start, &end, &modified, &username, &project, &hoursSpent); err != nil {
			return nil, err
		}
		r.PeriodLabel = start + " - " + end
		if r.Modified, err = parseTime(modified); err != nil {
			return nil, err
		}
		r.Username = username.String
		r.ProjectName = project.String
		r.Hours = decimal.Zero
		if hoursSpent.Valid {
			d, err := decimal.NewFromString(hoursSpent.String)
			if err != nil {
				return nil, err
			}
			r.Hours = d
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// PROJECTS CATALOG
// =============================================================================

// SaveProject inserts or updates a project record.
func (s *Store) SaveProject(ctx context.Context, p *projects.Project) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO projects (id, name, active, start_date, end_date, profit_loss_account_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			active = excluded.active,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			profit_loss_account_id = excluded.profit_loss_account_id`,
		p.ID, p.Name, boolInt(p.Active), nullDate(p.StartDate), nullDate(p.EndDate),
		nullString(p.ProfitLossAccountID))
	return err
}

func (s *Store) ProjectByID(ctx context.Context, id string) (*projects.Project, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, name, active, start_date, end_date, profit_loss_account_id
		FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (s *Store) SelectableProjects(ctx context.Context, periodStart, today dates.Date) ([]*projects.Project, error) {
	// Same rule as projects.Project.Selectable, expressed in SQL.
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, active, start_date, end_date, profit_loss_account_id
		FROM projects
		WHERE active = 1
		  AND (start_date IS NULL OR start_date <= ? OR (start_date >= ? AND start_date <= ?))
		  AND (end_date IS NULL OR end_date >= ?)
		ORDER BY name`,
		periodStart.String(), periodStart.String(), today.String(), periodStart.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*projects.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProject(r rowScanner) (*projects.Project, error) {
	var p projects.Project
	var active int
	var start, end, accountID sql.NullString
	if err := r.Scan(&p.ID, &p.Name, &active, &start, &end, &accountID); err != nil {
		return nil, err
	}
	p.Active = active != 0
	var err error
	if p.StartDate, err = nullableDate(start); err != nil {
		return nil, err
	}
	if p.EndDate, err = nullableDate(end); err != nil {
		return nil, err
	}
	p.ProfitLossAccountID = accountID.String
	return &p, nil
}

// SaveAccount inserts or updates a profit/loss account record.
func (s *Store) SaveAccount(ctx context.Context, a *projects.ProfitLossAccount) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO profit_loss_accounts
			(id, name, accounting_string, account_type, as_start_date, as_end_date)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			accounting_string = excluded.accounting_string,
			account_type = excluded.account_type,
			as_start_date = excluded.as_start_date,
			as_end_date = excluded.as_end_date`,
		a.ID, a.Name, a.AccountingString, string(a.AccountType),
		a.AsStartDate.String(), a.AsEndDate.String())
	return err
}

func (s *Store) AccountByID(ctx context.Context, id string) (*projects.ProfitLossAccount, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, name, accounting_string, account_type, as_start_date, as_end_date
		FROM profit_loss_accounts WHERE id = ?`, id)

	var a projects.ProfitLossAccount
	var accountType, start, end string
	err := row.Scan(&a.ID, &a.Name, &a.AccountingString, &accountType, &start, &end)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.AccountType = projects.AccountType(accountType)
	if a.AsStartDate, err = dates.Parse(start); err != nil {
		return nil, err
	}
	if a.AsEndDate, err = dates.Parse(end); err != nil {
		return nil, err
	}
	return &a, nil
}

// =============================================================================
// EMPLOYEES DIRECTORY
// =============================================================================

// SaveUserData inserts or updates a user's record.
func (s *Store) SaveUserData(ctx context.Context, ud *employees.UserData) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO user_data
			(user_id, username, start_date, end_date, current_employee,
			 is_aws_eligible, profit_loss_account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			current_employee = excluded.current_employee,
			is_aws_eligible = excluded.is_aws_eligible,
			profit_loss_account_id = excluded.profit_loss_account_id`,
		ud.UserID, ud.Username, nullDate(ud.StartDate), nullDate(ud.EndDate),
		boolInt(ud.CurrentEmployee), boolInt(ud.IsAWSEligible),
		nullString(ud.ProfitLossAccountID))
	return err
}

func (s *Store) UserDataFor(ctx context.Context, userID string) (*employees.UserData, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT user_id, username, start_date, end_date, current_employee,
		       is_aws_eligible, profit_loss_account_id
		FROM user_data WHERE user_id = ?`, userID)

	var ud employees.UserData
	var current, aws int
	var start, end, accountID sql.NullString
	err := row.Scan(&ud.UserID, &ud.Username, &start, &end, &current, &aws, &accountID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ud.CurrentEmployee = current != 0
	ud.IsAWSEligible = aws != 0
	if ud.StartDate, err = nullableDate(start); err != nil {
		return nil, err
	}
	if ud.EndDate, err = nullableDate(end); err != nil {
		return nil, err
	}
	ud.ProfitLossAccountID = accountID.String
	return &ud, nil
}

// SaveGrade records a grade effective from its start date.
func (s *Store) SaveGrade(ctx context.Context, g *employees.EmployeeGrade) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO employee_grades (user_id, grade, grade_start_date)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, grade_start_date) DO UPDATE SET grade = excluded.grade`,
		g.UserID, g.Grade, g.GradeStartDate.String())
	return err
}

func (s *Store) GradeFor(ctx context.Context, userID string, asOf dates.Date) (*employees.EmployeeGrade, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT user_id, grade, grade_start_date
		FROM employee_grades
		WHERE user_id = ? AND grade_start_date <= ?
		ORDER BY grade_start_date DESC
		LIMIT 1`, userID, asOf.String())

	var g employees.EmployeeGrade
	var start string
	err := row.Scan(&g.UserID, &g.Grade, &start)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if g.GradeStartDate, err = dates.Parse(start); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) IsAWSEligible(ctx context.Context, userID string) (bool, error) {
	ud, err := s.UserDataFor(ctx, userID)
	if err != nil || ud == nil {
		return false, err
	}
	return ud.IsAWSEligible, nil
}

// =============================================================================
// HELPERS
// =============================================================================

const timeLayout = "2006-01-02 15:04:05"

func fmtTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullDate(d *dates.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableDate(s sql.NullString) (*dates.Date, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := dates.Parse(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func isUniqueViolation(err error) bool {
	// mattn/go-sqlite3 reports constraint failures in the error text; the
	// typed check would drag the driver's cgo error types into callers.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
