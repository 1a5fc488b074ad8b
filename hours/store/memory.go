// Package store provides an in-memory hours.Store implementation
// (for testing/dev).
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/timecard-engine/dates"
	"github.com/warp/timecard-engine/hours"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	periods  []*hours.ReportingPeriod
	cards    map[string]*hours.Timecard          // by timecard ID
	cardKeys map[cardKey]string                  // (user, period) -> timecard ID
	entries  map[string][]*hours.TimecardObject  // by timecard ID
	users    map[string]string                   // user ID -> username, for exports
	projects map[string]string                   // project ID -> name, for exports
}

type cardKey struct {
	UserID   string
	PeriodID string
}

func NewMemory() *Memory {
	return &Memory{
		cards:    make(map[string]*hours.Timecard),
		cardKeys: make(map[cardKey]string),
		entries:  make(map[string][]*hours.TimecardObject),
		users:    make(map[string]string),
		projects: make(map[string]string),
	}
}

var _ hours.TxStore = (*Memory)(nil)

// RegisterUsername teaches the store a user's display name for exports.
func (m *Memory) RegisterUsername(userID, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = username
}

// RegisterProjectName teaches the store a project's name for exports.
func (m *Memory) RegisterProjectName(projectID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[projectID] = name
}

// =============================================================================
// REPORTING PERIODS
// =============================================================================

func (m *Memory) CreateReportingPeriod(_ context.Context, rp *hours.ReportingPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.periods {
		if existing.StartDate.Equal(rp.StartDate) || existing.EndDate.Equal(rp.EndDate) {
			return hours.ErrDuplicatePeriod
		}
	}
	cp := *rp
	m.periods = append(m.periods, &cp)
	// Keep list order: start date descending.
	sort.Slice(m.periods, func(i, j int) bool {
		return m.periods[i].StartDate.After(m.periods[j].StartDate)
	})
	return nil
}

func (m *Memory) ReportingPeriods(_ context.Context) ([]*hours.ReportingPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*hours.ReportingPeriod, len(m.periods))
	copy(out, m.periods)
	return out, nil
}

func (m *Memory) ReportingPeriodByStart(_ context.Context, start dates.Date) (*hours.ReportingPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rp := range m.periods {
		if rp.StartDate.Equal(start) {
			return rp, nil
		}
	}
	return nil, hours.ErrPeriodNotFound
}

// =============================================================================
// TIMECARDS
// =============================================================================

func (m *Memory) CreateTimecard(_ context.Context, tc *hours.Timecard) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := cardKey{UserID: tc.UserID, PeriodID: tc.ReportingPeriodID}
	if _, exists := m.cardKeys[k]; exists {
		return hours.ErrDuplicateTimecard
	}
	cp := *tc
	m.cards[tc.ID] = &cp
	m.cardKeys[k] = tc.ID
	return nil
}

func (m *Memory) TimecardFor(_ context.Context, userID, periodID string) (*hours.Timecard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.cardKeys[cardKey{UserID: userID, PeriodID: periodID}]
	if !ok {
		return nil, hours.ErrTimecardNotFound
	}
	cp := *m.cards[id]
	return &cp, nil
}

func (m *Memory) UpdateTimecard(_ context.Context, tc *hours.Timecard) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cards[tc.ID]; !ok {
		return hours.ErrTimecardNotFound
	}
	cp := *tc
	m.cards[tc.ID] = &cp
	return nil
}

func (m *Memory) LastSubmittedTimecard(_ context.Context, userID string, before dates.Date) (*hours.Timecard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// periods are sorted start desc; first submitted match wins.
	for _, rp := range m.periods {
		if !rp.StartDate.Before(before) {
			continue
		}
		id, ok := m.cardKeys[cardKey{UserID: userID, PeriodID: rp.ID}]
		if !ok {
			continue
		}
		if tc := m.cards[id]; tc.Submitted {
			cp := *tc
			return &cp, nil
		}
	}
	return nil, hours.ErrTimecardNotFound
}

// =============================================================================
// ENTRIES
// =============================================================================

func (m *Memory) EntriesFor(_ context.Context, timecardID string) ([]*hours.TimecardObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.entries[timecardID]
	out := make([]*hours.TimecardObject, len(src))
	for i, e := range src {
		cp := *e
		out[i] = &cp
	}
	return out, nil
}

func (m *Memory) ReplaceEntries(_ context.Context, timecardID string, entries []*hours.TimecardObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	replacement := make([]*hours.TimecardObject, len(entries))
	for i, e := range entries {
		cp := *e
		replacement[i] = &cp
	}
	m.entries[timecardID] = replacement
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

func (m *Memory) PeriodExport(_ context.Context, periodID string) ([]hours.ExportRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var period *hours.ReportingPeriod
	for _, rp := range m.periods {
		if rp.ID == periodID {
			period = rp
			break
		}
	}
	if period == nil {
		return nil, hours.ErrPeriodNotFound
	}

	var rows []hours.ExportRow
	for _, tc := range m.cards {
		if tc.ReportingPeriodID != periodID || !tc.Submitted {
			continue
		}
		for _, e := range m.entries[tc.ID] {
			rows = append(rows, hours.ExportRow{
				PeriodLabel: period.Label(),
				Modified:    tc.Modified,
				Username:    m.users[tc.UserID],
				ProjectName: m.projects[e.ProjectID],
				Hours:       e.Hours(),
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Username != rows[j].Username {
			return rows[i].Username < rows[j].Username
		}
		return rows[i].ProjectName < rows[j].ProjectName
	})
	return rows, nil
}

// WithTx runs fn against the store directly. The memory store offers no
// rollback; it exists for tests where each step is checked anyway.
func (m *Memory) WithTx(_ context.Context, fn func(hours.Store) error) error {
	return fn(m)
}
