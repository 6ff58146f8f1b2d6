// Package grove turns loudness samples into growing trees.
package grove

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/plantree/internal/leaderboard"
	"github.com/verte-zerg/plantree/internal/model"
	"github.com/verte-zerg/plantree/internal/store"
)

const (
	// TickSeconds is the simulated time covered by one Update call.
	TickSeconds = 0.01
	// FullProgress is the progress at which a seedling is planted.
	FullProgress = 100.0

	quietDecayFactor = 0.92
	loudDecayStep    = 0.1
)

// Store persists the three grove documents.
type Store interface {
	LoadMain() (store.MainDoc, error)
	SaveMain(doc store.MainDoc) error
	LoadDaily() (store.DailyDoc, error)
	SaveDaily(doc store.DailyDoc, today time.Time) error
	LoadLeaderboard() ([]model.LeaderboardEntry, error)
	SaveLeaderboard(entries []model.LeaderboardEntry) error
}

// Archive keeps submitted daily scores beyond the leaderboard window.
type Archive interface {
	Record(ctx context.Context, day model.DayScore) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithArchive records every submitted score in a.
func WithArchive(a Archive) Option {
	return func(m *Manager) { m.archive = a }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClock overrides the wall clock used for dates.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager is the grove state machine. It is not safe for concurrent use;
// the host drives it from a single goroutine.
type Manager struct {
	settings model.Settings
	day      model.DayState
	totals   model.Counts
	daily    store.DailyDoc
	board    *leaderboard.Board

	store   Store
	archive Archive
	log     *zap.Logger
	now     func() time.Time
}

// New returns a Manager with default settings for today. Call LoadState to
// restore persisted progress.
func New(st Store, opts ...Option) *Manager {
	m := &Manager{
		settings: model.DefaultSettings(),
		daily:    store.DailyDoc{},
		board:    leaderboard.New(nil),
		store:    st,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.day = model.DayState{Date: m.today()}
	return m
}

// Update advances the grove by one tick and reports whether a seedling was
// planted.
func (m *Manager) Update(loudness int) bool {
	s := m.settings
	growth := s.GrowthSpeed * TickSeconds
	p := m.day.Progress
	if s.MorningMode {
		if loudness > s.ThresholdHigh {
			p += growth
		} else {
			p -= loudDecayStep
			if p < 0 {
				p = 0
			}
		}
	} else {
		if loudness < s.ThresholdLow {
			p += growth
		} else {
			p *= quietDecayFactor
		}
	}

	if p < FullProgress {
		m.day.Progress = p
		return false
	}
	m.day.Progress = 0
	m.day.Seedlings++
	m.totals.Seedlings++
	Merge(&m.day.Counts, s.MergeCount)
	Merge(&m.totals, s.MergeCount)
	return true
}

// Progress returns today's progress toward the next seedling, 0..100.
func (m *Manager) Progress() float64 {
	return m.day.Progress
}

// Date returns the calendar date of the active day.
func (m *Manager) Date() string {
	return m.day.Date
}

// Settings returns the active settings.
func (m *Manager) Settings() model.Settings {
	return m.settings
}

// ApplySettings replaces the settings after validating them. Accumulated
// counts are kept as they are, even when the merge count changes.
func (m *Manager) ApplySettings(s model.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.settings = s
	return nil
}

// DailyCounts returns today's tier counts.
func (m *Manager) DailyCounts() model.Counts {
	return m.day.Counts
}

// TotalCounts returns the cumulative tier counts.
func (m *Manager) TotalCounts() model.Counts {
	return m.totals
}

// DailyScore returns today's score under the current merge count.
func (m *Manager) DailyScore() int {
	return Score(m.day.Counts, m.settings.MergeCount)
}

// TotalScore returns the cumulative score under the current merge count.
func (m *Manager) TotalScore() int {
	return Score(m.totals, m.settings.MergeCount)
}

// SubmitDailyScore pushes the active day's score to the leaderboard and the
// archive. Zero scores are ignored.
func (m *Manager) SubmitDailyScore() {
	score := m.DailyScore()
	if score == 0 {
		return
	}
	if m.board.Submit(m.day.Date, score) {
		if err := m.store.SaveLeaderboard(m.board.Entries()); err != nil {
			m.log.Warn("failed to save leaderboard", zap.Error(err))
		}
	}
	if m.archive == nil {
		return
	}
	day := model.DayScore{
		Date:        m.day.Date,
		Score:       score,
		Counts:      m.day.Counts,
		MergeCount:  m.settings.MergeCount,
		SubmittedAt: m.now(),
	}
	if err := m.archive.Record(context.Background(), day); err != nil {
		m.log.Warn("failed to archive daily score", zap.String("date", day.Date), zap.Error(err))
	}
}

// ResetDaily clears today's progress and counts. Totals are untouched.
func (m *Manager) ResetDaily() {
	m.day.Progress = 0
	m.day.Counts = model.Counts{}
	m.daily[m.day.Date] = m.day
}

// Reset submits today's score and then clears the day.
func (m *Manager) Reset() {
	m.SubmitDailyScore()
	m.ResetDaily()
}

// Rollover closes the active day when today differs from it: the day's score
// is submitted, the day is cleared and today becomes active. It reports
// whether a rollover happened.
func (m *Manager) Rollover(today string) bool {
	if today == "" || today == m.day.Date {
		return false
	}
	m.log.Info("day rollover", zap.String("from", m.day.Date), zap.String("to", today))
	m.SubmitDailyScore()
	m.daily[m.day.Date] = m.day
	next, ok := m.daily[today]
	if !ok {
		next = model.DayState{}
	}
	next.Date = today
	m.day = next
	return true
}

// CheckRollover rolls over to the current wall-clock date if needed.
func (m *Manager) CheckRollover() bool {
	return m.Rollover(m.today())
}

// TopLeaderboardEntries returns the n best days.
func (m *Manager) TopLeaderboardEntries(n int) []model.LeaderboardEntry {
	return m.board.Top(n)
}

// LoadState restores settings, totals, the daily window and the leaderboard.
// Missing or unreadable documents fall back to defaults. A day left open by
// a previous run is submitted before today becomes active.
func (m *Manager) LoadState() {
	main, err := m.store.LoadMain()
	m.readFailed(store.MainFileName, err)
	m.settings = main.Settings
	m.totals = main.Totals

	daily, err := m.store.LoadDaily()
	m.readFailed(store.DailyFileName, err)
	if daily == nil {
		daily = store.DailyDoc{}
	}
	today := m.today()
	lastDate := main.LastDate
	if main.Legacy != nil {
		legacy := *main.Legacy
		if legacy.Date == "" {
			legacy.Date = today
		}
		if _, ok := daily[legacy.Date]; !ok {
			daily[legacy.Date] = legacy
		}
		lastDate = legacy.Date
		m.log.Info("migrated legacy progress document", zap.String("date", lastDate))
	}
	for date, day := range daily {
		daily[date] = m.sanitizeDay(day)
	}
	m.totals = clampCounts(m.totals)
	m.daily = daily

	entries, err := m.store.LoadLeaderboard()
	m.readFailed(store.LeaderboardFileName, err)
	m.board = leaderboard.New(entries)

	if lastDate == "" {
		lastDate = today
	}
	prev, ok := daily[lastDate]
	if !ok {
		prev = model.DayState{}
	}
	prev.Date = lastDate
	m.day = prev
	m.Rollover(today)
}

// PersistState writes all three documents. Failures are logged and returned;
// the in-memory state stays authoritative.
func (m *Manager) PersistState() error {
	now := m.now()
	m.daily[m.day.Date] = m.day
	m.daily = store.PruneDaily(m.daily, now)

	var errs []error
	main := store.MainDoc{
		SchemaVersion: store.SchemaVersion,
		Totals:        m.totals,
		Settings:      m.settings,
		LastDate:      m.day.Date,
	}
	if err := m.store.SaveMain(main); err != nil {
		errs = append(errs, err)
	}
	if err := m.store.SaveDaily(m.daily, now); err != nil {
		errs = append(errs, err)
	}
	if err := m.store.SaveLeaderboard(m.board.Entries()); err != nil {
		errs = append(errs, err)
	}
	err := errors.Join(errs...)
	if err != nil {
		m.log.Warn("failed to persist state", zap.Error(err))
	}
	return err
}

// sanitizeDay resets values no update could have produced: progress outside
// [0, FullProgress) and negative counts.
func (m *Manager) sanitizeDay(day model.DayState) model.DayState {
	if math.IsNaN(day.Progress) || math.IsInf(day.Progress, 0) || day.Progress < 0 || day.Progress >= FullProgress {
		m.log.Warn("discarding out-of-range progress", zap.String("date", day.Date), zap.Float64("progress", day.Progress))
		day.Progress = 0
	}
	day.Counts = clampCounts(day.Counts)
	return day
}

func clampCounts(c model.Counts) model.Counts {
	c.Seedlings = max(c.Seedlings, 0)
	c.Trees = max(c.Trees, 0)
	c.Giants = max(c.Giants, 0)
	return c
}

func (m *Manager) readFailed(name string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		m.log.Debug("document missing, using defaults", zap.String("document", name))
		return
	}
	m.log.Warn("document unreadable, using defaults", zap.String("document", name), zap.Error(err))
}

func (m *Manager) today() string {
	return model.FormatDate(m.now())
}
