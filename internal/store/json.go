// Package store handles on-disk persistence of the grove.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/plantree/internal/model"
)

// SchemaVersion is the version written to the main document.
const SchemaVersion = 2

// DailyWindowDays is how many whole days of daily state are retained.
const DailyWindowDays = 7

// File names inside the data directory.
const (
	MainFileName        = "progress.json"
	DailyFileName       = "daily.json"
	LeaderboardFileName = "leaderboard.json"
)

// ErrNotFound is returned when a document does not exist yet.
var ErrNotFound = errors.New("document not found")

// MainDoc is the cumulative document: totals and settings.
type MainDoc struct {
	SchemaVersion int
	Totals        model.Counts
	Settings      model.Settings
	LastDate      string

	// Legacy is set when the document was migrated from the flat legacy
	// shape; it carries the day the flat counters belonged to.
	Legacy *model.DayState
}

// DailyDoc maps a calendar date to that day's state.
type DailyDoc map[string]model.DayState

// DefaultMainDoc returns the main document used when none is stored.
func DefaultMainDoc() MainDoc {
	return MainDoc{
		SchemaVersion: SchemaVersion,
		Settings:      model.DefaultSettings(),
	}
}

type mainFile struct {
	SchemaVersion  *int     `json:"schema_version,omitempty"`
	TotalSeedlings int      `json:"total_seedlings"`
	TotalTrees     int      `json:"total_trees"`
	TotalGiants    int      `json:"total_giants"`
	MergeCount     *int     `json:"merge_count,omitempty"`
	MorningMode    *bool    `json:"morning_mode,omitempty"`
	ThresholdLow   *int     `json:"threshold_low,omitempty"`
	ThresholdHigh  *int     `json:"threshold_high,omitempty"`
	GrowthSpeed    *float64 `json:"growth_speed,omitempty"`
	LastDate       string   `json:"last_date,omitempty"`

	// Flat legacy fields.
	Progress  *float64 `json:"progress,omitempty"`
	Seedlings *int     `json:"seedlings,omitempty"`
	Trees     *int     `json:"trees,omitempty"`
	Giants    *int     `json:"giants,omitempty"`
}

// Files stores the three JSON documents in a directory.
type Files struct {
	dir string
}

// NewFiles returns a store rooted at dir.
func NewFiles(dir string) *Files {
	return &Files{dir: dir}
}

// Dir returns the data directory.
func (f *Files) Dir() string {
	return f.dir
}

// LoadMain reads the main document. On any error the default document is
// returned together with the reason.
func (f *Files) LoadMain() (MainDoc, error) {
	var raw mainFile
	if err := readJSON(filepath.Join(f.dir, MainFileName), &raw); err != nil {
		return DefaultMainDoc(), err
	}
	return decodeMain(raw), nil
}

// SaveMain writes the main document.
func (f *Files) SaveMain(doc MainDoc) error {
	version := SchemaVersion
	s := doc.Settings
	raw := mainFile{
		SchemaVersion:  &version,
		TotalSeedlings: doc.Totals.Seedlings,
		TotalTrees:     doc.Totals.Trees,
		TotalGiants:    doc.Totals.Giants,
		MergeCount:     &s.MergeCount,
		MorningMode:    &s.MorningMode,
		ThresholdLow:   &s.ThresholdLow,
		ThresholdHigh:  &s.ThresholdHigh,
		GrowthSpeed:    &s.GrowthSpeed,
		LastDate:       doc.LastDate,
	}
	return writeJSON(filepath.Join(f.dir, MainFileName), raw)
}

// LoadDaily reads the daily document. On any error an empty document is
// returned together with the reason.
func (f *Files) LoadDaily() (DailyDoc, error) {
	doc := DailyDoc{}
	if err := readJSON(filepath.Join(f.dir, DailyFileName), &doc); err != nil {
		return DailyDoc{}, err
	}
	if doc == nil {
		doc = DailyDoc{}
	}
	return doc, nil
}

// SaveDaily prunes doc relative to today and writes it.
func (f *Files) SaveDaily(doc DailyDoc, today time.Time) error {
	return writeJSON(filepath.Join(f.dir, DailyFileName), PruneDaily(doc, today))
}

// LoadLeaderboard reads the leaderboard document. On any error an empty list
// is returned together with the reason.
func (f *Files) LoadLeaderboard() ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	if err := readJSON(filepath.Join(f.dir, LeaderboardFileName), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveLeaderboard writes the leaderboard document.
func (f *Files) SaveLeaderboard(entries []model.LeaderboardEntry) error {
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	return writeJSON(filepath.Join(f.dir, LeaderboardFileName), entries)
}

// PruneDaily returns the entries of doc whose date parses and lies no more
// than DailyWindowDays whole days before today.
func PruneDaily(doc DailyDoc, today time.Time) DailyDoc {
	out := make(DailyDoc, len(doc))
	for key, day := range doc {
		date, err := model.ParseDate(key)
		if err != nil {
			continue
		}
		if model.DaysBetween(date, today) > DailyWindowDays {
			continue
		}
		day.Date = key
		out[key] = day
	}
	return out
}

func decodeMain(raw mainFile) MainDoc {
	doc := DefaultMainDoc()
	doc.Totals = model.Counts{
		Seedlings: raw.TotalSeedlings,
		Trees:     raw.TotalTrees,
		Giants:    raw.TotalGiants,
	}
	if raw.MergeCount != nil {
		doc.Settings.MergeCount = *raw.MergeCount
	}
	if raw.MorningMode != nil {
		doc.Settings.MorningMode = *raw.MorningMode
	}
	if raw.ThresholdLow != nil {
		doc.Settings.ThresholdLow = *raw.ThresholdLow
	}
	if raw.ThresholdHigh != nil {
		doc.Settings.ThresholdHigh = *raw.ThresholdHigh
	}
	if raw.GrowthSpeed != nil {
		doc.Settings.GrowthSpeed = *raw.GrowthSpeed
	}
	if doc.Settings.Validate() != nil {
		doc.Settings = model.DefaultSettings()
	}
	doc.LastDate = raw.LastDate

	if raw.SchemaVersion == nil && isLegacy(raw) {
		legacy := model.DayState{Date: raw.LastDate}
		if raw.Progress != nil {
			legacy.Progress = *raw.Progress
		}
		legacy.Counts = model.Counts{
			Seedlings: intOrZero(raw.Seedlings),
			Trees:     intOrZero(raw.Trees),
			Giants:    intOrZero(raw.Giants),
		}
		doc.Totals = legacy.Counts
		doc.Legacy = &legacy
	}
	return doc
}

func isLegacy(raw mainFile) bool {
	return raw.Progress != nil || raw.Seedlings != nil || raw.Trees != nil || raw.Giants != nil
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
