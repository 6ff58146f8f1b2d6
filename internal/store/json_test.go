package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/plantree/internal/model"
)

func TestLoadMissingDocumentsReturnDefaults(t *testing.T) {
	f := NewFiles(t.TempDir())

	main, err := f.LoadMain()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, DefaultMainDoc(), main)

	daily, err := f.LoadDaily()
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Empty(t, daily)

	board, err := f.LoadLeaderboard()
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Empty(t, board)
}

func TestLoadCorruptDocumentsReturnDefaults(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{MainFileName, DailyFileName, LeaderboardFileName} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{not json"), 0o644))
	}
	f := NewFiles(dir)

	main, err := f.LoadMain()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, DefaultMainDoc(), main)

	daily, err := f.LoadDaily()
	require.Error(t, err)
	assert.Empty(t, daily)

	board, err := f.LoadLeaderboard()
	require.Error(t, err)
	assert.Empty(t, board)
}

func TestMainRoundTrip(t *testing.T) {
	f := NewFiles(t.TempDir())
	doc := MainDoc{
		SchemaVersion: SchemaVersion,
		Totals:        model.Counts{Seedlings: 3, Trees: 4, Giants: 1},
		Settings: model.Settings{
			MorningMode:   true,
			ThresholdLow:  20,
			ThresholdHigh: 70,
			GrowthSpeed:   12.5,
			MergeCount:    5,
		},
		LastDate: "2024-05-01",
	}
	require.NoError(t, f.SaveMain(doc))

	got, err := f.LoadMain()
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestLoadMainFillsMissingSettings(t *testing.T) {
	dir := t.TempDir()
	body := `{"total_seedlings": 2, "total_trees": 1, "total_giants": 0, "merge_count": 4}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, MainFileName), []byte(body), 0o644))

	got, err := NewFiles(dir).LoadMain()
	require.NoError(t, err)
	assert.Nil(t, got.Legacy)
	assert.Equal(t, model.Counts{Seedlings: 2, Trees: 1}, got.Totals)
	assert.Equal(t, 4, got.Settings.MergeCount)
	assert.Equal(t, model.DefaultThresholdLow, got.Settings.ThresholdLow)
	assert.Equal(t, model.DefaultGrowthSpeed, got.Settings.GrowthSpeed)
}

func TestLoadMainRejectsInvalidSettings(t *testing.T) {
	dir := t.TempDir()
	body := `{"schema_version": 2, "merge_count": 1}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, MainFileName), []byte(body), 0o644))

	got, err := NewFiles(dir).LoadMain()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), got.Settings)
}

func TestLoadMainMigratesLegacyShape(t *testing.T) {
	dir := t.TempDir()
	body := `{
  "progress": 42.5,
  "seedlings": 3,
  "trees": 2,
  "giants": 1,
  "last_date": "2024-04-30"
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, MainFileName), []byte(body), 0o644))

	got, err := NewFiles(dir).LoadMain()
	require.NoError(t, err)
	require.NotNil(t, got.Legacy)
	assert.Equal(t, "2024-04-30", got.Legacy.Date)
	assert.Equal(t, 42.5, got.Legacy.Progress)
	assert.Equal(t, model.Counts{Seedlings: 3, Trees: 2, Giants: 1}, got.Legacy.Counts)
	assert.Equal(t, got.Legacy.Counts, got.Totals)
	assert.Equal(t, model.DefaultMergeCount, got.Settings.MergeCount)
}

func TestSaveDailyPrunesOldAndInvalidDates(t *testing.T) {
	f := NewFiles(t.TempDir())
	today := time.Date(2024, 5, 10, 15, 0, 0, 0, time.Local)
	doc := DailyDoc{
		"2024-05-10": {Progress: 10, Counts: model.Counts{Seedlings: 1}},
		"2024-05-03": {Counts: model.Counts{Trees: 1}},
		"2024-05-02": {Counts: model.Counts{Giants: 1}},
		"yesterday":  {Counts: model.Counts{Seedlings: 9}},
	}
	require.NoError(t, f.SaveDaily(doc, today))

	got, err := f.LoadDaily()
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "2024-05-10")
	assert.Contains(t, got, "2024-05-03")
	assert.Equal(t, "2024-05-10", got["2024-05-10"].Date)
	assert.Equal(t, 10.0, got["2024-05-10"].Progress)
}

func TestSaveIsByteIdentical(t *testing.T) {
	dir := t.TempDir()
	f := NewFiles(dir)
	today := time.Date(2024, 5, 10, 9, 0, 0, 0, time.Local)
	doc := DailyDoc{
		"2024-05-10": {Progress: 1.5, Counts: model.Counts{Seedlings: 2}},
		"2024-05-09": {Counts: model.Counts{Trees: 3}},
	}
	entries := []model.LeaderboardEntry{{Date: "2024-05-09", Score: 30}}

	read := func() map[string][]byte {
		out := map[string][]byte{}
		for _, name := range []string{DailyFileName, LeaderboardFileName} {
			data, err := os.ReadFile(filepath.Join(dir, name))
			require.NoError(t, err)
			out[name] = data
		}
		return out
	}

	require.NoError(t, f.SaveDaily(doc, today))
	require.NoError(t, f.SaveLeaderboard(entries))
	first := read()
	require.NoError(t, f.SaveDaily(doc, today))
	require.NoError(t, f.SaveLeaderboard(entries))
	assert.Equal(t, first, read())
}

func TestSaveLeaderboardWritesEmptyArray(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewFiles(dir).SaveLeaderboard(nil))
	data, err := os.ReadFile(filepath.Join(dir, LeaderboardFileName))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}
