package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/plantree/internal/model"
)

func TestSubmitKeepsBestScorePerDate(t *testing.T) {
	b := New(nil)
	require.True(t, b.Submit("2024-05-01", 10))
	assert.False(t, b.Submit("2024-05-01", 7))

	assert.Equal(t, []model.LeaderboardEntry{{Date: "2024-05-01", Score: 10}}, b.Entries())

	require.True(t, b.Submit("2024-05-01", 12))
	assert.Equal(t, []model.LeaderboardEntry{{Date: "2024-05-01", Score: 12}}, b.Entries())
}

func TestSubmitZeroIsNoop(t *testing.T) {
	b := New([]model.LeaderboardEntry{{Date: "2024-05-01", Score: 4}})
	assert.False(t, b.Submit("2024-05-02", 0))
	assert.False(t, b.Submit("2024-05-01", 0))
	assert.Equal(t, []model.LeaderboardEntry{{Date: "2024-05-01", Score: 4}}, b.Entries())
}

func TestSubmitSortsDescendingAndStable(t *testing.T) {
	b := New(nil)
	b.Submit("2024-05-01", 5)
	b.Submit("2024-05-02", 9)
	b.Submit("2024-05-03", 5)
	b.Submit("2024-05-04", 1)

	want := []model.LeaderboardEntry{
		{Date: "2024-05-02", Score: 9},
		{Date: "2024-05-01", Score: 5},
		{Date: "2024-05-03", Score: 5},
		{Date: "2024-05-04", Score: 1},
	}
	assert.Equal(t, want, b.Entries())
}

func TestSubmitCapsEntries(t *testing.T) {
	b := New(nil)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 45; i++ {
		b.Submit(start.AddDate(0, 0, i).Format(model.DateLayout), i)
	}
	entries := b.Entries()
	require.Len(t, entries, MaxEntries)
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].Score, entries[i].Score)
	}
	assert.Equal(t, 45, entries[0].Score)
	assert.Equal(t, 16, entries[len(entries)-1].Score)
}

func TestNewNormalizesStoredEntries(t *testing.T) {
	b := New([]model.LeaderboardEntry{
		{Date: "2024-05-01", Score: 3},
		{Date: "2024-05-02", Score: 0},
		{Date: "2024-05-01", Score: 8},
		{Date: "2024-05-03", Score: 6},
	})
	want := []model.LeaderboardEntry{
		{Date: "2024-05-01", Score: 8},
		{Date: "2024-05-03", Score: 6},
	}
	assert.Equal(t, want, b.Entries())
}

func TestTop(t *testing.T) {
	b := New(nil)
	b.Submit("2024-05-01", 2)
	b.Submit("2024-05-02", 3)

	assert.Nil(t, b.Top(0))
	assert.Len(t, b.Top(1), 1)
	assert.Len(t, b.Top(10), 2)

	top := b.Top(1)
	top[0].Score = 100
	assert.Equal(t, 3, b.Entries()[0].Score, "Top must return a copy")
}

func TestSubmitBelowFullBoardReportsNoChange(t *testing.T) {
	b := New(nil)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= MaxEntries; i++ {
		require.True(t, b.Submit(start.AddDate(0, 0, i).Format(model.DateLayout), i+10))
	}
	before := b.Entries()

	assert.False(t, b.Submit("2024-03-01", 5), "entry cut by the cap")
	assert.False(t, b.Submit("2024-03-02", 11), "tie with the last entry keeps the older one")
	assert.Equal(t, before, b.Entries())

	require.True(t, b.Submit("2024-03-03", 12))
	entries := b.Entries()
	require.Len(t, entries, MaxEntries)
	assert.Equal(t, model.LeaderboardEntry{Date: "2024-03-03", Score: 12}, entries[len(entries)-1])
}
