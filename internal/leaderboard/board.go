// Package leaderboard keeps the best daily scores.
package leaderboard

import (
	"sort"

	"github.com/verte-zerg/plantree/internal/model"
)

// MaxEntries is the number of entries kept on the board.
const MaxEntries = 30

// Board is a capped collection of daily scores, sorted descending by score.
// It holds at most one entry per date.
type Board struct {
	entries []model.LeaderboardEntry
}

// New builds a board from previously stored entries. Duplicate dates are
// folded, zero scores dropped and the result re-sorted and capped.
func New(entries []model.LeaderboardEntry) *Board {
	b := &Board{}
	for _, e := range entries {
		b.Submit(e.Date, e.Score)
	}
	return b
}

// Submit records score for date, keeping the best score per date.
// It reports whether the board changed.
func (b *Board) Submit(date string, score int) bool {
	if score <= 0 {
		return false
	}
	changed := false
	found := false
	for i := range b.entries {
		if b.entries[i].Date != date {
			continue
		}
		found = true
		if score > b.entries[i].Score {
			b.entries[i].Score = score
			changed = true
		}
		break
	}
	if !found {
		b.entries = append(b.entries, model.LeaderboardEntry{Date: date, Score: score})
		changed = true
	}
	if !changed {
		return false
	}
	sort.SliceStable(b.entries, func(i, j int) bool {
		return b.entries[i].Score > b.entries[j].Score
	})
	if len(b.entries) > MaxEntries {
		b.entries = b.entries[:MaxEntries]
		if !found && !b.has(date) {
			return false
		}
	}
	return true
}

func (b *Board) has(date string) bool {
	for _, e := range b.entries {
		if e.Date == date {
			return true
		}
	}
	return false
}

// Top returns a copy of the first n entries.
func (b *Board) Top(n int) []model.LeaderboardEntry {
	if n <= 0 || len(b.entries) == 0 {
		return nil
	}
	if n > len(b.entries) {
		n = len(b.entries)
	}
	out := make([]model.LeaderboardEntry, n)
	copy(out, b.entries[:n])
	return out
}

// Entries returns a copy of every entry.
func (b *Board) Entries() []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, len(b.entries))
	copy(out, b.entries)
	return out
}
