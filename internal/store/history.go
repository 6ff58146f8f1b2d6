package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/plantree/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// HistoryFileName is the SQLite archive inside the data directory.
const HistoryFileName = "plantree.db"

// History archives every submitted daily score in SQLite. Unlike the
// leaderboard it is never truncated.
type History struct {
	db *sql.DB
}

// OpenHistory opens or creates the archive database and applies migrations.
func OpenHistory(path string) (*History, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	h := &History{db: db}
	if err := h.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return h, nil
}

// Close closes the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS day_scores (
			date TEXT PRIMARY KEY,
			score INTEGER NOT NULL,
			seedlings INTEGER NOT NULL,
			trees INTEGER NOT NULL,
			giants INTEGER NOT NULL,
			merge_count INTEGER NOT NULL,
			submitted_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_day_scores_score ON day_scores(score);`,
	}
	for _, stmt := range stmts {
		if _, err := h.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record upserts a daily score. An existing row is only replaced when the
// new score is higher.
func (h *History) Record(ctx context.Context, day model.DayScore) error {
	if day.Score <= 0 {
		return nil
	}
	submittedAt := day.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO day_scores (date, score, seedlings, trees, giants, merge_count, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET
			score = excluded.score,
			seedlings = excluded.seedlings,
			trees = excluded.trees,
			giants = excluded.giants,
			merge_count = excluded.merge_count,
			submitted_at = excluded.submitted_at
		 WHERE excluded.score > day_scores.score`,
		day.Date,
		day.Score,
		day.Counts.Seedlings,
		day.Counts.Trees,
		day.Counts.Giants,
		day.MergeCount,
		submittedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", day.Date, err)
	}
	return nil
}

// List returns archived days in ascending date order. since filters by date
// (inclusive) when non-empty; last keeps only the most recent days when > 0.
func (h *History) List(ctx context.Context, since string, last int) ([]model.DayScore, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if since != "" {
		clauses = append(clauses, "date >= ?")
		args = append(args, since)
	}
	query := fmt.Sprintf(`SELECT date, score, seedlings, trees, giants, merge_count, submitted_at
		FROM day_scores
		WHERE %s
		ORDER BY date ASC`, strings.Join(clauses, " AND "))
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var days []model.DayScore
	for rows.Next() {
		var day model.DayScore
		var submittedAt string
		if err := rows.Scan(&day.Date, &day.Score, &day.Counts.Seedlings, &day.Counts.Trees, &day.Counts.Giants, &day.MergeCount, &submittedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, submittedAt)
		if err != nil {
			return nil, err
		}
		day.SubmittedAt = parsed
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if last > 0 && len(days) > last {
		days = days[len(days)-last:]
	}
	return days, nil
}
