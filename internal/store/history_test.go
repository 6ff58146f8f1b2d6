package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/plantree/internal/model"
)

func TestHistoryRecordKeepsBest(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), HistoryFileName))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() {
		_ = h.Close()
	})

	ctx := context.Background()
	at := time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC)
	days := []model.DayScore{
		{Date: "2024-05-01", Score: 10, Counts: model.Counts{Trees: 1}, MergeCount: 10, SubmittedAt: at},
		{Date: "2024-05-01", Score: 7, Counts: model.Counts{Seedlings: 7}, MergeCount: 10, SubmittedAt: at},
		{Date: "2024-05-02", Score: 0, MergeCount: 10, SubmittedAt: at},
		{Date: "2024-05-03", Score: 4, Counts: model.Counts{Seedlings: 4}, MergeCount: 10, SubmittedAt: at},
	}
	for _, day := range days {
		if err := h.Record(ctx, day); err != nil {
			t.Fatalf("record %s: %v", day.Date, err)
		}
	}

	got, err := h.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 days, got %d", len(got))
	}
	if got[0].Date != "2024-05-01" || got[0].Score != 10 || got[0].Counts.Trees != 1 {
		t.Fatalf("unexpected first day: %+v", got[0])
	}
	if !got[0].SubmittedAt.Equal(at) {
		t.Fatalf("unexpected submitted at: %v", got[0].SubmittedAt)
	}
	if got[1].Date != "2024-05-03" {
		t.Fatalf("unexpected second day: %+v", got[1])
	}
}

func TestHistoryListFilters(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), HistoryFileName))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() {
		_ = h.Close()
	})

	ctx := context.Background()
	for i, date := range []string{"2024-05-01", "2024-05-02", "2024-05-03", "2024-05-04"} {
		if err := h.Record(ctx, model.DayScore{Date: date, Score: i + 1, MergeCount: 10}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	since, err := h.List(ctx, "2024-05-02", 0)
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(since) != 3 || since[0].Date != "2024-05-02" {
		t.Fatalf("unexpected since result: %+v", since)
	}

	last, err := h.List(ctx, "", 2)
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if len(last) != 2 || last[0].Date != "2024-05-03" || last[1].Date != "2024-05-04" {
		t.Fatalf("unexpected last result: %+v", last)
	}
}
