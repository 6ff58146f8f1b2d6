package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/plantree/internal/model"
)

// RenderLeaderboard prints ranked entries as an aligned table.
func RenderLeaderboard(w io.Writer, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No leaderboard entries yet.")
		return err
	}
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Date, strconv.Itoa(e.Score)})
	}
	for _, line := range formatTable([]string{"#", "Date", "Score"}, rows, map[int]bool{0: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCounts prints tier counts and scores for today and all time.
func RenderCounts(w io.Writer, daily, total model.Counts, dailyScore, totalScore int) error {
	rows := [][]string{
		{"Seedlings", strconv.Itoa(daily.Seedlings), strconv.Itoa(total.Seedlings)},
		{"Trees", strconv.Itoa(daily.Trees), strconv.Itoa(total.Trees)},
		{"Giants", strconv.Itoa(daily.Giants), strconv.Itoa(total.Giants)},
		{"Score", strconv.Itoa(dailyScore), strconv.Itoa(totalScore)},
	}
	for _, line := range formatTable([]string{"", "Today", "Total"}, rows, map[int]bool{1: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// TrendWindowDays is the rolling window of the history trend line.
const TrendWindowDays = 7

// RenderHistory prints a summary of archived days and a score sparkline no
// wider than width.
func RenderHistory(w io.Writer, days []model.DayScore, width int) error {
	if len(days) == 0 {
		_, err := fmt.Fprintln(w, "No archived days found.")
		return err
	}
	best := days[0]
	var total int
	values := make([]float64, len(days))
	for i, d := range days {
		total += d.Score
		values[i] = float64(d.Score)
		if d.Score > best.Score {
			best = d
		}
	}
	if _, err := fmt.Fprintln(w, "History"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Days: %d (%s .. %s)\n", len(days), days[0].Date, days[len(days)-1].Date); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best: %d on %s\n", best.Score, best.Date); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg score: %.2f\n", float64(total)/float64(len(days))); err != nil {
		return err
	}
	trend := RollingMean(values, TrendWindowDays)
	if _, err := fmt.Fprintf(w, "%d-day avg: %.2f\n", TrendWindowDays, trend[len(trend)-1]); err != nil {
		return err
	}
	if width > 0 && len(values) > width {
		values = values[len(values)-width:]
		trend = trend[len(trend)-width:]
	}
	if _, err := fmt.Fprintf(w, "Scores: %s\n", Sparkline(values)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trend:  %s\n", Sparkline(trend)); err != nil {
		return err
	}
	return nil
}
