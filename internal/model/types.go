// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for document keys and leaderboard entries.
const DateLayout = "2006-01-02"

// Default grove settings.
const (
	DefaultThresholdLow  = 35
	DefaultThresholdHigh = 50
	DefaultGrowthSpeed   = 25.0
	DefaultMergeCount    = 10
)

// Settings defines the growth rules of the grove.
type Settings struct {
	MorningMode   bool    `json:"morning_mode" yaml:"morning_mode"`
	ThresholdLow  int     `json:"threshold_low" yaml:"threshold_low"`
	ThresholdHigh int     `json:"threshold_high" yaml:"threshold_high"`
	GrowthSpeed   float64 `json:"growth_speed" yaml:"growth_speed"`
	MergeCount    int     `json:"merge_count" yaml:"merge_count"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		ThresholdLow:  DefaultThresholdLow,
		ThresholdHigh: DefaultThresholdHigh,
		GrowthSpeed:   DefaultGrowthSpeed,
		MergeCount:    DefaultMergeCount,
	}
}

// Validate reports the first invalid field.
func (s Settings) Validate() error {
	if s.ThresholdLow < 0 {
		return fmt.Errorf("threshold-low must be >= 0")
	}
	if s.ThresholdHigh < 0 {
		return fmt.Errorf("threshold-high must be >= 0")
	}
	if s.GrowthSpeed <= 0 {
		return fmt.Errorf("growth-speed must be > 0")
	}
	if s.MergeCount < 2 {
		return fmt.Errorf("merge-count must be >= 2")
	}
	return nil
}

// Counts holds the number of units at each tier.
type Counts struct {
	Seedlings int `json:"seedlings" yaml:"seedlings"`
	Trees     int `json:"trees" yaml:"trees"`
	Giants    int `json:"giants" yaml:"giants"`
}

// DayState is the progress of a single calendar day.
type DayState struct {
	Date     string  `json:"date" yaml:"date"`
	Progress float64 `json:"progress" yaml:"progress"`
	Counts   `yaml:",inline"`
}

// LeaderboardEntry is the best score reached on a date.
type LeaderboardEntry struct {
	Date  string `json:"date" yaml:"date"`
	Score int    `json:"score" yaml:"score"`
}

// DayScore is an archived daily result.
type DayScore struct {
	Date        string
	Score       int
	Counts      Counts
	MergeCount  int
	SubmittedAt time.Time
}

// FormatDate renders t as a local calendar date.
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format(DateLayout)
}

// ParseDate parses a calendar date in the local time zone.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.Local)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}
