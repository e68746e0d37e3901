package testfixtures

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/activity-booking/internal/schedule"
)

// ScheduleOption configures the generated schedule config.
type ScheduleOption func(*schedule.Config)

// NewScheduleConfig returns a valid two-rule weekly schedule in UTC:
// "run" on MON/WED/FRI and "yoga" on TUE/THU.
func NewScheduleConfig(opts ...ScheduleOption) schedule.Config {
	cfg := schedule.Config{
		Timezone: "UTC",
		Rules: []schedule.Rule{
			{
				ID:         "run",
				Title:      "Morning run",
				DaysOfWeek: []schedule.Weekday{schedule.Monday, schedule.Wednesday, schedule.Friday},
				StartTime:  "07:00",
				EndTime:    "08:00",
				Capacity:   8,
				Location:   "River gate",
			},
			{
				ID:         "yoga",
				Title:      "Evening yoga",
				DaysOfWeek: []schedule.Weekday{schedule.Tuesday, schedule.Thursday},
				StartTime:  "19:00",
				EndTime:    "20:00",
				Capacity:   12,
			},
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithRules replaces the generated rule list.
func WithRules(rules ...schedule.Rule) ScheduleOption {
	return func(cfg *schedule.Config) {
		cfg.Rules = rules
	}
}

// WithTimezone overrides the config timezone.
func WithTimezone(tz string) ScheduleOption {
	return func(cfg *schedule.Config) {
		cfg.Timezone = tz
	}
}

// WriteScheduleFile stores cfg as JSON in a temporary directory and returns its path.
func WriteScheduleFile(tb testing.TB, cfg schedule.Config) string {
	tb.Helper()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		tb.Fatalf("marshal schedule config: %v", err)
	}
	path := filepath.Join(tb.TempDir(), "schedule.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write schedule config: %v", err)
	}
	return path
}
