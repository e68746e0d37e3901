package schedule

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validDocument = `{
  "timezone": "UTC",
  "rules": [
    {"id": "run", "title": "Morning run", "daysOfWeek": ["MON", "wed"], "startTime": "07:00", "endTime": "08:00", "capacity": 8, "location": "Park gate"},
    {"id": "yoga", "title": "Yoga", "daysOfWeek": ["TUE", "THU"], "startTime": "18:30", "endTime": "19:30", "capacity": 12, "notes": "Bring a mat"}
  ]
}`

func TestDecodeConfig(t *testing.T) {
	t.Parallel()

	t.Run("decodes a valid document", func(t *testing.T) {
		t.Parallel()

		cfg, err := DecodeConfig(strings.NewReader(validDocument))
		if err != nil {
			t.Fatalf("DecodeConfig returned error: %v", err)
		}
		if len(cfg.Rules) != 2 {
			t.Fatalf("expected 2 rules, got %d", len(cfg.Rules))
		}
		if got := cfg.Rules[0].DaysOfWeek; len(got) != 2 || got[1] != Wednesday {
			t.Fatalf("expected weekday symbols to be normalised, got %v", got)
		}
		if cfg.Rules[0].Location != "Park gate" || cfg.Rules[1].Notes != "Bring a mat" {
			t.Fatalf("optional fields were not decoded: %+v", cfg.Rules)
		}
	})

	tests := []struct {
		name     string
		document string
		contains string
	}{
		{name: "malformed json", document: `{"rules": [`, contains: "decode"},
		{name: "unknown field", document: `{"timezone": "UTC", "rules": [], "extra": true}`, contains: "decode"},
		{name: "unknown weekday", document: `{"rules": [{"id": "r", "title": "t", "daysOfWeek": ["FUNDAY"], "startTime": "07:00", "endTime": "08:00", "capacity": 1}]}`, contains: "decode"},
		{name: "trailing data", document: validDocument + ` this is not json`, contains: "after the document"},
		{name: "second document", document: validDocument + `{}`, contains: "after the document"},
		{name: "duplicate ids", document: `{"rules": [
			{"id": "r", "title": "t", "daysOfWeek": ["MON"], "startTime": "07:00", "endTime": "08:00", "capacity": 1},
			{"id": "r", "title": "t", "daysOfWeek": ["TUE"], "startTime": "07:00", "endTime": "08:00", "capacity": 1}]}`, contains: "duplicated"},
		{name: "non-positive capacity", document: `{"rules": [{"id": "r", "title": "t", "daysOfWeek": ["MON"], "startTime": "07:00", "endTime": "08:00", "capacity": 0}]}`, contains: "capacity must be positive"},
		{name: "inverted window", document: `{"rules": [{"id": "r", "title": "t", "daysOfWeek": ["MON"], "startTime": "09:00", "endTime": "08:00", "capacity": 1}]}`, contains: "before endTime"},
		{name: "bad clock", document: `{"rules": [{"id": "r", "title": "t", "daysOfWeek": ["MON"], "startTime": "7am", "endTime": "08:00", "capacity": 1}]}`, contains: "startTime"},
		{name: "single digit hour", document: `{"rules": [{"id": "r", "title": "t", "daysOfWeek": ["MON"], "startTime": "7:00", "endTime": "08:00", "capacity": 1}]}`, contains: "startTime"},
		{name: "seconds in clock", document: `{"rules": [{"id": "r", "title": "t", "daysOfWeek": ["MON"], "startTime": "07:00", "endTime": "08:00:00", "capacity": 1}]}`, contains: "endTime"},
		{name: "out of range clock", document: `{"rules": [{"id": "r", "title": "t", "daysOfWeek": ["MON"], "startTime": "24:00", "endTime": "25:00", "capacity": 1}]}`, contains: "startTime"},
		{name: "unknown timezone", document: `{"timezone": "Mars/Olympus", "rules": [{"id": "r", "title": "t", "daysOfWeek": ["MON"], "startTime": "07:00", "endTime": "08:00", "capacity": 1}]}`, contains: "timezone"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeConfig(strings.NewReader(tc.document))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.contains) {
				t.Fatalf("expected error to mention %q, got %q", tc.contains, err.Error())
			}
		})
	}
}

func TestDecodeConfig_EmptyRuleList(t *testing.T) {
	t.Parallel()

	cfg, err := DecodeConfig(strings.NewReader(`{"timezone": "UTC", "rules": []}`))
	if err != nil {
		t.Fatalf("DecodeConfig returned error: %v", err)
	}
	monday := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	if _, ok := FindRuleForDate(cfg, monday); ok {
		t.Fatalf("expected no rule for any date")
	}
	if _, ok := FindNextRule(cfg, monday, DefaultHorizonDays); ok {
		t.Fatalf("expected no next rule")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("reads the document from disk", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "schedule.json")
		if err := os.WriteFile(path, []byte(validDocument), 0o644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig returned error: %v", err)
		}
		if cfg.Rules[1].ID != "yoga" {
			t.Fatalf("unexpected rules: %+v", cfg.Rules)
		}
	})

	t.Run("missing file is fatal", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestRule_Window(t *testing.T) {
	t.Parallel()

	rule := Rule{StartTime: "18:30", EndTime: "19:45"}
	loc := time.FixedZone("KST", 9*60*60)

	start, end, err := rule.Window(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), loc)
	if err != nil {
		t.Fatalf("Window returned error: %v", err)
	}

	wantStart := time.Date(2024, time.March, 5, 18, 30, 0, 0, loc)
	if !start.Equal(wantStart) {
		t.Fatalf("expected start %s, got %s", wantStart, start)
	}
	if end.Sub(start) != 75*time.Minute {
		t.Fatalf("expected 75 minute window, got %s", end.Sub(start))
	}

	if _, _, err := (Rule{StartTime: "x", EndTime: "10:00"}).Window(start, loc); err == nil {
		t.Fatalf("expected error for malformed start time")
	}
}
