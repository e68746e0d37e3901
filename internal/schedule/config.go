package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ErrInvalidConfig indicates the schedule document is missing, malformed, or fails validation.
var ErrInvalidConfig = errors.New("schedule: invalid config")

// Rule is a recurring template for one activity.
type Rule struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	DaysOfWeek []Weekday `json:"daysOfWeek"`
	StartTime  string    `json:"startTime"`
	EndTime    string    `json:"endTime"`
	Capacity   int       `json:"capacity"`
	Location   string    `json:"location,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// Config is the ordered rule list plus the timezone the rules are written in.
type Config struct {
	Timezone string `json:"timezone"`
	Rules    []Rule `json:"rules"`
}

// RunsOn reports whether the rule applies on day.
func (r Rule) RunsOn(day Weekday) bool {
	for _, candidate := range r.DaysOfWeek {
		if candidate == day {
			return true
		}
	}
	return false
}

// Window returns the start and end instants of the rule's occurrence on the
// calendar date of date, interpreted in loc. A nil loc is treated as UTC.
func (r Rule) Window(date time.Time, loc *time.Location) (start, end time.Time, err error) {
	if loc == nil {
		loc = time.UTC
	}
	startClock, err := parseClock(r.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endClock, err := parseClock(r.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	y, m, d := date.Date()
	start = time.Date(y, m, d, startClock.hour, startClock.minute, 0, 0, loc)
	end = time.Date(y, m, d, endClock.hour, endClock.minute, 0, 0, loc)
	return start, end, nil
}

// Location resolves the configured timezone. An empty timezone means UTC.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, name, err)
	}
	return loc, nil
}

// LoadConfig reads and validates the schedule document at path.
// There is no fallback: callers are expected to abort when this fails.
func LoadConfig(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	defer file.Close()

	return DecodeConfig(file)
}

// DecodeConfig strictly decodes and validates a schedule document.
func DecodeConfig(r io.Reader) (Config, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decode: %v", ErrInvalidConfig, err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: decode: unexpected data after the document", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every rule and reports all problems at once.
func (c Config) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if _, err := c.Location(); err != nil {
		problems = append(problems, err)
	}

	seen := make(map[string]struct{}, len(c.Rules))
	for i, rule := range c.Rules {
		id := strings.TrimSpace(rule.ID)
		switch {
		case id == "":
			add("rules[%d].id is required", i)
		default:
			if _, dup := seen[id]; dup {
				add("rules[%d].id %q is duplicated", i, id)
			}
			seen[id] = struct{}{}
		}
		if strings.TrimSpace(rule.Title) == "" {
			add("rules[%d].title is required", i)
		}
		if len(rule.DaysOfWeek) == 0 {
			add("rules[%d].daysOfWeek must not be empty", i)
		}
		if rule.Capacity <= 0 {
			add("rules[%d].capacity must be positive", i)
		}

		start, startErr := parseClock(rule.StartTime)
		if startErr != nil {
			add("rules[%d].startTime: %v", i, startErr)
		}
		end, endErr := parseClock(rule.EndTime)
		if endErr != nil {
			add("rules[%d].endTime: %v", i, endErr)
		}
		if startErr == nil && endErr == nil && !start.before(end) {
			add("rules[%d].startTime must be before endTime", i)
		}
	}

	return errors.Join(problems...)
}

type clock struct {
	hour   int
	minute int
}

func (c clock) before(other clock) bool {
	return c.hour*60+c.minute < other.hour*60+other.minute
}

func parseClock(value string) (clock, error) {
	if !isClockLayout(value) {
		return clock{}, fmt.Errorf("invalid HH:MM time %q", value)
	}
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return clock{}, fmt.Errorf("invalid HH:MM time %q", value)
	}
	return clock{hour: parsed.Hour(), minute: parsed.Minute()}, nil
}

// isClockLayout reports whether value is exactly two digits, a colon and two
// digits. time.Parse alone also accepts a single-digit hour.
func isClockLayout(value string) bool {
	if len(value) != 5 || value[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
