package schedule

import (
	"fmt"
	"time"
)

// DefaultHorizonDays is how far ahead FindNextRule looks when callers have no preference.
const DefaultHorizonDays = 14

const dateLayout = "2006-01-02"

// Match pairs a rule with the calendar date it governs.
type Match struct {
	Rule Rule
	Date time.Time
}

// SessionID returns the session identifier for the matched occurrence.
func (m Match) SessionID() string {
	return DeriveSessionID(m.Rule.ID, m.Date)
}

// CanonicalDate formats the calendar date of t as zero-padded YYYY-MM-DD.
// The date is read in t's own location.
func CanonicalDate(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD calendar date at midnight in loc.
// A nil loc is treated as UTC.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	date, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: invalid date %q: %w", value, err)
	}
	return date, nil
}

// DeriveSessionID builds the identifier of the occurrence of ruleID on date.
//
// Canonical dates have a fixed width, so distinct (ruleID, date) pairs never
// produce the same identifier even when rule ids contain underscores.
func DeriveSessionID(ruleID string, date time.Time) string {
	return ruleID + "_" + CanonicalDate(date)
}

// FindRuleForDate returns the first rule, in configuration order, that runs on
// the weekday of date. Overlapping weekday claims are not rejected; list order
// decides.
func FindRuleForDate(cfg Config, date time.Time) (Rule, bool) {
	day := WeekdayOf(date)
	for _, rule := range cfg.Rules {
		if rule.RunsOn(day) {
			return rule, true
		}
	}
	return Rule{}, false
}

// FindNextRule scans the days strictly after from, up to horizonDays ahead,
// and returns the first date with an applicable rule. The from date itself is
// never considered.
func FindNextRule(cfg Config, from time.Time, horizonDays int) (Match, bool) {
	for offset := 1; offset <= horizonDays; offset++ {
		// AddDate keeps calendar arithmetic stable across DST transitions.
		date := from.AddDate(0, 0, offset)
		if rule, ok := FindRuleForDate(cfg, date); ok {
			return Match{Rule: rule, Date: date}, true
		}
	}
	return Match{}, false
}
