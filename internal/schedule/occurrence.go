package schedule

import (
	"errors"
	"time"
)

const (
	// DefaultUpcomingDays is the listing window when callers give none.
	DefaultUpcomingDays = 7
	// MaxUpcomingDays bounds the window Upcoming will expand.
	MaxUpcomingDays = 366
)

// ErrInvalidWindow indicates an expansion window outside 1..MaxUpcomingDays.
var ErrInvalidWindow = errors.New("schedule: window must span 1 to 366 days")

// Occurrence is a concrete run of a rule: the date it falls on, the derived
// session identifier and its start and end instants.
type Occurrence struct {
	Rule      Rule      `json:"rule"`
	Date      string    `json:"date"`
	SessionID string    `json:"sessionId"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// Occurrence expands m into its session identity and time window in the
// config timezone.
func (c Config) Occurrence(m Match) (Occurrence, error) {
	loc, err := c.Location()
	if err != nil {
		return Occurrence{}, err
	}
	start, end, err := m.Rule.Window(m.Date, loc)
	if err != nil {
		return Occurrence{}, err
	}
	return Occurrence{
		Rule:      m.Rule,
		Date:      CanonicalDate(m.Date),
		SessionID: m.SessionID(),
		Start:     start,
		End:       end,
	}, nil
}

// Upcoming expands the schedule over the calendar days [from, from+days) and
// returns one match per day that has a rule, in date order. Each day resolves
// exactly like FindRuleForDate.
func Upcoming(cfg Config, from time.Time, days int) ([]Match, error) {
	if days <= 0 || days > MaxUpcomingDays {
		return nil, ErrInvalidWindow
	}

	matches := make([]Match, 0, days)
	for offset := range days {
		date := from.AddDate(0, 0, offset)
		if rule, ok := FindRuleForDate(cfg, date); ok {
			matches = append(matches, Match{Rule: rule, Date: date})
		}
	}
	return matches, nil
}

// Occurrences expands every match with Config.Occurrence.
func (c Config) Occurrences(matches []Match) ([]Occurrence, error) {
	out := make([]Occurrence, 0, len(matches))
	for _, m := range matches {
		occ, err := c.Occurrence(m)
		if err != nil {
			return nil, err
		}
		out = append(out, occ)
	}
	return out, nil
}
