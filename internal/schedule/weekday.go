package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the symbolic weekday used by schedule documents.
type Weekday string

const (
	Sunday    Weekday = "SUN"
	Monday    Weekday = "MON"
	Tuesday   Weekday = "TUE"
	Wednesday Weekday = "WED"
	Thursday  Weekday = "THU"
	Friday    Weekday = "FRI"
	Saturday  Weekday = "SAT"
)

// weekdaySymbols is indexed by time.Weekday, which starts at Sunday.
var weekdaySymbols = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WeekdayOf maps a calendar date to its weekday symbol.
func WeekdayOf(date time.Time) Weekday {
	return weekdaySymbols[date.Weekday()]
}

// ParseWeekday accepts a weekday symbol in any letter case.
func ParseWeekday(value string) (Weekday, error) {
	candidate := Weekday(strings.ToUpper(strings.TrimSpace(value)))
	for _, symbol := range weekdaySymbols {
		if symbol == candidate {
			return symbol, nil
		}
	}
	return "", fmt.Errorf("schedule: unknown weekday %q", value)
}

// MarshalText implements encoding.TextMarshaler.
func (w Weekday) MarshalText() ([]byte, error) {
	if _, err := ParseWeekday(string(w)); err != nil {
		return nil, err
	}
	return []byte(w), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Weekday) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
