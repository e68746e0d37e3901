// Package schedule resolves calendar dates to the recurring rules that govern
// them and derives the stable identifiers of the resulting sessions.
//
// Every resolver function is pure: the same configuration and date always
// yield the same rule, date and session id. Date stepping uses calendar days,
// so a date's weekday is read in the location the caller built it in.
package schedule
