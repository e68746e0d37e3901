package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/activity-booking/internal/schedule"
)

var errNoRule = errors.New("no schedule rule matches")

func newResolveCmd() *cobra.Command {
	var (
		date   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the rule and session id governing a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loc, err := loadSchedule(cmd)
			if err != nil {
				return err
			}
			day, err := schedule.ParseDate(date, loc)
			if err != nil {
				return err
			}
			rule, ok := schedule.FindRuleForDate(cfg, day)
			if !ok {
				return fmt.Errorf("%w %s (%s)", errNoRule, schedule.CanonicalDate(day), schedule.WeekdayOf(day))
			}
			return printOccurrence(cmd.OutOrStdout(), cfg, schedule.Match{Rule: rule, Date: day}, asJSON)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "calendar date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the occurrence as JSON")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newNextCmd() *cobra.Command {
	var (
		from    string
		horizon int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next rule occurrence strictly after a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loc, err := loadSchedule(cmd)
			if err != nil {
				return err
			}
			start := time.Now().In(loc)
			if from != "" {
				if start, err = schedule.ParseDate(from, loc); err != nil {
					return err
				}
			}
			match, ok := schedule.FindNextRule(cfg, start, horizon)
			if !ok {
				return fmt.Errorf("%w within %d days after %s", errNoRule, horizon, schedule.CanonicalDate(start))
			}
			return printOccurrence(cmd.OutOrStdout(), cfg, match, asJSON)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start date, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&horizon, "horizon", schedule.DefaultHorizonDays, "days to scan after the start date")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the occurrence as JSON")
	return cmd
}

func newUpcomingCmd() *cobra.Command {
	var (
		from   string
		days   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List every rule occurrence in a window of days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loc, err := loadSchedule(cmd)
			if err != nil {
				return err
			}
			start := time.Now().In(loc)
			if from != "" {
				if start, err = schedule.ParseDate(from, loc); err != nil {
					return err
				}
			}
			matches, err := schedule.Upcoming(cfg, start, days)
			if err != nil {
				return err
			}
			if asJSON {
				occs, err := cfg.Occurrences(matches)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(occs)
			}
			for _, m := range matches {
				if err := printOccurrence(cmd.OutOrStdout(), cfg, m, false); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&days, "days", schedule.DefaultUpcomingDays, "number of days to list, including the first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the occurrences as a JSON array")
	return cmd
}

func loadSchedule(cmd *cobra.Command) (schedule.Config, *time.Location, error) {
	path, _ := cmd.Flags().GetString("schedule")
	if path == "" {
		return schedule.Config{}, nil, errors.New("schedule path is required: pass --schedule or set BOOKING_SCHEDULE_PATH")
	}
	cfg, err := schedule.LoadConfig(path)
	if err != nil {
		return schedule.Config{}, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return schedule.Config{}, nil, err
	}
	return cfg, loc, nil
}

func printOccurrence(w io.Writer, cfg schedule.Config, match schedule.Match, asJSON bool) error {
	occ, err := cfg.Occurrence(match)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(occ)
	}
	_, err = fmt.Fprintf(w, "%s\t%s\t%s %s-%s\tcapacity %d\n",
		occ.SessionID,
		occ.Rule.Title,
		occ.Date,
		occ.Start.Format("15:04"),
		occ.End.Format("15:04"),
		occ.Rule.Capacity,
	)
	return err
}
