package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "booking",
		Short: "Capacity-bound bookings for recurring activities",
		Long: `booking books users into sessions of recurring scheduled activities.

The serve command exposes the booking engine over HTTP. The resolve and next
commands look up which schedule rule governs a date, and upcoming lists the
occurrences over a window of days.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("schedule", os.Getenv("BOOKING_SCHEDULE_PATH"), "schedule config JSON (default $BOOKING_SCHEDULE_PATH)")

	root.AddCommand(newServeCmd(), newResolveCmd(), newNextCmd(), newUpcomingCmd())
	return root
}
