// Command booking serves the activity booking API and answers schedule
// questions from the command line.
package main

import (
	"os"

	_ "time/tzdata"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
