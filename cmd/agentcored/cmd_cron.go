package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentcore/runtime/internal/cron"
)

var cronTZ string

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Evaluate cron expressions",
}

var cronNextCmd = &cobra.Command{
	Use:   "next <expr>",
	Short: "Print the next fire time for a 5-field cron expression",
	Args:  cobra.ExactArgs(1),
	RunE:  runCronNext,
}

func init() {
	cronNextCmd.Flags().StringVar(&cronTZ, "tz", "UTC", "IANA time zone name")
	cronCmd.AddCommand(cronNextCmd)
}

func runCronNext(cmd *cobra.Command, args []string) error {
	expr, err := cron.Parse(args[0])
	if err != nil {
		return fmt.Errorf("cron next: %w", err)
	}
	loc, err := time.LoadLocation(cronTZ)
	if err != nil {
		return fmt.Errorf("cron next: invalid time zone %q: %w", cronTZ, err)
	}
	next, ok := expr.NextFire(time.Now().In(loc), loc)
	if !ok {
		fmt.Println("(no fire time within the next 5 years)")
		return nil
	}
	fmt.Println(next.Format(time.RFC3339))
	return nil
}
