package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentcore/runtime/internal/ports"
	"github.com/agentcore/runtime/internal/tape"
)

var (
	tapeEventType string
	tapeLast      int
)

var tapeCmd = &cobra.Command{
	Use:   "tape",
	Short: "Inspect the event tape",
}

var tapeShowCmd = &cobra.Command{
	Use:   "show <sessionID>",
	Short: "List events recorded for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runTapeShow,
}

func init() {
	tapeShowCmd.Flags().StringVar(&tapeEventType, "type", "", "filter to one event type")
	tapeShowCmd.Flags().IntVar(&tapeLast, "last", 0, "show only the last N matching events")
	tapeCmd.AddCommand(tapeShowCmd)
}

func runTapeShow(cmd *cobra.Command, args []string) error {
	sessionID := args[0]
	store := tape.NewStore(tape.Config{Dir: filepath.Join(resolveWorkspace(), ".agentcore", "tape"), Enabled: true}, ports.SystemClock{}, ports.UUIDGenerator{})

	records, err := store.List(sessionID, tape.ListOptions{Type: tapeEventType, Last: tapeLast})
	if err != nil {
		return fmt.Errorf("tape show: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("(no events)")
		return nil
	}
	for _, r := range records {
		turn := "-"
		if r.Turn != nil {
			turn = fmt.Sprintf("%d", *r.Turn)
		}
		fmt.Printf("%s\tturn=%s\t%s\t%s\n", r.ID, turn, r.Type, string(r.Payload))
	}
	return nil
}
