package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentcore/runtime/internal/ports"
	"github.com/agentcore/runtime/internal/replay"
	"github.com/agentcore/runtime/internal/tape"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect task and truth ledger state",
}

var ledgerStatusCmd = &cobra.Command{
	Use:   "status <sessionID>",
	Short: "Replay a session's tape and print task/truth state",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerStatus,
}

func init() {
	ledgerCmd.AddCommand(ledgerStatusCmd)
}

func runLedgerStatus(cmd *cobra.Command, args []string) error {
	sessionID := args[0]
	store := tape.NewStore(tape.Config{Dir: filepath.Join(resolveWorkspace(), ".agentcore", "tape"), Enabled: true}, ports.SystemClock{}, ports.UUIDGenerator{})
	engine := replay.NewEngine(store)

	view, err := engine.Replay(sessionID)
	if err != nil {
		return fmt.Errorf("ledger status: %w", err)
	}

	fmt.Printf("session:  %s\n", sessionID)
	fmt.Printf("turn:     %d\n", view.Turn)
	fmt.Printf("spec:     %v\n", view.TaskState.Spec != nil)
	if s := view.TaskState.Status; s != nil {
		fmt.Printf("status:   phase=%s health=%s reason=%q\n", s.Phase, s.Health, s.Reason)
	} else {
		fmt.Println("status:   (none)")
	}
	fmt.Printf("items:    %d\n", len(view.TaskState.Items))
	fmt.Printf("blockers: %d\n", len(view.TaskState.Blockers))
	fmt.Printf("facts:    %d\n", len(view.TruthState.Facts))
	for _, f := range view.TruthState.Facts {
		fmt.Printf("  - %s [%s/%s] %s\n", f.ID, f.Status, f.Severity, f.Summary)
	}
	return nil
}
