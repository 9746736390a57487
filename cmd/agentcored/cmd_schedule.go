package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentcore/runtime/internal/ports"
	"github.com/agentcore/runtime/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Inspect scheduler intents",
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active scheduler intents from the projection file",
	RunE:  runScheduleList,
}

func init() {
	scheduleCmd.AddCommand(scheduleListCmd)
}

func runScheduleList(cmd *cobra.Command, args []string) error {
	path := filepath.Join(resolveWorkspace(), ".agentcore", "schedule", "intents.jsonl")
	store := schedule.NewStore(path, ports.SystemClock{})

	_, state, err := store.Load()
	if err != nil {
		return fmt.Errorf("schedule list: %w", err)
	}

	active := schedule.ActiveIntents(state)
	if len(active) == 0 {
		fmt.Println("(no active intents)")
		return nil
	}
	for _, intent := range active {
		fmt.Printf("%s\tstatus=%s\truns=%d\tgoal=%s\n", intent.IntentID, intent.Status, intent.RunCount, intent.GoalRef)
	}
	return nil
}
