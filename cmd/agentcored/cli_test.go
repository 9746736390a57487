package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestTapeShowOnEmptyWorkspacePrintsNoEvents(t *testing.T) {
	ws := t.TempDir()
	workspace = ws
	defer func() { workspace = "" }()

	err := runTapeShow(&cobra.Command{}, []string{"s1"})
	require.NoError(t, err)
}

func TestLedgerStatusOnEmptyWorkspaceReplaysZeroState(t *testing.T) {
	ws := t.TempDir()
	workspace = ws
	defer func() { workspace = "" }()

	err := runLedgerStatus(&cobra.Command{}, []string{"s1"})
	require.NoError(t, err)
}

func TestScheduleListOnEmptyWorkspacePrintsNoIntents(t *testing.T) {
	ws := t.TempDir()
	workspace = ws
	defer func() { workspace = "" }()

	err := runScheduleList(&cobra.Command{}, nil)
	require.NoError(t, err)
}

func TestCronNextComputesAFutureFireTime(t *testing.T) {
	cronTZ = "UTC"
	err := runCronNext(&cobra.Command{}, []string{"0 9 * * *"})
	require.NoError(t, err)
}

func TestCronNextRejectsInvalidExpression(t *testing.T) {
	cronTZ = "UTC"
	err := runCronNext(&cobra.Command{}, []string{"not a cron expr"})
	require.Error(t, err)
}

func TestResolveWorkspaceDefaultsToCwdWhenUnset(t *testing.T) {
	workspace = ""
	require.NotEmpty(t, resolveWorkspace())
}
