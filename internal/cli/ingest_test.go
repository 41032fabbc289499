package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlab/replayer/internal/archive"
)

func TestIngestBuildsArchive(t *testing.T) {
	f := writeFixtures(t)

	buf := &bytes.Buffer{}
	cmd := NewIngestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--db", f.Database, "--scenario", f.Scenario})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "ingested scenario cli_smoke: 1 checkpoints, 1 transactions")

	ctx := context.Background()
	arch, err := archive.Open(f.Database)
	require.NoError(t, err)
	defer arch.Close()

	checkpoints, err := arch.CountCheckpoints(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), checkpoints)

	seq, ok, err := arch.GetHighestSyncedSeq(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), seq)
}

func TestIngestMissingScenario(t *testing.T) {
	f := writeFixtures(t)

	buf := &bytes.Buffer{}
	cmd := NewIngestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--db", f.Database, "--scenario", "/nonexistent/scenario.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load scenario")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestIngestMissingFlags(t *testing.T) {
	cmd := NewIngestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
