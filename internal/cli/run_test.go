package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGenesisYAML = `sequence: 0
system_state:
  epoch: 0
  next_committee:
    epoch: 0
    validators:
      - name: v1
        stake: 100
  next_protocol:
    version: 1
    max_input_objects: 16
    max_gas_budget: 1000000
  next_vm_config:
    bytecode_version: 1
  next_gas_price: 100
objects:
  - id: "0x01"
    contents:
      balance: 1000
  - id: "0xabc"
    contents:
      balance: 100000
`

const testScenarioYAML = `name: cli_smoke
genesis:
  sequence: 0
  system_state:
    epoch: 0
    next_committee:
      epoch: 0
      validators:
        - name: v1
          stake: 100
    next_protocol:
      version: 1
      max_input_objects: 16
      max_gas_budget: 1000000
    next_vm_config:
      bytecode_version: 1
    next_gas_price: 100
  objects:
    - id: "0x01"
      contents:
        balance: 1000
    - id: "0xabc"
      contents:
        balance: 100000
checkpoints:
  - transactions:
      - op: mutate
        signer: alice
        gas_object: "0xabc"
        gas_budget: 10000
        inputs:
          - kind: owned
            id: "0x01"
        writes:
          - id: "0x01"
            contents:
              balance: 900
`

// testFixtures holds the file paths one CLI test works against.
type testFixtures struct {
	Database string
	Scenario string
	Genesis  string
	Config   string
}

// writeFixtures lays out a scenario, a matching genesis manifest and a node
// config in a temp directory. The scenario's genesis block and the standalone
// manifest must agree, or replayed digests would diverge from ingested ones.
func writeFixtures(t *testing.T) testFixtures {
	t.Helper()
	dir := t.TempDir()

	f := testFixtures{
		Database: filepath.Join(dir, "history.db"),
		Scenario: filepath.Join(dir, "scenario.yaml"),
		Genesis:  filepath.Join(dir, "genesis.yaml"),
		Config:   filepath.Join(dir, "node.yaml"),
	}

	require.NoError(t, os.WriteFile(f.Scenario, []byte(testScenarioYAML), 0644))
	require.NoError(t, os.WriteFile(f.Genesis, []byte(testGenesisYAML), 0644))

	config := fmt.Sprintf("archive_path: %s\ngenesis_path: %s\nlog:\n  level: error\n",
		f.Database, f.Genesis)
	require.NoError(t, os.WriteFile(f.Config, []byte(config), 0644))

	return f
}

// ingestFixtures records the scenario history into the fixture archive.
func ingestFixtures(t *testing.T, f testFixtures) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := NewIngestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--db", f.Database, "--scenario", f.Scenario})

	require.NoError(t, cmd.Execute(), "ingest output: %s", buf.String())
}

func TestRunMissingConfigFlag(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "config")
}

func TestRunInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "node.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("archive_path: a.db\ngenesis_path: g.yaml\nbogus: 1\n"), 0644))

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--config", configPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunReplaysIngestedHistory(t *testing.T) {
	f := writeFixtures(t)
	ingestFixtures(t, f)

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--config", f.Config})

	require.NoError(t, cmd.Execute(), "run output: %s", buf.String())

	output := buf.String()
	assert.Contains(t, output, "replayed 1 transactions in 1 checkpoints")
	assert.Contains(t, output, "final epoch 0")
}

func TestRunJSONReport(t *testing.T) {
	f := writeFixtures(t)
	ingestFixtures(t, f)

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--config", f.Config})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["run_token"])
	assert.Equal(t, float64(1), data["transactions"])
	assert.Equal(t, float64(1), data["checkpoints"])
}

func TestRunFailsWithoutWatermark(t *testing.T) {
	// A fresh archive has schema but no watermark row; the driver treats
	// that as a fatal archive read.
	f := writeFixtures(t)

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--config", f.Config})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "ARCHIVE_READ")
}

func TestRunExecuteDisabled(t *testing.T) {
	f := writeFixtures(t)

	// No ingest: with --execute=false the driver never runs, so the empty
	// archive is never a problem.
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--config", f.Config, "--execute=false"})

	require.NoError(t, cmd.Execute())
	assert.Empty(t, buf.String())
}

func TestRunHelpText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "highest-synced watermark")
	assert.Contains(t, output, "--config")
	assert.Contains(t, output, "--download")
}
