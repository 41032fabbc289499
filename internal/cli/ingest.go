package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ledgerlab/replayer/internal/archive"
	"github.com/ledgerlab/replayer/internal/harness"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Database string
	Scenario string
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Build an archive from a replay scenario",
		Long: `Execute a scenario file and record the resulting checkpoint history.

Each scenario transaction is executed through the same engine the run command
verifies against, so the recorded effects digests replay cleanly. The archive
is created if it does not exist, and the highest-synced watermark is advanced
past the last recorded checkpoint.

Example:
  replayer ingest --db ./history.db --scenario ./scenarios/epoch_rollover.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite archive (required)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "path to scenario YAML (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

func runIngest(opts *IngestOptions, cmd *cobra.Command) error {
	scenario, err := harness.LoadScenario(opts.Scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	arch, err := archive.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open archive", err)
	}
	defer func() {
		if closeErr := arch.Close(); closeErr != nil {
			slog.Error("error closing archive", "error", closeErr)
		}
	}()

	result, err := harness.Build(cmd.Context(), scenario, arch)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build archive", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"scenario":     scenario.Name,
			"genesis_seq":  result.Genesis.Sequence(),
			"checkpoints":  result.Checkpoints,
			"transactions": result.Transactions,
		})
	}
	return formatter.Success(fmt.Sprintf(
		"ingested scenario %s: %d checkpoints, %d transactions (genesis seq %d)",
		scenario.Name, result.Checkpoints, result.Transactions, result.Genesis.Sequence(),
	))
}
