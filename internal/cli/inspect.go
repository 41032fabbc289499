package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgerlab/replayer/internal/archive"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database string
}

// archiveSummary is the inspect payload in both output formats.
type archiveSummary struct {
	Checkpoints     int64   `json:"checkpoints"`
	Transactions    int64   `json:"transactions"`
	HighestSynced   *uint64 `json:"highest_synced,omitempty"`
	HighestExecuted *uint64 `json:"highest_executed,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show archive counts and watermarks",
		Long: `Print the checkpoint and transaction counts of an archive along with its
watermarks. A missing watermark is reported as unset rather than zero,
since the run command treats absence as fatal.

Example:
  replayer inspect --db ./history.db
  replayer inspect --db ./history.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite archive (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command) error {
	arch, err := archive.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open archive", err)
	}
	defer func() {
		if closeErr := arch.Close(); closeErr != nil {
			slog.Error("error closing archive", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	summary := archiveSummary{}

	if summary.Checkpoints, err = arch.CountCheckpoints(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to count checkpoints", err)
	}
	if summary.Transactions, err = arch.CountTransactions(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to count transactions", err)
	}

	if seq, ok, werr := arch.GetHighestSyncedSeq(ctx); werr != nil {
		return WrapExitError(ExitCommandError, "failed to read synced watermark", werr)
	} else if ok {
		summary.HighestSynced = &seq
	}
	if seq, ok, werr := arch.GetHighestExecutedSeq(ctx); werr != nil {
		return WrapExitError(ExitCommandError, "failed to read executed watermark", werr)
	} else if ok {
		summary.HighestExecuted = &seq
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return formatter.Success(summary)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "checkpoints:      %d\n", summary.Checkpoints)
	fmt.Fprintf(&b, "transactions:     %d\n", summary.Transactions)
	fmt.Fprintf(&b, "highest synced:   %s\n", watermarkString(summary.HighestSynced))
	fmt.Fprintf(&b, "highest executed: %s", watermarkString(summary.HighestExecuted))
	return formatter.Success(b.String())
}

func watermarkString(seq *uint64) string {
	if seq == nil {
		return "(unset)"
	}
	return fmt.Sprintf("%d", *seq)
}
