package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ledgerlab/replayer/internal/archive"
	"github.com/ledgerlab/replayer/internal/config"
	"github.com/ledgerlab/replayer/internal/genesis"
	"github.com/ledgerlab/replayer/internal/replay"
	"github.com/ledgerlab/replayer/internal/vm"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath    string
	Download      uint64
	Execute       bool
	ListenAddress string

	// Tokens allows overriding the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens replay.RunTokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay the archived checkpoint history and verify effects",
		Long: `Replay the archived checkpoint history against the deterministic engine.

The driver seeds a fresh in-memory store from the genesis manifest, then
re-executes every transaction from the genesis checkpoint up to the archive's
highest-synced watermark, verifying each recomputed effects digest against
the recorded one. Nothing is written back to the archive.

Example:
  replayer run --config node.yaml
  replayer run --config node.yaml --download 500 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to node configuration (required)")
	cmd.Flags().Uint64Var(&opts.Download, "download", 0, "checkpoint sequence to sync down to (overrides config)")
	cmd.Flags().BoolVar(&opts.Execute, "execute", true, "run the replay phase (overrides config)")
	cmd.Flags().StringVar(&opts.ListenAddress, "listen-address", "", "listen address (overrides config; parsed but never bound)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runReplay(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	// Flags override the file only when set on the command line.
	if cmd.Flags().Changed("download") {
		cfg.DownloadWatermark = opts.Download
	}
	if cmd.Flags().Changed("execute") {
		cfg.Execute = opts.Execute
	}
	if cmd.Flags().Changed("listen-address") {
		cfg.ListenAddress = opts.ListenAddress
	}

	setupLogging(cfg.Log, opts.Verbose)

	if cfg.ListenAddress != "" {
		slog.Debug("listen address configured but nothing binds it", "address", cfg.ListenAddress)
	}
	if cfg.DownloadWatermark > 0 {
		// Checkpoint download needs a network source; this build replays
		// from the local archive only.
		slog.Warn("download watermark requested but this build has no sync source",
			"watermark", cfg.DownloadWatermark)
	}

	slog.Info("opening archive", "path", cfg.ArchivePath)
	arch, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open archive", err)
	}
	defer func() {
		if closeErr := arch.Close(); closeErr != nil {
			slog.Error("error closing archive", "error", closeErr)
		}
	}()

	gen, err := genesis.Load(cfg.GenesisPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load genesis manifest", err)
	}

	logWatermarks(cmd.Context(), arch)

	if !cfg.Execute {
		slog.Info("execution disabled, exiting after setup")
		return nil
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = replay.UUIDv7Generator{}
	}

	driver, err := replay.NewDriver(replay.DriverConfig{
		Checkpoints:   arch,
		Transactions:  arch,
		Genesis:       gen,
		Gas:           vm.NewAccountant(),
		Engine:        vm.NewEngine(),
		Tokens:        tokens,
		ProgressEvery: cfg.ProgressInterval,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to construct driver", err)
	}

	// Signal handling for clean interruption. Use the command's context if
	// available (for testing), otherwise create one.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, aborting replay", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	report, err := driver.Run(ctx)
	if err != nil {
		var re *replay.ReplayError
		if errors.As(err, &re) {
			formatter := newFormatter(opts.RootOptions, cmd)
			_ = formatter.Error(string(re.Code), re.Error(), nil)
			return NewExitError(ExitFailure, "replay aborted")
		}
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return formatter.Success(report)
	}
	return formatter.Success(report.String())
}

// logWatermarks reports the archive's watermarks before replay starts.
// Absence is logged as unset; the driver decides whether that is fatal.
func logWatermarks(ctx context.Context, arch *archive.Archive) {
	if ctx == nil {
		ctx = context.Background()
	}
	if seq, ok, err := arch.GetHighestSyncedSeq(ctx); err == nil && ok {
		slog.Info("highest synced checkpoint", "seq", seq)
	} else if err == nil {
		slog.Info("highest synced checkpoint unset")
	}
	if seq, ok, err := arch.GetHighestExecutedSeq(ctx); err == nil && ok {
		slog.Info("highest executed checkpoint", "seq", seq)
	} else if err == nil {
		slog.Info("highest executed checkpoint unset")
	}
}

// newFormatter builds an OutputFormatter wired to the command's streams.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// setupLogging installs the process-wide slog handler per the log config.
// The global verbose flag forces debug level regardless of the file.
func setupLogging(cfg config.LogConfig, verbose bool) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}
