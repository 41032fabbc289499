package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerlab/replayer/internal/types"
)

// State is the driver's lifecycle position.
type State string

const (
	// StateIdle is the state before Run is called.
	StateIdle State = "idle"

	// StateSeeding means genesis objects are being loaded into the store.
	StateSeeding State = "seeding"

	// StateReplaying means checkpoints are being executed and verified.
	StateReplaying State = "replaying"

	// StateCompleted means the run reached the synced watermark.
	StateCompleted State = "completed"

	// StateAborted means a fatal condition terminated the run early.
	StateAborted State = "aborted"
)

// defaultProgressEvery is the checkpoint interval between progress lines.
const defaultProgressEvery = 10

// DriverConfig wires the driver's collaborators.
type DriverConfig struct {
	Checkpoints  CheckpointSource
	Transactions TransactionSource
	Genesis      GenesisSource
	Gas          GasAccountant
	Engine       ExecutionEngine

	// Tokens generates the run token. Defaults to UUIDv7Generator.
	Tokens RunTokenGenerator

	// ProgressEvery is the checkpoint interval between progress log lines.
	// Defaults to 10.
	ProgressEvery uint64

	// Now supplies wall time for throughput measurement.
	// Defaults to time.Now; tests substitute a fixed clock.
	Now func() time.Time
}

// Driver orchestrates one replay run: it seeds the working store from
// genesis, walks checkpoints in sequence up to the synced watermark, runs
// every transaction through resolve, gas, execute, verify and commit, and
// swaps the epoch context at end-of-epoch checkpoints.
//
// A driver runs once. State moves Idle to Seeding to Replaying to
// Completed, with an unconditional early exit to Aborted on any fatal
// condition.
type Driver struct {
	checkpoints  CheckpointSource
	transactions TransactionSource
	genesis      GenesisSource
	gas          GasAccountant
	engine       ExecutionEngine

	store    *WorkingStore
	resolver *InputResolver
	mutator  *StoreMutator
	verifier EffectsVerifier
	epochs   *EpochTransitionManager

	epoch *types.EpochContext

	tokens        RunTokenGenerator
	progressEvery uint64
	now           func() time.Time

	state       State
	abortReason error
}

// NewDriver validates the configuration and builds a driver.
func NewDriver(cfg DriverConfig) (*Driver, error) {
	switch {
	case cfg.Checkpoints == nil:
		return nil, errors.New("driver: checkpoint source is required")
	case cfg.Transactions == nil:
		return nil, errors.New("driver: transaction source is required")
	case cfg.Genesis == nil:
		return nil, errors.New("driver: genesis source is required")
	case cfg.Gas == nil:
		return nil, errors.New("driver: gas accountant is required")
	case cfg.Engine == nil:
		return nil, errors.New("driver: execution engine is required")
	}
	if cfg.Tokens == nil {
		cfg.Tokens = UUIDv7Generator{}
	}
	if cfg.ProgressEvery == 0 {
		cfg.ProgressEvery = defaultProgressEvery
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	store := NewWorkingStore()
	return &Driver{
		checkpoints:   cfg.Checkpoints,
		transactions:  cfg.Transactions,
		genesis:       cfg.Genesis,
		gas:           cfg.Gas,
		engine:        cfg.Engine,
		store:         store,
		resolver:      NewInputResolver(store),
		mutator:       NewStoreMutator(store),
		epochs:        NewEpochTransitionManager(store, cfg.Checkpoints),
		tokens:        cfg.Tokens,
		progressEvery: cfg.ProgressEvery,
		now:           cfg.Now,
		state:         StateIdle,
	}, nil
}

// State returns the driver's current lifecycle state.
func (d *Driver) State() State { return d.state }

// AbortReason returns the fatal error that moved the driver to Aborted,
// or nil.
func (d *Driver) AbortReason() error { return d.abortReason }

// Store exposes the working store. Read-only for callers; used by tests
// and by the inspect path after a completed run.
func (d *Driver) Store() *WorkingStore { return d.store }

// Epoch returns the active epoch context, nil before seeding.
func (d *Driver) Epoch() *types.EpochContext { return d.epoch }

// Run executes the full replay: seed, walk, verify, report.
// Any returned error is fatal and the driver lands in Aborted.
func (d *Driver) Run(ctx context.Context) (RunReport, error) {
	if d.state != StateIdle {
		return RunReport{}, fmt.Errorf("driver: run already started (state %s)", d.state)
	}

	token := d.tokens.Generate()
	slog.Info("replay starting", "run", token)

	d.state = StateSeeding
	if err := d.seed(); err != nil {
		return RunReport{}, d.fail(err)
	}

	highest, ok, err := d.checkpoints.GetHighestSyncedSeq(ctx)
	if err != nil {
		return RunReport{}, d.fail(NewArchiveReadError("highest synced watermark", err))
	}
	if !ok {
		return RunReport{}, d.fail(NewArchiveReadError("archive has no synced watermark", nil))
	}

	genesisSeq := d.genesis.Sequence()
	report := RunReport{
		RunToken:      token,
		GenesisSeq:    genesisSeq,
		HighestSynced: highest,
	}

	d.state = StateReplaying
	start := d.now()

	for seq := genesisSeq; seq < highest; seq++ {
		txCount, err := d.replayCheckpoint(ctx, seq)
		if err != nil {
			return RunReport{}, d.fail(err)
		}
		report.Checkpoints++
		report.Transactions += uint64(txCount)

		if report.Checkpoints%d.progressEvery == 0 {
			slog.Info("replay progress",
				"run", token,
				"checkpoint", seq,
				"transactions", report.Transactions,
				"epoch", d.epoch.Epoch)
		}
	}

	report.Elapsed = d.now().Sub(start)
	report.FinalEpoch = d.epoch.Epoch
	d.state = StateCompleted

	slog.Info("replay completed",
		"run", token,
		"checkpoints", report.Checkpoints,
		"transactions", report.Transactions,
		"tps", fmt.Sprintf("%.2f", report.TPS()))

	return report, nil
}

// seed loads genesis objects into the working store and derives the initial
// epoch context from the seeded system-state object.
func (d *Driver) seed() error {
	for _, rec := range d.genesis.Objects() {
		d.store.Insert(rec)
	}

	rec, ok := d.store.Get(types.SystemStateObjectID)
	if !ok {
		return NewMissingObjectError(types.SystemStateObjectID)
	}
	state, err := types.SystemStateFromContents(rec.Contents)
	if err != nil {
		return fmt.Errorf("decode genesis system state: %w", err)
	}

	// Genesis carries epoch-0 parameters in the Next* fields with an empty
	// previous-epoch anchor, so the initial context derives the same way a
	// transition does.
	d.epoch = types.NewEpochContext(state.NextCommittee, types.EpochStartConfig{State: state})

	slog.Info("working store seeded",
		"objects", d.store.Len(),
		"epoch", d.epoch.Epoch,
		"genesis_seq", d.genesis.Sequence())
	return nil
}

// replayCheckpoint executes and verifies every transaction of one
// checkpoint in recorded order, then runs the epoch transition if the
// checkpoint closes an epoch. Returns the number of transactions replayed.
func (d *Driver) replayCheckpoint(ctx context.Context, seq uint64) (int, error) {
	summary, err := d.checkpoints.GetCheckpointBySequence(ctx, seq)
	if err != nil {
		return 0, NewArchiveReadError(fmt.Sprintf("checkpoint %d", seq), err)
	}
	if summary == nil {
		return 0, NewArchiveReadError(fmt.Sprintf("checkpoint %d below watermark is absent", seq), nil)
	}

	contents, err := d.checkpoints.GetContents(ctx, summary.ContentDigest)
	if err != nil {
		return 0, NewArchiveReadError(fmt.Sprintf("contents of checkpoint %d", seq), err)
	}
	if contents == nil {
		return 0, NewArchiveReadError(fmt.Sprintf("contents %s of checkpoint %d are absent", summary.ContentDigest, seq), nil)
	}

	for _, entry := range contents.Entries {
		if err := d.replayTransaction(ctx, *summary, entry); err != nil {
			var re *ReplayError
			if errors.As(err, &re) && re.Checkpoint == 0 {
				re.Checkpoint = seq
			}
			return 0, err
		}
	}

	if summary.EndOfEpoch {
		next, err := d.epochs.Transition(ctx, d.epoch)
		if err != nil {
			var re *ReplayError
			if errors.As(err, &re) && re.Checkpoint == 0 {
				re.Checkpoint = seq
			}
			return 0, err
		}
		d.epoch = next
	}

	return contents.Size(), nil
}

// replayTransaction runs one transaction through the full pipeline:
// fetch, resolve, gas, execute, verify, commit.
func (d *Driver) replayTransaction(ctx context.Context, summary types.CheckpointSummary, entry types.ExecutionDigests) error {
	tx, err := d.transactions.GetTransaction(ctx, entry.Transaction)
	if err != nil {
		return NewArchiveReadError(fmt.Sprintf("transaction %s", entry.Transaction), err)
	}
	if tx == nil {
		return NewMissingTransactionError(entry.Transaction)
	}

	inputs, err := d.resolver.Resolve(*tx)
	if err != nil {
		return err
	}

	gas, err := d.gas.ComputeGasStatus(inputs, tx.GasRef, tx.GasBudget, d.epoch.Protocol, d.epoch.ReferenceGasPrice)
	if err != nil {
		return NewGasFailureError(tx.Digest, err)
	}

	if tx.Kind.Op == types.OpChangeEpoch {
		slog.Info("change-epoch transaction",
			"tx", tx.Digest,
			"checkpoint", summary.Sequence,
			"epoch", d.epoch.Epoch)
	}

	result, err := d.engine.Execute(ExecutionRequest{
		View:         NewStoreView(d.store, inputs),
		Transaction:  *tx,
		Shared:       inputs.SharedObjects(),
		Dependencies: inputs.Dependencies(),
		Epoch:        d.epoch.Epoch,
		Protocol:     d.epoch.Protocol,
		VMConfig:     d.epoch.VMConfig,
		Gas:          gas,
	})
	if err != nil {
		return fmt.Errorf("execute %s: %w", tx.Digest, err)
	}

	// Verification precedes commit: a mismatching transaction's write and
	// delete sets never reach the store.
	if err := d.verifier.Verify(result.Effects, entry.Effects); err != nil {
		return err
	}

	if err := d.mutator.Apply(result); err != nil {
		return err
	}
	return nil
}

// fail records the fatal condition and moves the driver to Aborted.
func (d *Driver) fail(err error) error {
	d.state = StateAborted
	d.abortReason = err
	slog.Error("replay aborted", "reason", err)
	return err
}
