package harness

import (
	"context"
	"fmt"

	"github.com/ledgerlab/replayer/internal/archive"
	"github.com/ledgerlab/replayer/internal/genesis"
	"github.com/ledgerlab/replayer/internal/replay"
	"github.com/ledgerlab/replayer/internal/types"
	"github.com/ledgerlab/replayer/internal/vm"
)

// BuildResult summarizes an archive built from a scenario.
type BuildResult struct {
	Genesis      *genesis.Genesis
	Checkpoints  uint64
	Transactions uint64
}

// Build executes a scenario through the reference engine and records the
// resulting history into the archive: transaction records, checkpoint
// summaries and contents with the effects digests each execution produced,
// and the synced watermark.
//
// The recording side runs the exact pipeline the driver replays (resolve,
// gas, execute, commit, epoch transition), so a subsequent replay of the
// archive reproduces every digest.
func Build(ctx context.Context, scenario *Scenario, arch *archive.Archive) (*BuildResult, error) {
	g, err := genesis.FromManifest(scenario.Genesis)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	store := replay.NewWorkingStore()
	for _, rec := range g.Objects() {
		store.Insert(rec)
	}

	sysRec, _ := store.Get(types.SystemStateObjectID)
	state, err := types.SystemStateFromContents(sysRec.Contents)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: genesis system state: %w", scenario.Name, err)
	}
	epoch := types.NewEpochContext(state.NextCommittee, types.EpochStartConfig{State: state})

	resolver := replay.NewInputResolver(store)
	mutator := replay.NewStoreMutator(store)
	transitions := replay.NewEpochTransitionManager(store, arch)
	accountant := vm.NewAccountant()
	engine := vm.NewEngine()

	result := &BuildResult{Genesis: g}
	baseSeq := g.Sequence()

	for ci, cp := range scenario.Checkpoints {
		seq := baseSeq + uint64(ci)
		var entries []types.ExecutionDigests

		for ti, spec := range cp.Transactions {
			tx, err := buildTransaction(store, spec)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: checkpoint %d tx %d: %w", scenario.Name, ci, ti, err)
			}

			inputs, err := resolver.Resolve(tx)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: checkpoint %d tx %d: %w", scenario.Name, ci, ti, err)
			}
			gas, err := accountant.ComputeGasStatus(inputs, tx.GasRef, tx.GasBudget, epoch.Protocol, epoch.ReferenceGasPrice)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: checkpoint %d tx %d: %w", scenario.Name, ci, ti, err)
			}
			execResult, err := engine.Execute(replay.ExecutionRequest{
				View:         replay.NewStoreView(store, inputs),
				Transaction:  tx,
				Shared:       inputs.SharedObjects(),
				Dependencies: inputs.Dependencies(),
				Epoch:        epoch.Epoch,
				Protocol:     epoch.Protocol,
				VMConfig:     epoch.VMConfig,
				Gas:          gas,
			})
			if err != nil {
				return nil, fmt.Errorf("scenario %s: checkpoint %d tx %d: %w", scenario.Name, ci, ti, err)
			}
			effectsDigest, err := execResult.Effects.Digest()
			if err != nil {
				return nil, fmt.Errorf("scenario %s: checkpoint %d tx %d: %w", scenario.Name, ci, ti, err)
			}
			if err := mutator.Apply(execResult); err != nil {
				return nil, fmt.Errorf("scenario %s: checkpoint %d tx %d: %w", scenario.Name, ci, ti, err)
			}

			if err := arch.PutTransaction(ctx, tx); err != nil {
				return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
			}
			entries = append(entries, types.ExecutionDigests{
				Transaction: tx.Digest,
				Effects:     effectsDigest,
			})
			result.Transactions++
		}

		contents := types.CheckpointContents{Entries: entries}
		contentDigest, err := contents.Digest()
		if err != nil {
			return nil, fmt.Errorf("scenario %s: checkpoint %d: %w", scenario.Name, ci, err)
		}
		summary := types.CheckpointSummary{
			Sequence:      seq,
			Epoch:         epoch.Epoch,
			ContentDigest: contentDigest,
			EndOfEpoch:    cp.EndOfEpoch,
		}
		if err := arch.PutCheckpoint(ctx, summary, contents); err != nil {
			return nil, fmt.Errorf("scenario %s: checkpoint %d: %w", scenario.Name, ci, err)
		}
		result.Checkpoints++

		if cp.EndOfEpoch {
			next, err := transitions.Transition(ctx, epoch)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: checkpoint %d: %w", scenario.Name, ci, err)
			}
			epoch = next
		}
	}

	if err := arch.SetHighestSyncedSeq(ctx, baseSeq+uint64(len(scenario.Checkpoints))); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	return result, nil
}

// buildTransaction turns a transaction spec into a signed record, resolving
// the gas reference and owned-input versions against the store's current
// state, the way a live node binds a transaction before ordering it.
func buildTransaction(store *replay.WorkingStore, spec TransactionSpec) (types.TransactionRecord, error) {
	gasObj, ok := store.Get(spec.GasObject)
	if !ok {
		return types.TransactionRecord{}, fmt.Errorf("gas object %s not in store", spec.GasObject)
	}

	inputs := make([]types.InputObjectKind, len(spec.Inputs))
	for i, in := range spec.Inputs {
		kind := types.InputObjectKind{Kind: types.InputKind(in.Kind), ID: in.ID}
		if kind.Kind == types.InputOwned {
			rec, ok := store.Get(in.ID)
			if !ok {
				return types.TransactionRecord{}, fmt.Errorf("input object %s not in store", in.ID)
			}
			kind.Version = rec.Reference.Version
		}
		inputs[i] = kind
	}

	writes := make([]types.WriteSpec, len(spec.Writes))
	for i, w := range spec.Writes {
		contents, err := types.ToObject(w.Contents)
		if err != nil {
			return types.TransactionRecord{}, fmt.Errorf("write %s: %w", w.ID, err)
		}
		writes[i] = types.WriteSpec{ID: w.ID, Contents: contents}
	}

	return types.NewTransactionRecord(
		types.TransactionKind{
			Op:      types.OpCode(spec.Op),
			Writes:  writes,
			Deletes: spec.Deletes,
		},
		spec.Signer,
		gasObj.Reference,
		spec.GasBudget,
		inputs,
	)
}
