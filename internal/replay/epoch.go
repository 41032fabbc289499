package replay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgerlab/replayer/internal/types"
)

// EpochTransitionManager builds the next EpochContext when a checkpoint
// carries the end-of-epoch flag. It runs after all of that checkpoint's
// transactions have been applied, so the system-state object it reads
// already reflects the change-epoch transaction's write.
type EpochTransitionManager struct {
	store       *WorkingStore
	checkpoints CheckpointSource
}

// NewEpochTransitionManager creates a manager over the store and archive.
func NewEpochTransitionManager(store *WorkingStore, checkpoints CheckpointSource) *EpochTransitionManager {
	return &EpochTransitionManager{store: store, checkpoints: checkpoints}
}

// Transition derives the next epoch's context from the system-state object
// and the last checkpoint of the current epoch. The next committee's epoch
// must be exactly current+1; anything else is a fatal sequence violation,
// including a repeated epoch number from a second change-epoch signal.
//
// The returned context replaces the active one wholesale. Nothing is
// carried over from the old context.
func (m *EpochTransitionManager) Transition(ctx context.Context, current *types.EpochContext) (*types.EpochContext, error) {
	rec, ok := m.store.Get(types.SystemStateObjectID)
	if !ok {
		return nil, NewMissingObjectError(types.SystemStateObjectID)
	}
	state, err := types.SystemStateFromContents(rec.Contents)
	if err != nil {
		return nil, fmt.Errorf("decode system state: %w", err)
	}

	last, err := m.checkpoints.GetEpochLastCheckpoint(ctx, current.Epoch)
	if err != nil {
		return nil, NewArchiveReadError(fmt.Sprintf("last checkpoint of epoch %d", current.Epoch), err)
	}
	if last == nil {
		return nil, NewArchiveReadError(fmt.Sprintf("epoch %d has no checkpoints", current.Epoch), nil)
	}
	lastDigest, err := last.Digest()
	if err != nil {
		return nil, fmt.Errorf("digest last checkpoint of epoch %d: %w", current.Epoch, err)
	}

	if state.NextCommittee.Epoch != current.Epoch+1 {
		return nil, NewEpochSequenceError(current.Epoch, state.NextCommittee.Epoch)
	}

	next := types.NewEpochContext(state.NextCommittee, types.EpochStartConfig{
		State:                state,
		LastCheckpointDigest: lastDigest,
	})

	slog.Info("epoch transition",
		"from", current.Epoch,
		"to", next.Epoch,
		"protocol_version", next.Protocol.Version,
		"reference_gas_price", next.ReferenceGasPrice,
		"last_checkpoint", last.Sequence)

	return next, nil
}
