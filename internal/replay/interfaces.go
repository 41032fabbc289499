package replay

import (
	"context"

	"github.com/ledgerlab/replayer/internal/types"
)

// CheckpointSource is the checkpoint archive the driver reads from.
// Getters return nil (or ok=false) for absent entries rather than an error;
// the driver decides what absence means at each call site.
type CheckpointSource interface {
	GetHighestSyncedSeq(ctx context.Context) (seq uint64, ok bool, err error)
	GetHighestExecutedSeq(ctx context.Context) (seq uint64, ok bool, err error)
	GetCheckpointBySequence(ctx context.Context, seq uint64) (*types.CheckpointSummary, error)
	GetContents(ctx context.Context, digest types.Digest) (*types.CheckpointContents, error)
	GetEpochLastCheckpoint(ctx context.Context, epoch uint64) (*types.CheckpointSummary, error)
}

// TransactionSource is the transaction archive the driver reads from.
type TransactionSource interface {
	GetTransaction(ctx context.Context, digest types.Digest) (*types.TransactionRecord, error)
}

// GenesisSource produces the initial object set and the genesis checkpoint
// sequence number, seeded into the working store before replay starts.
type GenesisSource interface {
	Objects() []types.ObjectRecord
	Sequence() uint64
}

// GasStatus is the validated budget/price decision for one transaction.
// Opaque to the driver beyond pass/fail; the engine reads it to charge gas.
type GasStatus struct {
	// Budget is the validated gas budget declared by the transaction.
	Budget uint64

	// Price is the reference gas price the budget was validated against.
	Price uint64
}

// GasAccountant validates one transaction's gas against the active epoch
// parameters. The driver calls it once per transaction and treats any error
// as fatal: a gas rejection on replay of an already-committed transaction
// means the replay setup diverged, not that the transaction is invalid.
type GasAccountant interface {
	ComputeGasStatus(inputs types.InputObjects, gasRef types.ObjectReference, gasBudget uint64, protocol types.ProtocolParams, referenceGasPrice uint64) (GasStatus, error)
}

// ExecutionRequest carries everything the engine needs for one transaction:
// a read-only view of the store seeded with the resolved inputs, the shared
// subset and causal dependency set, and the active epoch parameters.
type ExecutionRequest struct {
	View         *StoreView
	Transaction  types.TransactionRecord
	Shared       []types.ObjectReference
	Dependencies []types.ObjectID
	Epoch        uint64
	Protocol     types.ProtocolParams
	VMConfig     types.VMConfig
	Gas          GasStatus
}

// ExecutionEngine executes one transaction's operation. It never mutates
// the working store; it returns the effects record plus pending write and
// delete sets, and the driver commits them after verification.
type ExecutionEngine interface {
	Execute(req ExecutionRequest) (types.ExecutionResult, error)
}
