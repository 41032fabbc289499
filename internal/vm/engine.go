package vm

import (
	"fmt"

	"github.com/ledgerlab/replayer/internal/replay"
	"github.com/ledgerlab/replayer/internal/types"
)

// Engine is the reference execution engine. It implements
// replay.ExecutionEngine.
//
// Execution rules:
//   - every declared write replaces the object's contents wholesale and
//     bumps its version by one (version 1 for a newly created object)
//   - declared deletes pass through to the effects unchanged
//   - the gas object is rewritten with gas deducted and its version bumped,
//     unless the transaction already writes it explicitly
//   - a change-epoch operation executes exactly like a mutate; the new
//     system state travels in its write set
type Engine struct{}

// NewEngine creates the reference engine.
func NewEngine() Engine { return Engine{} }

// Execute computes the transaction's effects and pending mutations against
// the supplied store view. The view is never written through; all mutations
// come back in the result for the caller to commit.
func (Engine) Execute(req replay.ExecutionRequest) (types.ExecutionResult, error) {
	tx := req.Transaction
	written := make(map[types.ObjectID]types.ObjectRecord, len(tx.Kind.Writes)+1)
	refs := make([]types.ObjectReference, 0, len(tx.Kind.Writes)+1)

	for _, w := range tx.Kind.Writes {
		version := types.Version(1)
		if cur, ok := req.View.Get(w.ID); ok {
			version = cur.Reference.Version + 1
		}
		rec, err := types.NewObjectRecord(w.ID, version, w.Contents.Clone())
		if err != nil {
			return types.ExecutionResult{}, fmt.Errorf("execute %s: write %s: %w", tx.Digest, w.ID, err)
		}
		written[w.ID] = rec
		refs = append(refs, rec.Reference)
	}

	gasUsed := ChargeGas(req.Gas, len(tx.Kind.Writes), len(tx.Kind.Deletes))

	// Charge the gas object last so an explicit write of it wins.
	if _, alreadyWritten := written[tx.GasRef.ID]; !alreadyWritten {
		gasObj, ok := req.View.Get(tx.GasRef.ID)
		if !ok {
			return types.ExecutionResult{}, fmt.Errorf("execute %s: gas object %s not in view", tx.Digest, tx.GasRef.ID)
		}
		contents := gasObj.Contents.Clone()
		if balance, isInt := contents["balance"].(types.Int); isInt {
			contents["balance"] = balance - types.Int(gasUsed)
		}
		rec, err := types.NewObjectRecord(tx.GasRef.ID, gasObj.Reference.Version+1, contents)
		if err != nil {
			return types.ExecutionResult{}, fmt.Errorf("execute %s: gas object: %w", tx.Digest, err)
		}
		written[tx.GasRef.ID] = rec
		refs = append(refs, rec.Reference)
	}

	return types.ExecutionResult{
		Effects: types.TransactionEffects{
			TransactionDigest: tx.Digest,
			Epoch:             req.Epoch,
			Status:            types.StatusSuccess,
			GasUsed:           gasUsed,
			Written:           refs,
			Deleted:           tx.Kind.Deletes,
			Dependencies:      req.Dependencies,
		},
		Written: written,
		Deleted: tx.Kind.Deletes,
	}, nil
}

// ChargeGas prices one operation: a base unit plus one unit per write and
// per delete, all at the validated reference price.
func ChargeGas(gas replay.GasStatus, writes, deletes int) uint64 {
	return gas.Price * uint64(1+writes+deletes)
}
