package replay

import "github.com/ledgerlab/replayer/internal/types"

// InputResolver fetches a transaction's declared inputs from the working
// store. It has no side effects.
type InputResolver struct {
	store *WorkingStore
}

// NewInputResolver creates a resolver over the given store.
func NewInputResolver(store *WorkingStore) *InputResolver {
	return &InputResolver{store: store}
}

// Resolve looks up every declared input kind in the working store, in
// declaration order. An absent identifier is always fatal: an input missing
// from the store means replay state diverged from recorded history.
func (r *InputResolver) Resolve(tx types.TransactionRecord) (types.InputObjects, error) {
	records := make([]types.ObjectRecord, len(tx.Inputs))
	for i, in := range tx.Inputs {
		rec, ok := r.store.Get(in.ID)
		if !ok {
			err := NewMissingObjectError(in.ID)
			err.Transaction = tx.Digest
			return types.InputObjects{}, err
		}
		records[i] = rec
	}
	return types.NewInputObjects(tx.Inputs, records), nil
}
