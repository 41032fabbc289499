package replay

import (
	"fmt"
	"sort"

	"github.com/ledgerlab/replayer/internal/types"
)

// WorkingStore is the in-memory object state replay mutates. It holds at
// most one record per identifier, the latest revision; older revisions are
// not retained.
//
// Thread-safety: none, on purpose. Replay is single-threaded and the store
// is held exclusively by the driver for the run's duration. Locking would
// only mask the sequential-dependency invariant correctness depends on.
type WorkingStore struct {
	objects map[types.ObjectID]types.ObjectRecord
}

// NewWorkingStore creates an empty working store.
func NewWorkingStore() *WorkingStore {
	return &WorkingStore{objects: make(map[types.ObjectID]types.ObjectRecord)}
}

// Get returns the current record for an identifier.
func (s *WorkingStore) Get(id types.ObjectID) (types.ObjectRecord, bool) {
	rec, ok := s.objects[id]
	return rec, ok
}

// Insert stores a record under its own reference identifier, overwriting
// any previous revision. The mapping key always equals the record's
// reference identifier; there is no way to store them inconsistently.
func (s *WorkingStore) Insert(rec types.ObjectRecord) {
	s.objects[rec.Reference.ID] = rec
}

// Delete removes an identifier. Deleting an absent identifier is a no-op;
// deletion is idempotent with respect to store state.
func (s *WorkingStore) Delete(id types.ObjectID) {
	delete(s.objects, id)
}

// Len returns the number of objects currently held.
func (s *WorkingStore) Len() int { return len(s.objects) }

// Objects returns every record ordered by identifier. Snapshot for
// reporting and tests; mutation goes through Insert/Delete only.
func (s *WorkingStore) Objects() []types.ObjectRecord {
	ids := make([]string, 0, len(s.objects))
	for id := range s.objects {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	out := make([]types.ObjectRecord, len(ids))
	for i, id := range ids {
		out[i] = s.objects[types.ObjectID(id)]
	}
	return out
}

// Clone returns an independent deep copy of the store. Used by tests to
// replay the same range twice from identical initial state.
func (s *WorkingStore) Clone() *WorkingStore {
	out := &WorkingStore{objects: make(map[types.ObjectID]types.ObjectRecord, len(s.objects))}
	for id, rec := range s.objects {
		out.objects[id] = types.ObjectRecord{
			Reference: rec.Reference,
			Contents:  rec.Contents.Clone(),
		}
	}
	return out
}

// checkKeys verifies the mapping-key consistency invariant for the given
// identifiers: each present record's reference identifier equals its key.
func (s *WorkingStore) checkKeys(ids []types.ObjectID) error {
	for _, id := range ids {
		rec, ok := s.objects[id]
		if !ok {
			continue
		}
		if rec.Reference.ID != id {
			return fmt.Errorf("store key %s holds record for %s", id, rec.Reference.ID)
		}
	}
	return nil
}

// StoreView is the read-only snapshot the execution engine sees: resolved
// inputs first, then the backing store. The engine cannot write through it.
type StoreView struct {
	inputs map[types.ObjectID]types.ObjectRecord
	store  *WorkingStore
}

// NewStoreView builds a view over the store seeded with resolved inputs.
func NewStoreView(store *WorkingStore, inputs types.InputObjects) *StoreView {
	seeded := make(map[types.ObjectID]types.ObjectRecord, len(inputs.Pairs))
	for _, p := range inputs.Pairs {
		seeded[p.Record.Reference.ID] = p.Record
	}
	return &StoreView{inputs: seeded, store: store}
}

// Get returns the record visible to the executing transaction.
func (v *StoreView) Get(id types.ObjectID) (types.ObjectRecord, bool) {
	if rec, ok := v.inputs[id]; ok {
		return rec, true
	}
	return v.store.Get(id)
}

// StoreMutator commits a successful execution's pending mutations to the
// working store.
type StoreMutator struct {
	store *WorkingStore
}

// NewStoreMutator creates a mutator over the given store.
func NewStoreMutator(store *WorkingStore) *StoreMutator {
	return &StoreMutator{store: store}
}

// Apply commits the result's delete and write sets, deletions first.
// Order matters: a transaction may delete an old revision of an identifier
// and write a new revision of the same identifier, and the write must win.
//
// Every written record's reference identifier must equal its map key; a
// mismatch means the engine produced an inconsistent write set and the run
// cannot continue.
func (m *StoreMutator) Apply(result types.ExecutionResult) error {
	written := make([]types.ObjectID, 0, len(result.Written))
	for id, rec := range result.Written {
		if rec.Reference.ID != id {
			return fmt.Errorf("apply effects for %s: write set keys %s but record references %s",
				result.Effects.TransactionDigest, id, rec.Reference.ID)
		}
		written = append(written, id)
	}

	for _, id := range result.Deleted {
		m.store.Delete(id)
	}
	for _, rec := range result.Written {
		m.store.Insert(rec)
	}

	if err := m.store.checkKeys(written); err != nil {
		return fmt.Errorf("apply effects for %s: %w", result.Effects.TransactionDigest, err)
	}
	return nil
}
