package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlab/replayer/internal/types"
)

func mustRecord(t *testing.T, id types.ObjectID, version types.Version, contents types.Object) types.ObjectRecord {
	t.Helper()
	rec, err := types.NewObjectRecord(id, version, contents)
	require.NoError(t, err)
	return rec
}

func TestWorkingStore_InsertGetDelete(t *testing.T) {
	s := NewWorkingStore()

	rec := mustRecord(t, "0x01", 1, types.Object{"n": types.Int(1)})
	s.Insert(rec)

	got, ok := s.Get("0x01")
	require.True(t, ok)
	assert.Equal(t, rec, got)
	assert.Equal(t, 1, s.Len())

	// Overwrite keeps a single record per identifier
	rec2 := mustRecord(t, "0x01", 2, types.Object{"n": types.Int(2)})
	s.Insert(rec2)
	got, _ = s.Get("0x01")
	assert.Equal(t, types.Version(2), got.Reference.Version)
	assert.Equal(t, 1, s.Len())

	s.Delete("0x01")
	_, ok = s.Get("0x01")
	assert.False(t, ok)

	// Deleting an absent identifier is a no-op
	s.Delete("0x01")
	assert.Equal(t, 0, s.Len())
}

func TestWorkingStore_CloneIsIndependent(t *testing.T) {
	s := NewWorkingStore()
	s.Insert(mustRecord(t, "0x01", 1, types.Object{"n": types.Int(1)}))

	clone := s.Clone()
	clone.Insert(mustRecord(t, "0x02", 1, types.Object{"n": types.Int(2)}))
	clone.Delete("0x01")

	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("0x01")
	assert.True(t, ok)
	_, ok = s.Get("0x02")
	assert.False(t, ok)
}

func TestStoreView_InputsShadowStore(t *testing.T) {
	s := NewWorkingStore()
	s.Insert(mustRecord(t, "0x01", 5, types.Object{"n": types.Int(5)}))
	s.Insert(mustRecord(t, "0x02", 1, types.Object{"n": types.Int(1)}))

	inputRec := mustRecord(t, "0x01", 4, types.Object{"n": types.Int(4)})
	view := NewStoreView(s, types.NewInputObjects(
		[]types.InputObjectKind{{Kind: types.InputOwned, ID: "0x01", Version: 4}},
		[]types.ObjectRecord{inputRec},
	))

	// Seeded input wins over the backing store
	got, ok := view.Get("0x01")
	require.True(t, ok)
	assert.Equal(t, types.Version(4), got.Reference.Version)

	// Falls through to the store for everything else
	got, ok = view.Get("0x02")
	require.True(t, ok)
	assert.Equal(t, types.Version(1), got.Reference.Version)

	_, ok = view.Get("0x03")
	assert.False(t, ok)
}

func TestStoreMutator_DeletesBeforeWrites(t *testing.T) {
	s := NewWorkingStore()
	s.Insert(mustRecord(t, "0x01", 1, types.Object{"n": types.Int(1)}))
	m := NewStoreMutator(s)

	// Same identifier deleted and rewritten in one result: the write wins.
	rewritten := mustRecord(t, "0x01", 2, types.Object{"n": types.Int(2)})
	err := m.Apply(types.ExecutionResult{
		Effects: types.TransactionEffects{TransactionDigest: "t1"},
		Deleted: []types.ObjectID{"0x01"},
		Written: map[types.ObjectID]types.ObjectRecord{"0x01": rewritten},
	})
	require.NoError(t, err)

	got, ok := s.Get("0x01")
	require.True(t, ok)
	assert.Equal(t, types.Version(2), got.Reference.Version)
}

func TestStoreMutator_PlainDelete(t *testing.T) {
	s := NewWorkingStore()
	s.Insert(mustRecord(t, "0x01", 1, types.Object{"n": types.Int(1)}))
	m := NewStoreMutator(s)

	err := m.Apply(types.ExecutionResult{
		Effects: types.TransactionEffects{TransactionDigest: "t1"},
		Deleted: []types.ObjectID{"0x01"},
	})
	require.NoError(t, err)

	_, ok := s.Get("0x01")
	assert.False(t, ok)
}

func TestStoreMutator_RejectsKeyMismatch(t *testing.T) {
	s := NewWorkingStore()
	m := NewStoreMutator(s)

	rec := mustRecord(t, "0x02", 1, types.Object{"n": types.Int(1)})
	err := m.Apply(types.ExecutionResult{
		Effects: types.TransactionEffects{TransactionDigest: "t1"},
		Written: map[types.ObjectID]types.ObjectRecord{"0x01": rec},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write set keys")
	assert.Equal(t, 0, s.Len())
}
