package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlab/replayer/internal/replay"
	"github.com/ledgerlab/replayer/internal/types"
)

func record(t *testing.T, id types.ObjectID, version types.Version, contents types.Object) types.ObjectRecord {
	t.Helper()
	rec, err := types.NewObjectRecord(id, version, contents)
	require.NoError(t, err)
	return rec
}

func storeWith(records ...types.ObjectRecord) *replay.WorkingStore {
	s := replay.NewWorkingStore()
	for _, rec := range records {
		s.Insert(rec)
	}
	return s
}

func mustTx(t *testing.T, kind types.TransactionKind, gasRef types.ObjectReference, inputs []types.InputObjectKind) types.TransactionRecord {
	t.Helper()
	tx, err := types.NewTransactionRecord(kind, "alice", gasRef, 10_000, inputs)
	require.NoError(t, err)
	return tx
}

func TestEngine_WriteBumpsVersionAndChargesGas(t *testing.T) {
	obj := record(t, "0x01", 3, types.Object{"n": types.Int(1)})
	gas := record(t, "0xgas", 7, types.Object{"balance": types.Int(10_000)})
	store := storeWith(obj, gas)

	tx := mustTx(t,
		types.TransactionKind{
			Op:     types.OpMutate,
			Writes: []types.WriteSpec{{ID: "0x01", Contents: types.Object{"n": types.Int(2)}}},
		},
		gas.Reference,
		[]types.InputObjectKind{{Kind: types.InputOwned, ID: "0x01", Version: 3}},
	)

	result, err := Engine{}.Execute(replay.ExecutionRequest{
		View:        replay.NewStoreView(store, types.InputObjects{}),
		Transaction: tx,
		Epoch:       2,
		Gas:         replay.GasStatus{Budget: 10_000, Price: 100},
	})
	require.NoError(t, err)

	// 1 base + 1 write at price 100
	assert.Equal(t, uint64(200), result.Effects.GasUsed)
	assert.Equal(t, uint64(2), result.Effects.Epoch)
	assert.Equal(t, types.StatusSuccess, result.Effects.Status)

	written := result.Written["0x01"]
	assert.Equal(t, types.Version(4), written.Reference.Version)
	assert.Equal(t, types.Int(2), written.Contents["n"])

	gasWritten := result.Written["0xgas"]
	assert.Equal(t, types.Version(8), gasWritten.Reference.Version)
	assert.Equal(t, types.Int(9_800), gasWritten.Contents["balance"])

	// Store is untouched; all mutations are pending
	got, _ := store.Get("0x01")
	assert.Equal(t, types.Version(3), got.Reference.Version)
}

func TestEngine_NewObjectStartsAtVersionOne(t *testing.T) {
	gas := record(t, "0xgas", 1, types.Object{"balance": types.Int(1000)})
	store := storeWith(gas)

	tx := mustTx(t,
		types.TransactionKind{
			Op:     types.OpMutate,
			Writes: []types.WriteSpec{{ID: "0xnew", Contents: types.Object{"n": types.Int(1)}}},
		},
		gas.Reference,
		nil,
	)

	result, err := Engine{}.Execute(replay.ExecutionRequest{
		View:        replay.NewStoreView(store, types.InputObjects{}),
		Transaction: tx,
		Gas:         replay.GasStatus{Price: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, types.Version(1), result.Written["0xnew"].Reference.Version)
}

func TestEngine_ExplicitGasObjectWriteWins(t *testing.T) {
	gas := record(t, "0xgas", 2, types.Object{"balance": types.Int(500)})
	store := storeWith(gas)

	tx := mustTx(t,
		types.TransactionKind{
			Op:     types.OpMutate,
			Writes: []types.WriteSpec{{ID: "0xgas", Contents: types.Object{"balance": types.Int(123)}}},
		},
		gas.Reference,
		nil,
	)

	result, err := Engine{}.Execute(replay.ExecutionRequest{
		View:        replay.NewStoreView(store, types.InputObjects{}),
		Transaction: tx,
		Gas:         replay.GasStatus{Price: 10},
	})
	require.NoError(t, err)

	// One write for the gas object, not two
	require.Len(t, result.Written, 1)
	assert.Equal(t, types.Int(123), result.Written["0xgas"].Contents["balance"])
	assert.Equal(t, types.Version(3), result.Written["0xgas"].Reference.Version)
}

func TestEngine_MissingGasObjectFails(t *testing.T) {
	store := storeWith()

	tx := mustTx(t,
		types.TransactionKind{Op: types.OpMutate},
		types.ObjectReference{ID: "0xgas", Version: 1},
		nil,
	)

	_, err := Engine{}.Execute(replay.ExecutionRequest{
		View:        replay.NewStoreView(store, types.InputObjects{}),
		Transaction: tx,
		Gas:         replay.GasStatus{Price: 1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gas object")
}

func TestEngine_DeterministicEffectsDigest(t *testing.T) {
	obj := record(t, "0x01", 1, types.Object{"n": types.Int(1)})
	gas := record(t, "0xgas", 1, types.Object{"balance": types.Int(1000)})

	tx := mustTx(t,
		types.TransactionKind{
			Op:      types.OpMutate,
			Writes:  []types.WriteSpec{{ID: "0x01", Contents: types.Object{"n": types.Int(2)}}},
			Deletes: []types.ObjectID{"0x02"},
		},
		gas.Reference,
		[]types.InputObjectKind{{Kind: types.InputOwned, ID: "0x01", Version: 1}},
	)

	digestOnce := func() types.Digest {
		store := storeWith(obj, gas)
		result, err := Engine{}.Execute(replay.ExecutionRequest{
			View:         replay.NewStoreView(store, types.InputObjects{}),
			Transaction:  tx,
			Dependencies: []types.ObjectID{"0x01"},
			Epoch:        1,
			Gas:          replay.GasStatus{Price: 50},
		})
		require.NoError(t, err)
		d, err := result.Effects.Digest()
		require.NoError(t, err)
		return d
	}

	assert.Equal(t, digestOnce(), digestOnce())
}

func TestChargeGas(t *testing.T) {
	assert.Equal(t, uint64(100), ChargeGas(replay.GasStatus{Price: 100}, 0, 0))
	assert.Equal(t, uint64(400), ChargeGas(replay.GasStatus{Price: 100}, 2, 1))
}
