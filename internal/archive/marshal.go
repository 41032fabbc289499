package archive

import (
	"encoding/json"
	"fmt"

	"github.com/ledgerlab/replayer/internal/types"
)

// marshalTransaction serializes a transaction record for storage.
// types.Object marshals canonically, so the stored form is deterministic
// and a record read back re-derives the digest it was recorded with.
func marshalTransaction(tx types.TransactionRecord) (string, error) {
	data, err := json.Marshal(tx)
	if err != nil {
		return "", fmt.Errorf("marshal transaction %s: %w", tx.Digest, err)
	}
	return string(data), nil
}

// unmarshalTransaction deserializes a stored transaction record.
func unmarshalTransaction(data string) (types.TransactionRecord, error) {
	var tx types.TransactionRecord
	if err := json.Unmarshal([]byte(data), &tx); err != nil {
		return types.TransactionRecord{}, fmt.Errorf("unmarshal transaction: %w", err)
	}
	return tx, nil
}
