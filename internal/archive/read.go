package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ledgerlab/replayer/internal/types"
)

// GetHighestSyncedSeq returns the highest synced checkpoint sequence.
// ok is false when the archive has no synced watermark yet.
func (a *Archive) GetHighestSyncedSeq(ctx context.Context) (seq uint64, ok bool, err error) {
	return a.getWatermark(ctx, watermarkHighestSynced)
}

// GetHighestExecutedSeq returns the highest executed checkpoint sequence.
// ok is false when no run has recorded an executed watermark.
func (a *Archive) GetHighestExecutedSeq(ctx context.Context) (seq uint64, ok bool, err error) {
	return a.getWatermark(ctx, watermarkHighestExecuted)
}

func (a *Archive) getWatermark(ctx context.Context, name string) (uint64, bool, error) {
	var seq uint64
	err := a.db.QueryRowContext(ctx, `
		SELECT sequence FROM watermarks WHERE name = ?
	`, name).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get watermark %s: %w", name, err)
	}
	return seq, true, nil
}

// GetCheckpointBySequence returns the checkpoint summary for a sequence
// number, or nil if the archive does not hold it.
func (a *Archive) GetCheckpointBySequence(ctx context.Context, seq uint64) (*types.CheckpointSummary, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT sequence, epoch, content_digest, end_of_epoch
		FROM checkpoints
		WHERE sequence = ?
	`, seq)

	return scanCheckpoint(row)
}

// GetEpochLastCheckpoint returns the last checkpoint of an epoch, or nil
// if the archive holds no checkpoint for that epoch.
func (a *Archive) GetEpochLastCheckpoint(ctx context.Context, epoch uint64) (*types.CheckpointSummary, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT sequence, epoch, content_digest, end_of_epoch
		FROM checkpoints
		WHERE epoch = ?
		ORDER BY sequence DESC
		LIMIT 1
	`, epoch)

	return scanCheckpoint(row)
}

func scanCheckpoint(row *sql.Row) (*types.CheckpointSummary, error) {
	var (
		summary    types.CheckpointSummary
		digest     string
		endOfEpoch int
	)
	err := row.Scan(&summary.Sequence, &summary.Epoch, &digest, &endOfEpoch)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan checkpoint: %w", err)
	}
	summary.ContentDigest = types.Digest(digest)
	summary.EndOfEpoch = endOfEpoch != 0
	return &summary, nil
}

// GetContents returns the ordered contents for a content digest, or nil if
// the archive does not hold them. Entries come back ORDER BY position ASC -
// the recorded execution order.
func (a *Archive) GetContents(ctx context.Context, digest types.Digest) (*types.CheckpointContents, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT tx_digest, effects_digest
		FROM checkpoint_contents
		WHERE content_digest = ?
		ORDER BY position ASC
	`, string(digest))
	if err != nil {
		return nil, fmt.Errorf("query contents %s: %w", digest, err)
	}
	defer rows.Close()

	var entries []types.ExecutionDigests
	for rows.Next() {
		var txDigest, effectsDigest string
		if err := rows.Scan(&txDigest, &effectsDigest); err != nil {
			return nil, fmt.Errorf("scan contents entry: %w", err)
		}
		entries = append(entries, types.ExecutionDigests{
			Transaction: types.Digest(txDigest),
			Effects:     types.Digest(effectsDigest),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contents: %w", err)
	}

	if entries == nil {
		// An empty checkpoint still has a summary row referencing the digest;
		// distinguish "empty contents" from "unknown digest".
		var known int
		err := a.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM checkpoints WHERE content_digest = ?
		`, string(digest)).Scan(&known)
		if err != nil {
			return nil, fmt.Errorf("probe contents %s: %w", digest, err)
		}
		if known == 0 {
			return nil, nil
		}
	}
	return &types.CheckpointContents{Entries: entries}, nil
}

// GetTransaction returns the transaction record for a digest, or nil if the
// archive does not hold it.
func (a *Archive) GetTransaction(ctx context.Context, digest types.Digest) (*types.TransactionRecord, error) {
	var data string
	err := a.db.QueryRowContext(ctx, `
		SELECT record FROM transactions WHERE digest = ?
	`, string(digest)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", digest, err)
	}

	record, err := unmarshalTransaction(data)
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", digest, err)
	}
	return &record, nil
}

// CountCheckpoints returns the number of checkpoints held by the archive.
// Used by the inspect command.
func (a *Archive) CountCheckpoints(ctx context.Context) (int64, error) {
	var count int64
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM checkpoints`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count checkpoints: %w", err)
	}
	return count, nil
}

// CountTransactions returns the number of transactions held by the archive.
// Used by the inspect command.
func (a *Archive) CountTransactions(ctx context.Context) (int64, error) {
	var count int64
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}
