package archive

import (
	"context"
	"fmt"

	"github.com/ledgerlab/replayer/internal/types"
)

// Watermark names understood by the archive.
const (
	watermarkHighestSynced   = "highest_synced"
	watermarkHighestExecuted = "highest_executed"
)

// PutCheckpoint inserts a checkpoint summary together with its ordered
// contents in a single transaction. Uses ON CONFLICT DO NOTHING for
// idempotency - re-ingesting the same checkpoint is silently ignored.
//
// The summary's content digest must match the digest of the provided
// contents; a mismatch is a caller bug and returns an error.
func (a *Archive) PutCheckpoint(ctx context.Context, summary types.CheckpointSummary, contents types.CheckpointContents) error {
	contentDigest, err := contents.Digest()
	if err != nil {
		return fmt.Errorf("put checkpoint %d: %w", summary.Sequence, err)
	}
	if contentDigest != summary.ContentDigest {
		return fmt.Errorf("put checkpoint %d: summary content digest %s does not match contents %s",
			summary.Sequence, summary.ContentDigest, contentDigest)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put checkpoint %d: begin tx: %w", summary.Sequence, err)
	}
	defer tx.Rollback() // No-op if committed

	endOfEpoch := 0
	if summary.EndOfEpoch {
		endOfEpoch = 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkpoints (sequence, epoch, content_digest, end_of_epoch)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(sequence) DO NOTHING
	`, summary.Sequence, summary.Epoch, string(summary.ContentDigest), endOfEpoch)
	if err != nil {
		return fmt.Errorf("put checkpoint %d: insert summary: %w", summary.Sequence, err)
	}

	for position, entry := range contents.Entries {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO checkpoint_contents (content_digest, position, tx_digest, effects_digest)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(content_digest, position) DO NOTHING
		`, string(summary.ContentDigest), position, string(entry.Transaction), string(entry.Effects))
		if err != nil {
			return fmt.Errorf("put checkpoint %d: insert entry %d: %w", summary.Sequence, position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put checkpoint %d: commit: %w", summary.Sequence, err)
	}

	return nil
}

// PutTransaction inserts a transaction record.
// Uses ON CONFLICT(digest) DO NOTHING for idempotency.
func (a *Archive) PutTransaction(ctx context.Context, record types.TransactionRecord) error {
	data, err := marshalTransaction(record)
	if err != nil {
		return fmt.Errorf("put transaction: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO transactions (digest, record)
		VALUES (?, ?)
		ON CONFLICT(digest) DO NOTHING
	`, string(record.Digest), data)
	if err != nil {
		return fmt.Errorf("put transaction %s: %w", record.Digest, err)
	}

	return nil
}

// SetHighestSyncedSeq records the highest checkpoint sequence number the
// archive holds a complete copy of.
func (a *Archive) SetHighestSyncedSeq(ctx context.Context, seq uint64) error {
	return a.setWatermark(ctx, watermarkHighestSynced, seq)
}

// SetHighestExecutedSeq records the highest checkpoint sequence number a
// previous run has executed.
func (a *Archive) SetHighestExecutedSeq(ctx context.Context, seq uint64) error {
	return a.setWatermark(ctx, watermarkHighestExecuted, seq)
}

func (a *Archive) setWatermark(ctx context.Context, name string, seq uint64) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO watermarks (name, sequence)
		VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET sequence = excluded.sequence
	`, name, seq)
	if err != nil {
		return fmt.Errorf("set watermark %s: %w", name, err)
	}
	return nil
}
