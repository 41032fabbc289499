package replay

import (
	"fmt"
	"log/slog"

	"github.com/ledgerlab/replayer/internal/types"
)

// EffectsVerifier checks the central invariant: the recomputed effects
// digest of a re-executed transaction must equal the digest recorded in
// the checkpoint contents.
type EffectsVerifier struct{}

// Verify compares the effects' digest against the recorded one. A mismatch
// logs both digests and returns a fatal error; there is no recovery path,
// replay determinism is an unconditional precondition for continuing.
func (EffectsVerifier) Verify(effects types.TransactionEffects, expected types.Digest) error {
	actual, err := effects.Digest()
	if err != nil {
		return fmt.Errorf("verify %s: %w", effects.TransactionDigest, err)
	}
	if actual != expected {
		slog.Error("effects digest mismatch",
			"tx", effects.TransactionDigest,
			"recorded", expected,
			"recomputed", actual)
		return NewEffectsMismatchError(effects.TransactionDigest, expected, actual)
	}
	return nil
}
