// Package replay implements the checkpoint replay-and-verify driver.
//
// The driver walks checkpoints in sequence order, re-executes every
// transaction recorded in each checkpoint's contents, and verifies that
// the recomputed effects digest matches the digest the original execution
// recorded. Matching digests across an independent re-execution is the
// determinism proof this tool exists to produce.
//
// ARCHITECTURE:
//
// Single-Writer Replay Loop:
// The driver processes checkpoints and transactions in a single goroutine.
// This is not an optimization target, it is the correctness model: a later
// transaction may read objects written or deleted by an earlier one, so no
// two transactions may ever execute concurrently against the working store.
// The store has no internal locking for the same reason.
//
// Per-Transaction Flow:
// 1. Transaction record fetched from the archive by digest
// 2. InputResolver reads declared inputs from the working store
// 3. GasAccountant validates budget and price against epoch parameters
// 4. ExecutionEngine computes effects plus pending write/delete sets
// 5. EffectsVerifier compares the recomputed digest to the recorded one
// 6. StoreMutator commits deletions first, then writes
//
// The engine never mutates the working store directly. It returns pending
// mutations, and the driver commits them only after verification passes.
// This two-phase "compute effects, then commit" split is what lets the
// verifier inspect an outcome before it becomes visible.
//
// Epoch boundaries: when a checkpoint carries the end-of-epoch flag, the
// driver reads the system-state object from the mutated store, derives the
// next committee and epoch-start configuration, and replaces the active
// EpochContext wholesale. Parameters are never updated field by field, so
// no transaction can observe a mix of old and new epoch state.
//
// Every error in this package is fatal. The input is a previously-validated
// historical record; any deviation means replay state diverged from history,
// and the run stops with full diagnostic context rather than skipping.
package replay
