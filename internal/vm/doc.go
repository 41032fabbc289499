// Package vm provides the reference execution engine and gas accountant
// consumed by the replay driver.
//
// The engine is deliberately simple: transaction payloads carry the full
// new contents for every written object, so execution is version bumping,
// digest computation and gas charging. What matters is determinism, not
// expressiveness: the same transaction against the same store view must
// always produce byte-identical effects, because the recorded history this
// tool verifies was produced by the same engine at ingest time.
package vm
