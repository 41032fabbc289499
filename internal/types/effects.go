package types

import "fmt"

// ExecutionStatus is the outcome recorded in a transaction's effects.
type ExecutionStatus string

const (
	StatusSuccess ExecutionStatus = "success"
	StatusFailure ExecutionStatus = "failure"
)

// TransactionEffects is the structured record of one executed transaction's
// outcome. Its digest is the value the whole tool exists to re-derive.
type TransactionEffects struct {
	TransactionDigest Digest            `json:"transaction_digest"`
	Epoch             uint64            `json:"epoch"`
	Status            ExecutionStatus   `json:"status"`
	GasUsed           uint64            `json:"gas_used"`
	Written           []ObjectReference `json:"written"`
	Deleted           []ObjectID        `json:"deleted"`
	Dependencies      []ObjectID        `json:"dependencies"`
}

// Digest computes the effects content digest. Byte-identical effects
// always produce the same digest.
func (e TransactionEffects) Digest() (Digest, error) {
	written := make(Array, len(e.Written))
	for i, ref := range e.Written {
		written[i] = Object{
			"id":      String(ref.ID),
			"version": Int(ref.Version),
			"digest":  String(ref.Digest),
		}
	}
	deleted := make(Array, len(e.Deleted))
	for i, id := range e.Deleted {
		deleted[i] = String(id)
	}
	deps := make(Array, len(e.Dependencies))
	for i, id := range e.Dependencies {
		deps[i] = String(id)
	}
	canonical, err := MarshalCanonical(Object{
		"transaction_digest": String(e.TransactionDigest),
		"epoch":              Int(e.Epoch),
		"status":             String(e.Status),
		"gas_used":           Int(e.GasUsed),
		"written":            written,
		"deleted":            deleted,
		"dependencies":       deps,
	})
	if err != nil {
		return "", fmt.Errorf("effects digest: %w", err)
	}
	return digestWithDomain(DomainEffects, canonical), nil
}

// ExecutionResult is what the execution engine hands back to the driver:
// the effects record plus the pending write/delete sets. The engine never
// mutates the working store; the driver commits these sets afterwards.
type ExecutionResult struct {
	Effects TransactionEffects

	// Written maps each written identifier to its new revision.
	Written map[ObjectID]ObjectRecord

	// Deleted lists the identifiers removed by the transaction.
	Deleted []ObjectID

	// ExecErr is a soft error the transaction itself recorded (part of its
	// effects), distinct from a driver-fatal error.
	ExecErr string
}
