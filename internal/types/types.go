package types

import "fmt"

// ObjectID uniquely identifies a ledger object.
// IDs are opaque hex strings assigned at object creation.
type ObjectID string

// Version is an object version/generation marker. Every successful write
// of an object produces a new, strictly larger version.
type Version uint64

// ObjectReference identifies one immutable revision of an object.
type ObjectReference struct {
	ID      ObjectID `json:"id"`
	Version Version  `json:"version"`
	Digest  Digest   `json:"digest"`
}

// ObjectRecord is an object revision plus its contents. The working store
// holds at most one record per identifier (the latest revision).
type ObjectRecord struct {
	Reference ObjectReference `json:"reference"`
	Contents  Object          `json:"contents"`
}

// NewObjectRecord builds a record for the given id/version, computing the
// reference digest from the contents.
func NewObjectRecord(id ObjectID, version Version, contents Object) (ObjectRecord, error) {
	d, err := ObjectDigest(contents)
	if err != nil {
		return ObjectRecord{}, fmt.Errorf("object %s: %w", id, err)
	}
	return ObjectRecord{
		Reference: ObjectReference{ID: id, Version: version, Digest: d},
		Contents:  contents,
	}, nil
}

// InputKind discriminates the declared input-object kinds of a transaction.
type InputKind string

const (
	// InputPackage references an immutable package object.
	InputPackage InputKind = "package"
	// InputShared references a shared object.
	InputShared InputKind = "shared"
	// InputOwned references an owned object at a specific version.
	InputOwned InputKind = "owned"
)

// InputObjectKind is one declared input of a transaction: a package,
// shared, or owned object reference.
type InputObjectKind struct {
	Kind    InputKind `json:"kind"`
	ID      ObjectID  `json:"id"`
	Version Version   `json:"version,omitempty"` // owned inputs only
}

// OpCode identifies the operation a transaction performs.
type OpCode string

const (
	// OpMutate writes and/or deletes application objects.
	OpMutate OpCode = "mutate"
	// OpChangeEpoch is the designated end-of-epoch transaction. It carries
	// the next system state in its write set; the driver logs it but applies
	// its write set like any other transaction.
	OpChangeEpoch OpCode = "change_epoch"
)

// WriteSpec is one object write carried by a transaction payload:
// the full new contents for the identifier.
type WriteSpec struct {
	ID       ObjectID `json:"id"`
	Contents Object   `json:"contents"`
}

// TransactionKind is the operation payload of a transaction.
type TransactionKind struct {
	Op      OpCode      `json:"op"`
	Writes  []WriteSpec `json:"writes,omitempty"`
	Deletes []ObjectID  `json:"deletes,omitempty"`
}

// TransactionRecord is an already-ordered, already-signed transaction as
// recorded in a checkpoint. Signature validity is established before a
// transaction is recorded; this tool never re-checks it.
type TransactionRecord struct {
	Digest    Digest            `json:"digest"`
	Kind      TransactionKind   `json:"kind"`
	Signer    string            `json:"signer"`
	GasRef    ObjectReference   `json:"gas_ref"`
	GasBudget uint64            `json:"gas_budget"`
	Inputs    []InputObjectKind `json:"inputs"`
}

// NewTransactionRecord builds a record and computes its content digest.
func NewTransactionRecord(kind TransactionKind, signer string, gasRef ObjectReference, gasBudget uint64, inputs []InputObjectKind) (TransactionRecord, error) {
	tx := TransactionRecord{
		Kind:      kind,
		Signer:    signer,
		GasRef:    gasRef,
		GasBudget: gasBudget,
		Inputs:    inputs,
	}
	d, err := tx.computeDigest()
	if err != nil {
		return TransactionRecord{}, err
	}
	tx.Digest = d
	return tx, nil
}

func (tx TransactionRecord) computeDigest() (Digest, error) {
	canonical, err := MarshalCanonical(tx.canonicalObject())
	if err != nil {
		return "", fmt.Errorf("transaction digest: %w", err)
	}
	return digestWithDomain(DomainTransaction, canonical), nil
}

func (tx TransactionRecord) canonicalObject() Object {
	inputs := make(Array, len(tx.Inputs))
	for i, in := range tx.Inputs {
		inputs[i] = Object{
			"kind":    String(in.Kind),
			"id":      String(in.ID),
			"version": Int(in.Version),
		}
	}
	writes := make(Array, len(tx.Kind.Writes))
	for i, w := range tx.Kind.Writes {
		writes[i] = Object{
			"id":       String(w.ID),
			"contents": w.Contents,
		}
	}
	deletes := make(Array, len(tx.Kind.Deletes))
	for i, id := range tx.Kind.Deletes {
		deletes[i] = String(id)
	}
	return Object{
		"op":         String(tx.Kind.Op),
		"signer":     String(tx.Signer),
		"gas_id":     String(tx.GasRef.ID),
		"gas_ver":    Int(tx.GasRef.Version),
		"gas_budget": Int(tx.GasBudget),
		"inputs":     inputs,
		"writes":     writes,
		"deletes":    deletes,
	}
}

// ExecutionDigests pairs a transaction digest with the effects digest its
// historical execution produced.
type ExecutionDigests struct {
	Transaction Digest `json:"transaction"`
	Effects     Digest `json:"effects"`
}

// CheckpointContents is the ordered transaction list of one checkpoint.
// Entry order is the authoritative execution order.
type CheckpointContents struct {
	Entries []ExecutionDigests `json:"entries"`
}

// Size returns the number of transactions in the checkpoint.
func (c CheckpointContents) Size() int { return len(c.Entries) }

// Digest computes the content digest referenced by the checkpoint summary.
func (c CheckpointContents) Digest() (Digest, error) {
	entries := make(Array, len(c.Entries))
	for i, e := range c.Entries {
		entries[i] = Object{
			"transaction": String(e.Transaction),
			"effects":     String(e.Effects),
		}
	}
	canonical, err := MarshalCanonical(Object{"entries": entries})
	if err != nil {
		return "", fmt.Errorf("contents digest: %w", err)
	}
	return digestWithDomain(DomainContents, canonical), nil
}

// CheckpointSummary describes one checkpoint: its position in the sequence,
// the digest of its contents, and whether it closes an epoch.
type CheckpointSummary struct {
	Sequence      uint64 `json:"sequence"`
	Epoch         uint64 `json:"epoch"`
	ContentDigest Digest `json:"content_digest"`
	EndOfEpoch    bool   `json:"end_of_epoch"`
}

// Digest computes the summary's own content digest, used as the
// previous-epoch anchor in the epoch-start configuration.
func (s CheckpointSummary) Digest() (Digest, error) {
	canonical, err := MarshalCanonical(Object{
		"sequence":       Int(s.Sequence),
		"epoch":          Int(s.Epoch),
		"content_digest": String(s.ContentDigest),
		"end_of_epoch":   Bool(s.EndOfEpoch),
	})
	if err != nil {
		return "", fmt.Errorf("checkpoint digest: %w", err)
	}
	return digestWithDomain(DomainCheckpoint, canonical), nil
}

// InputObjects is the resolved input set for one transaction: each declared
// kind paired with the store record it resolved to, in declaration order.
type InputObjects struct {
	Pairs []InputPair
}

// InputPair is one declared input kind plus its resolved record.
type InputPair struct {
	Kind   InputObjectKind
	Record ObjectRecord
}

// NewInputObjects pairs declared kinds with resolved records.
// Both slices must have equal length and matching order.
func NewInputObjects(kinds []InputObjectKind, records []ObjectRecord) InputObjects {
	pairs := make([]InputPair, len(kinds))
	for i := range kinds {
		pairs[i] = InputPair{Kind: kinds[i], Record: records[i]}
	}
	return InputObjects{Pairs: pairs}
}

// SharedObjects returns the references of the shared-object subset.
func (in InputObjects) SharedObjects() []ObjectReference {
	var shared []ObjectReference
	for _, p := range in.Pairs {
		if p.Kind.Kind == InputShared {
			shared = append(shared, p.Record.Reference)
		}
	}
	return shared
}

// Dependencies returns the identifiers the transaction causally depends on,
// in declaration order, without duplicates.
func (in InputObjects) Dependencies() []ObjectID {
	seen := make(map[ObjectID]bool, len(in.Pairs))
	var deps []ObjectID
	for _, p := range in.Pairs {
		if !seen[p.Kind.ID] {
			seen[p.Kind.ID] = true
			deps = append(deps, p.Kind.ID)
		}
	}
	return deps
}

// Records returns the resolved records in declaration order.
func (in InputObjects) Records() []ObjectRecord {
	records := make([]ObjectRecord, len(in.Pairs))
	for i, p := range in.Pairs {
		records[i] = p.Record
	}
	return records
}
