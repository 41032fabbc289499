package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Digest is a hex-encoded SHA-256 content digest.
type Digest string

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainObject      = "replayer/object/v1"
	DomainTransaction = "replayer/transaction/v1"
	DomainEffects     = "replayer/effects/v1"
	DomainContents    = "replayer/contents/v1"
	DomainCheckpoint  = "replayer/checkpoint/v1"
)

// digestWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func digestWithDomain(domain string, data []byte) Digest {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return Digest(hex.EncodeToString(h.Sum(nil)))
}

// ObjectDigest computes the content digest of object contents.
// Stable across restarts and replays given identical contents.
func ObjectDigest(contents Object) (Digest, error) {
	canonical, err := MarshalCanonical(contents)
	if err != nil {
		return "", fmt.Errorf("ObjectDigest: %w", err)
	}
	return digestWithDomain(DomainObject, canonical), nil
}

// MustObjectDigest is like ObjectDigest but panics on error.
// Use only in tests or when contents are known to be valid.
func MustObjectDigest(contents Object) Digest {
	d, err := ObjectDigest(contents)
	if err != nil {
		panic(err)
	}
	return d
}
