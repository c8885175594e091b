// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/easel-project/easel/lib/codec"
)

// StrokeID is a 32-byte keyed BLAKE3 digest of a stroke's canonical
// CBOR encoding. It identifies stroke content in logs and change
// events. Ordering and dedup correctness rest on store-assigned
// sequence numbers; the content ID exists so the same stroke is
// recognizable across participants and restarts.
type StrokeID [32]byte

// strokeDomainKey is the 32-byte key for BLAKE3 keyed hashing. Domain
// separation keeps stroke hashes from colliding with any other keyed
// BLAKE3 use. The bytes are the ASCII domain name, zero-padded —
// readable in hex dumps without sacrificing any property of keyed
// mode.
var strokeDomainKey = [32]byte{
	'e', 'a', 's', 'e', 'l', '.', 's', 't', 'r', 'o', 'k', 'e',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// HashStroke computes the stroke-domain BLAKE3 keyed hash of the
// stroke's canonical CBOR encoding. Fails only if the stroke cannot
// be CBOR-encoded, which Validate rules out for any stroke accepted
// into the system.
func HashStroke(s Stroke) (StrokeID, error) {
	data, err := codec.Marshal(s)
	if err != nil {
		return StrokeID{}, err
	}

	hasher, err := blake3.NewKeyed(strokeDomainKey[:])
	if err != nil {
		// NewKeyed fails only for a key that is not 32 bytes.
		panic("geo: BLAKE3 keyed hasher initialization failed: " + err.Error())
	}
	hasher.Write(data)

	var id StrokeID
	hasher.Digest().Read(id[:])
	return id, nil
}

// String returns the full lowercase hex form of the ID.
func (id StrokeID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first 8 hex characters, for log lines where the
// full digest is noise.
func (id StrokeID) Short() string {
	return hex.EncodeToString(id[:4])
}
