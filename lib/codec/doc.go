// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides easel's standard CBOR encoding configuration.
//
// Easel uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: the document-store HTTP API, CLI
//     output, and configuration-adjacent surfaces.
//   - CBOR for internal data: persisted stroke blobs in the SQLite
//     store and anything else that is hashed or stored verbatim.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, smallest integer encoding, no indefinite-length
// items. Same logical data always produces identical bytes, which is
// what makes stroke content hashes stable — the BLAKE3 stroke ID is
// computed over the canonical CBOR encoding of the point list.
//
// Types implementing encoding.TextMarshaler (ref.SessionKey,
// ref.ParticipantID) serialize as CBOR text strings, mirroring their
// JSON representation.
package codec
