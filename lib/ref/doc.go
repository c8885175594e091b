// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identity references
// for easel entities. A drawing session is identified by a
// [SessionKey]; a participant in a session is identified by a
// [ParticipantID].
//
// Both are validated value types rather than raw strings so that a
// session key can never be passed where a participant identity is
// expected (and vice versa) and so that invalid identifiers are
// rejected at the boundary where they enter the system, not deep
// inside the store.
//
// All types implement encoding.TextMarshaler and
// encoding.TextUnmarshaler, so they serialize as plain strings in
// both JSON and CBOR.
package ref
