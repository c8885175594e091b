// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitestore is the authoritative session store, backed by a
// SQLite database through lib/sqlitepool.
//
// Sessions live in a two-table schema: a sessions row per document
// (key, owner) and a strokes row per committed stroke, keyed by
// (session, seq) with seq assigned 1-based and contiguous inside the
// append transaction. Stroke geometry is stored as a CBOR blob,
// LZ4-compressed when that makes it smaller, with a one-byte
// compression tag recorded alongside.
//
// The ownership rule is enforced here, not trusted from callers: the
// append transaction re-reads the owner row and refuses the write if
// the caller's identity does not match. A racing rename of authority
// is impossible — owner is immutable after Insert.
//
// Change feeds are served by an in-process hub. Subscribers register
// before the backlog query inside the session's lock window, so a
// stroke committed during subscription setup is delivered exactly once:
// either it was in the backlog, or it arrives live and the feed's
// watermark admits it.
package sqlitestore
