// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the standard SQLite connection pool for
// easel storage backends.
//
// It wraps zombiezen.com/go/sqlite with the defaults a long-running
// drawing server wants: WAL journal mode so the change-feed long-poll
// readers never block the single stroke writer, NORMAL synchronous for
// process-crash durability without an fsync per committed stroke, and
// a busy timeout so concurrent joins retry instead of surfacing
// SQLITE_BUSY to participants.
//
// The pool is built on zombiezen's sqlitex.Pool. Callers [Pool.Take] a
// connection, perform work, and [Pool.Put] it back. Connections are
// NOT safe for concurrent use; each goroutine holds its own for the
// duration of its work.
//
// The package is intentionally thin: standard pragmas, the underlying
// zombiezen types exposed directly, no query builder. Backends write
// SQL, use sqlitex.Execute for cached statements, and manage
// transactions with sqlitex.ImmediateTransaction.
package sqlitepool
