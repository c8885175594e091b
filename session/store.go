// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"

	"github.com/easel-project/easel/lib/geo"
	"github.com/easel-project/easel/lib/ref"
)

// Store is the session document store. Two implementations exist:
//
//   - store/sqlitestore: the authoritative store, backed by SQLite
//     with an in-process change hub. Used by the server and by
//     single-machine sessions.
//   - store/httpstore: a remote client speaking the document-store
//     HTTP API. Used by participant clients.
//
// All failures are returned as (or wrapped around) [*StoreError] so
// callers can branch on the code with [IsStoreError].
type Store interface {
	// Insert creates a new session document. The document's key must
	// be unused: a second insert for the same key fails with
	// ErrCodeSessionInUse, which is how concurrent creators of the
	// same room are serialized down to one winner.
	Insert(ctx context.Context, doc SessionDocument) error

	// Find returns the document for key, including its full stroke
	// history. Fails with ErrCodeNotFound when no such session
	// exists.
	Find(ctx context.Context, key ref.SessionKey) (SessionDocument, error)

	// AppendStroke appends one complete stroke to the session's log.
	// The update is conditional on BOTH the key and the owner
	// matching the stored document — this filter is the
	// authorization boundary, enforced where the data lives. A
	// non-owner identity fails with ErrCodeNotOwner and changes
	// nothing. Returns the store-assigned seq of the new stroke.
	AppendStroke(ctx context.Context, key ref.SessionKey, owner ref.ParticipantID, stroke geo.Stroke) (uint64, error)

	// Subscribe opens a live change feed for one session, delivering
	// strokes with seq > since in ascending seq order, at least
	// once. The feed is scoped to the single session and never
	// carries another session's strokes.
	Subscribe(ctx context.Context, key ref.SessionKey, since uint64) (Feed, error)
}

// Feed is a live change subscription for one session.
//
// A Feed is not safe for concurrent use by multiple goroutines; the
// engine dedicates one listener goroutine to it.
type Feed interface {
	// Next blocks until the next change event arrives, the feed
	// fails, or ctx is done.
	Next(ctx context.Context) (ChangeEvent, error)

	// Close releases the subscription. Idempotent.
	Close() error
}

// Renderer draws one polyline per call. It is stateless from the
// core's perspective: every call carries a complete, independent
// point list, and previously drawn strokes are never mutated or
// redrawn (additive rendering only). Implementations must tolerate
// being called from the engine's goroutines.
type Renderer interface {
	DrawPolyline(points []geo.Point)
}

// PointerSource yields the current pointer observation. Sample is
// called once per sampling tick from the engine's sampler goroutine
// and must not block.
type PointerSource interface {
	Sample() PointerSample
}
