// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package session implements the core of a shared drawing session:
// stroke capture, ownership-gated commit, and ordered replay.
//
// The package provides three cooperating pieces. [StrokeBuffer]
// converts per-tick pointer samples into discrete strokes (one
// pointer-down-to-up motion each). [JoinOrCreate] resolves identity
// and session existence once at startup, producing the [Bootstrap]
// record an engine needs. [Engine] then runs two concurrent consumers
// for the life of the session: a ticker-driven sampler that feeds the
// buffer and hands completed strokes to a serializing commit worker
// (owner only), and a change-feed listener that renders strokes in
// store-assigned sequence order.
//
// Authorization is not a client-side check. [Store.AppendStroke] is a
// conditional update — it applies only when both the session key and
// the committing participant's identity match the stored document, so
// a spectator's append is rejected by the store no matter what the
// client believes about itself.
//
// The two consumers share no mutable state: the buffer belongs to the
// sampler, and every [Renderer.DrawPolyline] call carries its own
// complete point list, so a stroke being replayed from the feed can
// never contaminate one still being drawn locally.
//
// Failure policy follows the split in the store error taxonomy:
// anything that prevents bootstrap (authentication, the initial
// lookup or create, the initial subscription) aborts startup and is
// returned to the caller; anything in the steady-state loop (a
// rejected commit, a dying feed) is logged and degrades — local
// drawing keeps working even when sync does not.
package session
