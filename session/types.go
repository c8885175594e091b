// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"github.com/easel-project/easel/lib/geo"
	"github.com/easel-project/easel/lib/ref"
)

// SessionDocument is the durable shared state of one drawing room.
// It is created exactly once (by whichever participant first requests
// an unused key), mutated only through stroke appends by its owner,
// and never deleted. Strokes never shrink and never reorder:
// insertion order is drawing order is render order.
type SessionDocument struct {
	// ID is the session key, chosen by the creator. Immutable.
	ID ref.SessionKey `json:"id"`

	// OwnerID is the only identity permitted to append strokes.
	// Set at creation. Immutable.
	OwnerID ref.ParticipantID `json:"owner_id"`

	// Strokes is the append-only stroke log. Only complete strokes
	// (pointer released) ever appear here — a stroke in progress is
	// invisible to every other participant.
	Strokes []geo.Stroke `json:"strokes"`
}

// Seq returns the document's current sequence position: the 1-based
// seq of the newest stroke, or zero for an empty document. A
// subscription opened with this value as its cursor delivers exactly
// the strokes the document does not yet contain.
func (d SessionDocument) Seq() uint64 {
	return uint64(len(d.Strokes))
}

// ChangeEvent is one appended stroke as delivered by a change feed.
// Events for a session arrive in ascending Seq order, at least once:
// a feed may redeliver an event (the listener's monotonic seq guard
// makes the redraw a no-op) but never delivers out of order.
type ChangeEvent struct {
	// Seq is the stroke's store-assigned, 1-based position in the
	// session's stroke log. Contiguous: the stroke at Seq n is the
	// nth stroke ever committed.
	Seq uint64 `json:"seq"`

	// Stroke is the appended stroke.
	Stroke geo.Stroke `json:"points"`
}

// PointerSample is one per-tick observation of the pointer: position
// (with the brush centering offset already applied by the capture
// side) and whether the button is held.
type PointerSample struct {
	Position geo.Point
	Pressed  bool
}

// Bootstrap is the record JoinOrCreate hands to the engine: everything
// needed to render the history so far and take a position in the
// change stream.
type Bootstrap struct {
	// Key is the session being drawn in.
	Key ref.SessionKey

	// OwnerID is the session owner's identity.
	OwnerID ref.ParticipantID

	// ParticipantID is the local participant's identity.
	ParticipantID ref.ParticipantID

	// Strokes is the stroke history as of join/create time.
	Strokes []geo.Stroke
}

// IsOwner reports whether the local participant owns the session and
// may therefore commit strokes. Everyone else is a spectator.
func (b Bootstrap) IsOwner() bool {
	return !b.ParticipantID.IsZero() && b.ParticipantID == b.OwnerID
}

// Seq returns the sequence position of the bootstrap snapshot.
func (b Bootstrap) Seq() uint64 {
	return uint64(len(b.Strokes))
}
