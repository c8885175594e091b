// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// ParticipantID is the stable identity of one session participant.
// IDs are opaque provider-assigned strings with no internal structure
// (the anonymous provider issues UUIDs, but nothing in the system
// depends on that). The type exists to prevent accidental confusion
// with other string values — session keys, stroke IDs — at compile
// time, and to make the ownership comparison in the commit path a
// comparison between two values of the same named type.
type ParticipantID struct {
	id string
}

// ParseParticipantID constructs a ParticipantID from a raw string.
// Returns an error if the string is empty.
func ParseParticipantID(raw string) (ParticipantID, error) {
	if raw == "" {
		return ParticipantID{}, fmt.Errorf("participant ID is empty")
	}
	return ParticipantID{id: raw}, nil
}

// String returns the raw participant ID string.
func (p ParticipantID) String() string {
	return p.id
}

// IsZero reports whether the ParticipantID is the zero value (empty).
func (p ParticipantID) IsZero() bool {
	return p.id == ""
}

// MarshalText implements encoding.TextMarshaler. Returns an error if
// the ParticipantID is zero, since an empty identity would make the
// owner filter match nothing.
func (p ParticipantID) MarshalText() ([]byte, error) {
	if p.id == "" {
		return nil, fmt.Errorf("cannot marshal zero ParticipantID")
	}
	return []byte(p.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (matching the omitempty JSON convention).
func (p *ParticipantID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*p = ParticipantID{}
		return nil
	}
	*p = ParticipantID{id: string(data)}
	return nil
}
