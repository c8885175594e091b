// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity issues participant identities.
//
// The session lifecycle needs exactly one thing from an identity
// provider: a stable [ref.ParticipantID] for the local participant,
// obtained once at session start. [Provider] is that contract.
//
// [Anonymous] is the local implementation: it mints a random UUID per
// call, which is all the authorization model requires — ownership is
// decided by whichever identity creates a session, not by who the
// identity belongs to. The remote document store exposes the same
// contract over HTTP (store/httpstore implements Provider by calling
// the server's anonymous-auth endpoint, so identities are issued by
// the same party that enforces them).
package identity
