// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/easel-project/easel/lib/ref"
)

// Provider issues a stable participant identity. Implementations may
// reach the network (the document-store server issues identities for
// remote sessions), so the call takes a context and can fail. A
// failure here is fatal to session start — the lifecycle does not
// retry it.
type Provider interface {
	AuthenticateAnonymously(ctx context.Context) (ref.ParticipantID, error)
}

// Anonymous returns a Provider that mints a random UUID per call
// without touching the network. Used when the store is local
// (in-process SQLite) and there is no server to issue identities.
func Anonymous() Provider { return anonymousProvider{} }

type anonymousProvider struct{}

func (anonymousProvider) AuthenticateAnonymously(ctx context.Context) (ref.ParticipantID, error) {
	if err := ctx.Err(); err != nil {
		return ref.ParticipantID{}, fmt.Errorf("identity: authenticate: %w", err)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return ref.ParticipantID{}, fmt.Errorf("identity: generating participant ID: %w", err)
	}
	participant, err := ref.ParseParticipantID(id.String())
	if err != nil {
		return ref.ParticipantID{}, fmt.Errorf("identity: %w", err)
	}
	return participant, nil
}
