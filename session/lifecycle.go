// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/easel-project/easel/lib/identity"
	"github.com/easel-project/easel/lib/ref"
)

// LifecycleConfig holds the collaborators JoinOrCreate needs.
type LifecycleConfig struct {
	// Store is the session document store.
	Store Store

	// Identity issues the local participant's identity.
	Identity identity.Provider

	// Logger receives operational messages. Nil means slog.Default().
	Logger *slog.Logger
}

// JoinOrCreate resolves identity and session existence once at
// startup:
//
//  1. Authenticate. A failure here is fatal and not retried.
//  2. Look the session up by key. Found: join it — the caller is a
//     spectator unless its identity equals the document's owner.
//  3. Not found: create it with the caller as owner and no strokes.
//  4. If the create loses a race to another participant (unique-key
//     rejection), fall back to the lookup path. This fallback is
//     required behavior, not hardening: both racers end up joined to
//     the same document, one as owner.
//
// The returned Bootstrap carries everything an Engine needs.
func JoinOrCreate(ctx context.Context, config LifecycleConfig, key ref.SessionKey) (Bootstrap, error) {
	if config.Store == nil {
		return Bootstrap{}, fmt.Errorf("session: join requires a store")
	}
	if config.Identity == nil {
		return Bootstrap{}, fmt.Errorf("session: join requires an identity provider")
	}
	if key.IsZero() {
		return Bootstrap{}, fmt.Errorf("session: join requires a session key")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	participant, err := config.Identity.AuthenticateAnonymously(ctx)
	if err != nil {
		return Bootstrap{}, fmt.Errorf("session: authenticating: %w", err)
	}

	doc, err := config.Store.Find(ctx, key)
	switch {
	case err == nil:
		logger.Info("joined existing session",
			"session", key,
			"participant", participant,
			"owner", doc.OwnerID,
			"strokes", len(doc.Strokes),
		)
		return bootstrapFrom(doc, participant), nil

	case !IsStoreError(err, ErrCodeNotFound):
		// The store was unreachable or rejected the lookup outright.
		// The session cannot start.
		return Bootstrap{}, fmt.Errorf("session: looking up %s: %w", key, err)
	}

	// No such session: create it with ourselves as owner.
	created := SessionDocument{ID: key, OwnerID: participant}
	err = config.Store.Insert(ctx, created)
	switch {
	case err == nil:
		logger.Info("created session",
			"session", key,
			"owner", participant,
		)
		return bootstrapFrom(created, participant), nil

	case IsStoreError(err, ErrCodeSessionInUse):
		// Lost the creation race. The winner's document must exist
		// now; join it instead.
		logger.Info("lost session creation race, joining instead",
			"session", key,
			"participant", participant,
		)
		doc, err := config.Store.Find(ctx, key)
		if err != nil {
			return Bootstrap{}, fmt.Errorf("session: joining %s after creation race: %w", key, err)
		}
		return bootstrapFrom(doc, participant), nil

	default:
		return Bootstrap{}, fmt.Errorf("session: creating %s: %w", key, err)
	}
}

func bootstrapFrom(doc SessionDocument, participant ref.ParticipantID) Bootstrap {
	return Bootstrap{
		Key:           doc.ID,
		OwnerID:       doc.OwnerID,
		ParticipantID: participant,
		Strokes:       doc.Strokes,
	}
}
