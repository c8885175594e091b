// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"testing"
)

func TestAnonymousIssuesDistinctIdentities(t *testing.T) {
	provider := Anonymous()

	first, err := provider.AuthenticateAnonymously(context.Background())
	if err != nil {
		t.Fatalf("AuthenticateAnonymously: %v", err)
	}
	second, err := provider.AuthenticateAnonymously(context.Background())
	if err != nil {
		t.Fatalf("AuthenticateAnonymously: %v", err)
	}

	if first.IsZero() || second.IsZero() {
		t.Error("provider issued a zero identity")
	}
	if first == second {
		t.Errorf("two calls issued the same identity %s", first)
	}
}

func TestAnonymousHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Anonymous().AuthenticateAnonymously(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}
