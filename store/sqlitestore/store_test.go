// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitestore_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/easel-project/easel/lib/geo"
	"github.com/easel-project/easel/lib/ref"
	"github.com/easel-project/easel/session"
	"github.com/easel-project/easel/store/sqlitestore"
)

const feedTimeout = 5 * time.Second

func openTestStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	return openStoreAt(t, filepath.Join(t.TempDir(), "easel.db"))
}

func openStoreAt(t *testing.T, path string) *sqlitestore.Store {
	t.Helper()
	store, err := sqlitestore.Open(sqlitestore.Config{
		Path:   path,
		Logger: slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func sessionKey(t *testing.T, raw string) ref.SessionKey {
	t.Helper()
	key, err := ref.ParseSessionKey(raw)
	if err != nil {
		t.Fatalf("ParseSessionKey(%q): %v", raw, err)
	}
	return key
}

func participant(t *testing.T, raw string) ref.ParticipantID {
	t.Helper()
	id, err := ref.ParseParticipantID(raw)
	if err != nil {
		t.Fatalf("ParseParticipantID(%q): %v", raw, err)
	}
	return id
}

// nextEvent reads one event from a feed with a deadline.
func nextEvent(t *testing.T, feed session.Feed) session.ChangeEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), feedTimeout)
	defer cancel()
	event, err := feed.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	return event
}

func TestInsertAndFindRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := sessionKey(t, "room1")
	owner := participant(t, "owner-a")

	seeded := []geo.Stroke{
		{{X: 10, Y: 10}, {X: 12, Y: 11}, {X: 14, Y: 13}},
		{{X: 0.5, Y: -3.25}},
	}
	err := store.Insert(ctx, session.SessionDocument{ID: key, OwnerID: owner, Strokes: seeded})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	doc, err := store.Find(ctx, key)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if doc.OwnerID != owner {
		t.Errorf("owner = %v, want %v", doc.OwnerID, owner)
	}
	if len(doc.Strokes) != len(seeded) {
		t.Fatalf("strokes = %d, want %d", len(doc.Strokes), len(seeded))
	}
	for i, stroke := range seeded {
		if len(doc.Strokes[i]) != len(stroke) {
			t.Fatalf("stroke %d has %d points, want %d", i, len(doc.Strokes[i]), len(stroke))
		}
		for j := range stroke {
			if doc.Strokes[i][j] != stroke[j] {
				t.Errorf("stroke %d point %d = %v, want %v", i, j, doc.Strokes[i][j], stroke[j])
			}
		}
	}
}

func TestInsertRejectsDuplicateKey(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := sessionKey(t, "taken")

	if err := store.Insert(ctx, session.SessionDocument{ID: key, OwnerID: participant(t, "A")}); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	err := store.Insert(ctx, session.SessionDocument{ID: key, OwnerID: participant(t, "B")})
	if !session.IsStoreError(err, session.ErrCodeSessionInUse) {
		t.Fatalf("second Insert: %v, want E_SESSION_IN_USE", err)
	}

	// The original document is untouched.
	doc, err := store.Find(ctx, key)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if doc.OwnerID != participant(t, "A") {
		t.Errorf("owner = %v, want the first creator", doc.OwnerID)
	}
}

func TestFindMissingSession(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Find(context.Background(), sessionKey(t, "absent"))
	if !session.IsStoreError(err, session.ErrCodeNotFound) {
		t.Fatalf("Find: %v, want E_NOT_FOUND", err)
	}
}

func TestAppendStrokeAssignsContiguousSeqs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := sessionKey(t, "draw")
	owner := participant(t, "owner-a")

	if err := store.Insert(ctx, session.SessionDocument{ID: key, OwnerID: owner}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	for want := uint64(1); want <= 3; want++ {
		seq, err := store.AppendStroke(ctx, key, owner, geo.Stroke{{X: float64(want), Y: 0}})
		if err != nil {
			t.Fatalf("AppendStroke %d: %v", want, err)
		}
		if seq != want {
			t.Errorf("seq = %d, want %d", seq, want)
		}
	}

	doc, err := store.Find(ctx, key)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if doc.Seq() != 3 {
		t.Errorf("document seq = %d, want 3", doc.Seq())
	}
}

func TestAppendStrokeEnforcesOwnership(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := sessionKey(t, "guarded")
	owner := participant(t, "owner-a")

	if err := store.Insert(ctx, session.SessionDocument{ID: key, OwnerID: owner}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	_, err := store.AppendStroke(ctx, key, participant(t, "intruder"), geo.Stroke{{X: 1, Y: 1}})
	if !session.IsStoreError(err, session.ErrCodeNotOwner) {
		t.Fatalf("AppendStroke: %v, want E_NOT_OWNER", err)
	}

	// Nothing was written.
	doc, err := store.Find(ctx, key)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(doc.Strokes) != 0 {
		t.Errorf("session has %d strokes after rejected append, want 0", len(doc.Strokes))
	}
}

func TestAppendStrokeMissingSession(t *testing.T) {
	store := openTestStore(t)
	_, err := store.AppendStroke(context.Background(),
		sessionKey(t, "absent"), participant(t, "A"), geo.Stroke{{X: 1, Y: 1}})
	if !session.IsStoreError(err, session.ErrCodeNotFound) {
		t.Fatalf("AppendStroke: %v, want E_NOT_FOUND", err)
	}
}

func TestAppendStrokeRejectsInvalidGeometry(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := sessionKey(t, "strict")
	owner := participant(t, "owner-a")

	if err := store.Insert(ctx, session.SessionDocument{ID: key, OwnerID: owner}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	_, err := store.AppendStroke(ctx, key, owner, geo.Stroke{})
	if !session.IsStoreError(err, session.ErrCodeInvalidParam) {
		t.Fatalf("empty stroke: %v, want E_INVALID_PARAM", err)
	}
}

func TestSubscribeReplaysBacklogThenLive(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := sessionKey(t, "feedtest")
	owner := participant(t, "owner-a")

	if err := store.Insert(ctx, session.SessionDocument{ID: key, OwnerID: owner}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	for i := 1; i <= 2; i++ {
		if _, err := store.AppendStroke(ctx, key, owner, geo.Stroke{{X: float64(i), Y: 0}}); err != nil {
			t.Fatalf("AppendStroke %d: %v", i, err)
		}
	}

	// Subscribe from 0: both existing strokes replay as backlog.
	feed, err := store.Subscribe(ctx, key, 0)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer feed.Close()

	for want := uint64(1); want <= 2; want++ {
		event := nextEvent(t, feed)
		if event.Seq != want {
			t.Fatalf("backlog event seq = %d, want %d", event.Seq, want)
		}
	}

	// A stroke appended now arrives live.
	if _, err := store.AppendStroke(ctx, key, owner, geo.Stroke{{X: 3, Y: 0}}); err != nil {
		t.Fatalf("AppendStroke live: %v", err)
	}
	event := nextEvent(t, feed)
	if event.Seq != 3 {
		t.Errorf("live event seq = %d, want 3", event.Seq)
	}
	if event.Stroke[0] != (geo.Point{X: 3, Y: 0}) {
		t.Errorf("live event stroke = %v, want the appended points", event.Stroke)
	}
}

func TestSubscribeHonorsSinceCursor(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := sessionKey(t, "cursor")
	owner := participant(t, "owner-a")

	if err := store.Insert(ctx, session.SessionDocument{ID: key, OwnerID: owner}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	for i := 1; i <= 3; i++ {
		if _, err := store.AppendStroke(ctx, key, owner, geo.Stroke{{X: float64(i), Y: 0}}); err != nil {
			t.Fatalf("AppendStroke %d: %v", i, err)
		}
	}

	feed, err := store.Subscribe(ctx, key, 2)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer feed.Close()

	event := nextEvent(t, feed)
	if event.Seq != 3 {
		t.Errorf("first event seq = %d, want 3 (since=2 skips the rest)", event.Seq)
	}
}

func TestSubscribeMissingSession(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Subscribe(context.Background(), sessionKey(t, "absent"), 0)
	if !session.IsStoreError(err, session.ErrCodeNotFound) {
		t.Fatalf("Subscribe: %v, want E_NOT_FOUND", err)
	}
}

func TestSubscribeFansOutToAllFeeds(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := sessionKey(t, "fanout")
	owner := participant(t, "owner-a")

	if err := store.Insert(ctx, session.SessionDocument{ID: key, OwnerID: owner}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	first, err := store.Subscribe(ctx, key, 0)
	if err != nil {
		t.Fatalf("Subscribe first: %v", err)
	}
	defer first.Close()
	second, err := store.Subscribe(ctx, key, 0)
	if err != nil {
		t.Fatalf("Subscribe second: %v", err)
	}
	defer second.Close()

	if _, err := store.AppendStroke(ctx, key, owner, geo.Stroke{{X: 1, Y: 1}}); err != nil {
		t.Fatalf("AppendStroke: %v", err)
	}

	for _, feed := range []session.Feed{first, second} {
		event := nextEvent(t, feed)
		if event.Seq != 1 {
			t.Errorf("event seq = %d, want 1", event.Seq)
		}
	}
}

func TestClosedFeedStopsDelivery(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := sessionKey(t, "closing")
	owner := participant(t, "owner-a")

	if err := store.Insert(ctx, session.SessionDocument{ID: key, OwnerID: owner}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	feed, err := store.Subscribe(ctx, key, 0)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := feed.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Appending after close must not block or panic, and Next on the
	// closed feed returns an error.
	if _, err := store.AppendStroke(ctx, key, owner, geo.Stroke{{X: 1, Y: 1}}); err != nil {
		t.Fatalf("AppendStroke: %v", err)
	}
	if _, err := feed.Next(ctx); err == nil {
		t.Error("Next on a closed feed succeeded")
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()
	key := sessionKey(t, "durable")
	owner := participant(t, "owner-a")

	first, err := sqlitestore.Open(sqlitestore.Config{
		Path:   path,
		Logger: slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Insert(ctx, session.SessionDocument{ID: key, OwnerID: owner}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := first.AppendStroke(ctx, key, owner, geo.Stroke{{X: 7, Y: 7}}); err != nil {
		t.Fatalf("AppendStroke: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := openStoreAt(t, path)
	doc, err := second.Find(ctx, key)
	if err != nil {
		t.Fatalf("Find after reopen: %v", err)
	}
	if doc.OwnerID != owner || len(doc.Strokes) != 1 {
		t.Errorf("reopened document = %+v, want original owner and 1 stroke", doc)
	}
}
