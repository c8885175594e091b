// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/easel-project/easel/lib/geo"
	"github.com/easel-project/easel/lib/ref"
)

// memStore is an in-memory Store with the full contract: unique-key
// inserts, owner-conditional appends, and per-session change feeds
// with backlog replay. Error fields inject failures for the paths
// under test.
type memStore struct {
	mu   sync.Mutex
	docs map[string]*memDoc

	insertErr    error
	findErr      error
	appendErr    error
	subscribeErr error

	// appends records every AppendStroke attempt, successful or not,
	// so tests can assert what reached the store.
	appends []appendAttempt

	// appended receives a notification per successful append;
	// attempted receives one per attempt, successful or not.
	appended  chan uint64
	attempted chan struct{}
}

type appendAttempt struct {
	key    ref.SessionKey
	owner  ref.ParticipantID
	stroke geo.Stroke
}

type memDoc struct {
	owner   ref.ParticipantID
	strokes []geo.Stroke
	feeds   []*memFeed
}

func newMemStore() *memStore {
	return &memStore{
		docs:      make(map[string]*memDoc),
		appended:  make(chan uint64, 64),
		attempted: make(chan struct{}, 64),
	}
}

func (s *memStore) Insert(ctx context.Context, doc SessionDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertErr != nil {
		return s.insertErr
	}
	if _, exists := s.docs[doc.ID.String()]; exists {
		return &StoreError{Code: ErrCodeSessionInUse, Message: "session key already exists"}
	}
	strokes := make([]geo.Stroke, len(doc.Strokes))
	for i, stroke := range doc.Strokes {
		strokes[i] = stroke.Clone()
	}
	s.docs[doc.ID.String()] = &memDoc{owner: doc.OwnerID, strokes: strokes}
	return nil
}

func (s *memStore) Find(ctx context.Context, key ref.SessionKey) (SessionDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findErr != nil {
		return SessionDocument{}, s.findErr
	}
	doc, exists := s.docs[key.String()]
	if !exists {
		return SessionDocument{}, &StoreError{Code: ErrCodeNotFound, Message: "no such session"}
	}
	strokes := make([]geo.Stroke, len(doc.strokes))
	for i, stroke := range doc.strokes {
		strokes[i] = stroke.Clone()
	}
	return SessionDocument{ID: key, OwnerID: doc.owner, Strokes: strokes}, nil
}

func (s *memStore) AppendStroke(ctx context.Context, key ref.SessionKey, owner ref.ParticipantID, stroke geo.Stroke) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appends = append(s.appends, appendAttempt{key: key, owner: owner, stroke: stroke.Clone()})
	select {
	case s.attempted <- struct{}{}:
	default:
	}

	if s.appendErr != nil {
		return 0, s.appendErr
	}
	doc, exists := s.docs[key.String()]
	if !exists {
		return 0, &StoreError{Code: ErrCodeNotFound, Message: "no such session"}
	}
	if doc.owner != owner {
		// The conditional filter matched nothing: same outcome as
		// the real stores, nothing written.
		return 0, &StoreError{Code: ErrCodeNotOwner, Message: "identity does not own this session"}
	}

	doc.strokes = append(doc.strokes, stroke.Clone())
	seq := uint64(len(doc.strokes))
	event := ChangeEvent{Seq: seq, Stroke: stroke.Clone()}
	for _, feed := range doc.feeds {
		feed.deliver(event)
	}

	select {
	case s.appended <- seq:
	default:
	}
	return seq, nil
}

func (s *memStore) Subscribe(ctx context.Context, key ref.SessionKey, since uint64) (Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	doc, exists := s.docs[key.String()]
	if !exists {
		return nil, &StoreError{Code: ErrCodeNotFound, Message: "no such session"}
	}

	feed := &memFeed{events: make(chan ChangeEvent, 256)}
	for i := int(since); i < len(doc.strokes); i++ {
		feed.deliver(ChangeEvent{Seq: uint64(i + 1), Stroke: doc.strokes[i].Clone()})
	}
	doc.feeds = append(doc.feeds, feed)
	return feed, nil
}

// attempts returns a snapshot of every append attempt so far.
func (s *memStore) attempts() []appendAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]appendAttempt(nil), s.appends...)
}

type memFeed struct {
	mu     sync.Mutex
	events chan ChangeEvent
	closed bool
}

func (f *memFeed) deliver(event ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.events <- event:
	default:
	}
}

func (f *memFeed) Next(ctx context.Context) (ChangeEvent, error) {
	select {
	case <-ctx.Done():
		return ChangeEvent{}, ctx.Err()
	case event, ok := <-f.events:
		if !ok {
			return ChangeEvent{}, fmt.Errorf("feed closed")
		}
		return event, nil
	}
}

func (f *memFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

func mustSessionKey(raw string) ref.SessionKey {
	key, err := ref.ParseSessionKey(raw)
	if err != nil {
		panic(err)
	}
	return key
}

func mustParticipant(raw string) ref.ParticipantID {
	id, err := ref.ParseParticipantID(raw)
	if err != nil {
		panic(err)
	}
	return id
}
