// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/easel-project/easel/lib/clock"
	"github.com/easel-project/easel/lib/geo"
	"github.com/easel-project/easel/lib/ref"
	"github.com/easel-project/easel/lib/testutil"
)

const (
	testInterval = 25 * time.Millisecond
	testTimeout  = 5 * time.Second
)

var engineEpoch = time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// scriptedSource replays a fixed sample script, one sample per tick,
// then reports the pointer released forever. Each Sample call signals
// the consumed channel so tests can advance the fake clock in
// lockstep with the sampler.
type scriptedSource struct {
	mu       sync.Mutex
	script   []PointerSample
	position int
	consumed chan struct{}
}

func newScriptedSource(script ...PointerSample) *scriptedSource {
	return &scriptedSource{script: script, consumed: make(chan struct{}, 64)}
}

func (s *scriptedSource) Sample() PointerSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample := released()
	if s.position < len(s.script) {
		sample = s.script[s.position]
		s.position++
	}
	select {
	case s.consumed <- struct{}{}:
	default:
	}
	return sample
}

// recorder collects every polyline drawn and signals each one on a
// channel for deterministic waiting.
type recorder struct {
	mu    sync.Mutex
	lines []geo.Stroke
	drawn chan geo.Stroke
}

func newRecorder() *recorder {
	return &recorder{drawn: make(chan geo.Stroke, 64)}
}

func (r *recorder) DrawPolyline(points []geo.Point) {
	stroke := geo.Stroke(points).Clone()
	r.mu.Lock()
	r.lines = append(r.lines, stroke)
	r.mu.Unlock()
	select {
	case r.drawn <- stroke:
	default:
	}
}

func (r *recorder) rendered() []geo.Stroke {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]geo.Stroke(nil), r.lines...)
}

// scriptedFeedStore serves a hand-fed feed instead of the wrapped
// store's own subscription, for redelivery and ordering scripts the
// real stores would never produce.
type scriptedFeedStore struct {
	Store
	feed      Feed
	lastSince uint64
}

func (s *scriptedFeedStore) Subscribe(ctx context.Context, key ref.SessionKey, since uint64) (Feed, error) {
	s.lastSince = since
	return s.feed, nil
}

// startEngine runs the engine in a goroutine and returns a stop
// function that cancels it and waits for Run to return.
func startEngine(t *testing.T, engine *Engine) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := engine.Run(ctx); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()
	return func() {
		cancel()
		testutil.RequireClosed(t, done, testTimeout, "engine shutdown")
	}
}

// driveTicks advances the fake clock one sampling interval at a time,
// waiting for the sampler to consume each tick before issuing the
// next, so no tick is ever dropped by the capacity-1 ticker channel.
func driveTicks(t *testing.T, clk *clock.FakeClock, source *scriptedSource, ticks int) {
	t.Helper()
	for i := 0; i < ticks; i++ {
		clk.Advance(testInterval)
		testutil.RequireReceive(t, source.consumed, testTimeout, "tick %d consumed", i+1)
	}
}

func ownerBootstrap(store *memStore, key ref.SessionKey, owner ref.ParticipantID, strokes ...geo.Stroke) Bootstrap {
	doc := SessionDocument{ID: key, OwnerID: owner, Strokes: strokes}
	if err := store.Insert(context.Background(), doc); err != nil {
		panic(err)
	}
	return Bootstrap{Key: key, OwnerID: owner, ParticipantID: owner, Strokes: strokes}
}

func TestEngineOwnerCommitsCompletedStroke(t *testing.T) {
	store := newMemStore()
	key := mustSessionKey("room1")
	owner := mustParticipant("A")
	bootstrap := ownerBootstrap(store, key, owner)

	clk := clock.Fake(engineEpoch)
	source := newScriptedSource(
		pressed(10, 10),
		pressed(12, 11),
		pressed(14, 13),
		released(),
	)

	engine, err := NewEngine(EngineConfig{
		Bootstrap:      bootstrap,
		Store:          store,
		Source:         source,
		Renderer:       newRecorder(),
		Clock:          clk,
		Logger:         discardLogger(),
		SampleInterval: testInterval,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	stop := startEngine(t, engine)
	defer stop()

	clk.WaitForTimers(1)
	driveTicks(t, clk, source, 4)

	seq := testutil.RequireReceive(t, store.appended, testTimeout, "stroke committed")
	if seq != 1 {
		t.Errorf("committed seq = %d, want 1", seq)
	}

	attempts := store.attempts()
	if len(attempts) != 1 {
		t.Fatalf("append attempts = %d, want 1", len(attempts))
	}
	if attempts[0].key != key || attempts[0].owner != owner {
		t.Errorf("append scoped to (%v, %v), want (%v, %v)",
			attempts[0].key, attempts[0].owner, key, owner)
	}
	want := geo.Stroke{{X: 10, Y: 10}, {X: 12, Y: 11}, {X: 14, Y: 13}}
	if len(attempts[0].stroke) != len(want) {
		t.Fatalf("committed stroke = %v, want %v", attempts[0].stroke, want)
	}
	for i := range want {
		if attempts[0].stroke[i] != want[i] {
			t.Errorf("committed point %d = %v, want %v", i, attempts[0].stroke[i], want[i])
		}
	}
}

func TestEngineCommitsSinglePointStroke(t *testing.T) {
	store := newMemStore()
	key := mustSessionKey("dot")
	owner := mustParticipant("A")
	bootstrap := ownerBootstrap(store, key, owner)

	clk := clock.Fake(engineEpoch)
	source := newScriptedSource(pressed(3, 4), released())

	engine, err := NewEngine(EngineConfig{
		Bootstrap:      bootstrap,
		Store:          store,
		Source:         source,
		Renderer:       newRecorder(),
		Clock:          clk,
		Logger:         discardLogger(),
		SampleInterval: testInterval,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	stop := startEngine(t, engine)
	defer stop()

	clk.WaitForTimers(1)
	driveTicks(t, clk, source, 2)

	testutil.RequireReceive(t, store.appended, testTimeout, "single-point stroke committed")
	attempts := store.attempts()
	if len(attempts) != 1 || len(attempts[0].stroke) != 1 {
		t.Fatalf("attempts = %+v, want one single-point stroke", attempts)
	}
	if attempts[0].stroke[0] != (geo.Point{X: 3, Y: 4}) {
		t.Errorf("point = %v, want (3,4)", attempts[0].stroke[0])
	}
}

func TestEngineSpectatorNeverWrites(t *testing.T) {
	store := newMemStore()
	key := mustSessionKey("watch")
	owner := mustParticipant("A")
	ownerBootstrap(store, key, owner)

	spectator := Bootstrap{Key: key, OwnerID: owner, ParticipantID: mustParticipant("B")}
	clk := clock.Fake(engineEpoch)
	source := newScriptedSource(
		pressed(1, 1),
		pressed(2, 2),
		released(),
	)

	engine, err := NewEngine(EngineConfig{
		Bootstrap:      spectator,
		Store:          store,
		Source:         source,
		Renderer:       newRecorder(),
		Clock:          clk,
		Logger:         discardLogger(),
		SampleInterval: testInterval,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	stop := startEngine(t, engine)
	clk.WaitForTimers(1)
	driveTicks(t, clk, source, 3)
	stop()

	if attempts := store.attempts(); len(attempts) != 0 {
		t.Errorf("spectator produced %d append attempts: %+v", len(attempts), attempts)
	}
}

func TestEngineSnapshotThenLiveDeltas(t *testing.T) {
	store := newMemStore()
	key := mustSessionKey("replay")
	owner := mustParticipant("A")

	snapshot := []geo.Stroke{
		{{X: 1, Y: 1}, {X: 2, Y: 2}},
		{{X: 3, Y: 3}},
	}
	ownerBootstrap(store, key, owner, snapshot...)

	feed := &memFeed{events: make(chan ChangeEvent, 16)}
	scripted := &scriptedFeedStore{Store: store, feed: feed}

	spectator := Bootstrap{
		Key:           key,
		OwnerID:       owner,
		ParticipantID: mustParticipant("B"),
		Strokes:       snapshot,
	}
	renderer := newRecorder()

	engine, err := NewEngine(EngineConfig{
		Bootstrap:      spectator,
		Store:          scripted,
		Source:         newScriptedSource(),
		Renderer:       renderer,
		Clock:          clock.Fake(engineEpoch),
		Logger:         discardLogger(),
		SampleInterval: testInterval,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	stop := startEngine(t, engine)
	defer stop()

	// Snapshot strokes render before any live delta.
	first := testutil.RequireReceive(t, renderer.drawn, testTimeout, "snapshot stroke 1")
	if len(first) != 2 {
		t.Errorf("first rendered stroke = %v, want the 2-point snapshot stroke", first)
	}
	testutil.RequireReceive(t, renderer.drawn, testTimeout, "snapshot stroke 2")

	if scripted.lastSince != 2 {
		t.Errorf("subscription cursor = %d, want snapshot seq 2", scripted.lastSince)
	}

	// Live deltas render in seq order, each exactly once.
	feed.deliver(ChangeEvent{Seq: 3, Stroke: geo.Stroke{{X: 30, Y: 30}}})
	feed.deliver(ChangeEvent{Seq: 4, Stroke: geo.Stroke{{X: 40, Y: 40}}})

	third := testutil.RequireReceive(t, renderer.drawn, testTimeout, "live stroke seq 3")
	if third[0] != (geo.Point{X: 30, Y: 30}) {
		t.Errorf("third rendered stroke = %v, want seq 3's points", third)
	}
	fourth := testutil.RequireReceive(t, renderer.drawn, testTimeout, "live stroke seq 4")
	if fourth[0] != (geo.Point{X: 40, Y: 40}) {
		t.Errorf("fourth rendered stroke = %v, want seq 4's points", fourth)
	}

	if total := len(renderer.rendered()); total != 4 {
		t.Errorf("rendered strokes = %d, want 4 (2 snapshot + 2 live)", total)
	}
}

func TestEngineSkipsRedeliveredStrokes(t *testing.T) {
	store := newMemStore()
	key := mustSessionKey("dups")
	owner := mustParticipant("A")
	ownerBootstrap(store, key, owner)

	feed := &memFeed{events: make(chan ChangeEvent, 16)}
	scripted := &scriptedFeedStore{Store: store, feed: feed}
	renderer := newRecorder()

	engine, err := NewEngine(EngineConfig{
		Bootstrap:      Bootstrap{Key: key, OwnerID: owner, ParticipantID: mustParticipant("B")},
		Store:          scripted,
		Source:         newScriptedSource(),
		Renderer:       renderer,
		Clock:          clock.Fake(engineEpoch),
		Logger:         discardLogger(),
		SampleInterval: testInterval,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	stop := startEngine(t, engine)
	defer stop()

	// At-least-once delivery: seq 1 arrives twice, then seq 2.
	feed.deliver(ChangeEvent{Seq: 1, Stroke: geo.Stroke{{X: 1, Y: 1}}})
	feed.deliver(ChangeEvent{Seq: 1, Stroke: geo.Stroke{{X: 1, Y: 1}}})
	feed.deliver(ChangeEvent{Seq: 2, Stroke: geo.Stroke{{X: 2, Y: 2}}})

	testutil.RequireReceive(t, renderer.drawn, testTimeout, "seq 1 rendered")
	second := testutil.RequireReceive(t, renderer.drawn, testTimeout, "seq 2 rendered")
	if second[0] != (geo.Point{X: 2, Y: 2}) {
		t.Errorf("second render = %v, want seq 2 (redelivery must be skipped)", second)
	}

	if total := len(renderer.rendered()); total != 2 {
		t.Errorf("rendered strokes = %d, want 2", total)
	}
}

func TestEngineCommitFailureDegradesGracefully(t *testing.T) {
	store := newMemStore()
	key := mustSessionKey("flaky")
	owner := mustParticipant("A")
	bootstrap := ownerBootstrap(store, key, owner)
	store.appendErr = fmt.Errorf("store unreachable")

	clk := clock.Fake(engineEpoch)
	source := newScriptedSource(
		pressed(1, 1),
		released(),
		pressed(2, 2),
		released(),
	)

	engine, err := NewEngine(EngineConfig{
		Bootstrap:      bootstrap,
		Store:          store,
		Source:         source,
		Renderer:       newRecorder(),
		Clock:          clk,
		Logger:         discardLogger(),
		SampleInterval: testInterval,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	stop := startEngine(t, engine)
	defer stop()

	clk.WaitForTimers(1)
	driveTicks(t, clk, source, 4)

	// Both strokes are attempted: the first failure does not stop
	// the session or the commit worker.
	testutil.RequireReceive(t, store.attempted, testTimeout, "first commit attempt")
	testutil.RequireReceive(t, store.attempted, testTimeout, "second commit attempt")
}

func TestEngineSubscribeFailureAbortsStartup(t *testing.T) {
	store := newMemStore()
	key := mustSessionKey("nofeed")
	owner := mustParticipant("A")
	bootstrap := ownerBootstrap(store, key, owner)
	store.subscribeErr = fmt.Errorf("store unreachable")

	engine, err := NewEngine(EngineConfig{
		Bootstrap:      bootstrap,
		Store:          store,
		Source:         newScriptedSource(),
		Renderer:       newRecorder(),
		Clock:          clock.Fake(engineEpoch),
		Logger:         discardLogger(),
		SampleInterval: testInterval,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if err := engine.Run(context.Background()); err == nil {
		t.Error("Run succeeded with a failing subscription, want error")
	}
}

func TestNewEngineValidation(t *testing.T) {
	store := newMemStore()
	key := mustSessionKey("valid")
	owner := mustParticipant("A")
	bootstrap := ownerBootstrap(store, key, owner)

	base := EngineConfig{
		Bootstrap: bootstrap,
		Store:     store,
		Source:    newScriptedSource(),
		Renderer:  newRecorder(),
	}

	if _, err := NewEngine(base); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	for name, mutate := range map[string]func(*EngineConfig){
		"missing store":    func(c *EngineConfig) { c.Store = nil },
		"missing source":   func(c *EngineConfig) { c.Source = nil },
		"missing renderer": func(c *EngineConfig) { c.Renderer = nil },
		"zero session key": func(c *EngineConfig) { c.Bootstrap.Key = ref.SessionKey{} },
		"zero participant": func(c *EngineConfig) { c.Bootstrap.ParticipantID = ref.ParticipantID{} },
	} {
		config := base
		mutate(&config)
		if _, err := NewEngine(config); err == nil {
			t.Errorf("%s: NewEngine succeeded, want error", name)
		}
	}
}

// TestTwoParticipantsConverge walks the worked example end to end:
// "A" creates room1 and draws; "B" joins mid-session, renders the
// snapshot, then receives A's next stroke live and additively.
func TestTwoParticipantsConverge(t *testing.T) {
	store := newMemStore()
	key := mustSessionKey("room1")
	ownerID := mustParticipant("A")
	bootstrapA := ownerBootstrap(store, key, ownerID)

	clkA := clock.Fake(engineEpoch)
	sourceA := newScriptedSource(
		// First stroke: three points.
		pressed(10, 10),
		pressed(12, 11),
		pressed(14, 13),
		released(),
		// Second stroke, drawn after B has joined.
		pressed(50, 50),
		pressed(51, 52),
		released(),
	)

	engineA, err := NewEngine(EngineConfig{
		Bootstrap:      bootstrapA,
		Store:          store,
		Source:         sourceA,
		Renderer:       newRecorder(),
		Clock:          clkA,
		Logger:         discardLogger(),
		SampleInterval: testInterval,
	})
	if err != nil {
		t.Fatalf("NewEngine A: %v", err)
	}
	stopA := startEngine(t, engineA)
	defer stopA()

	clkA.WaitForTimers(1)
	driveTicks(t, clkA, sourceA, 4)
	testutil.RequireReceive(t, store.appended, testTimeout, "A's first stroke committed")

	// B joins after the first stroke exists: its snapshot has one
	// stroke.
	docForB, err := store.Find(context.Background(), key)
	if err != nil {
		t.Fatalf("Find for B: %v", err)
	}
	if len(docForB.Strokes) != 1 {
		t.Fatalf("B's snapshot has %d strokes, want 1", len(docForB.Strokes))
	}
	rendererB := newRecorder()
	engineB, err := NewEngine(EngineConfig{
		Bootstrap: Bootstrap{
			Key:           key,
			OwnerID:       docForB.OwnerID,
			ParticipantID: mustParticipant("B"),
			Strokes:       docForB.Strokes,
		},
		Store:          store,
		Source:         newScriptedSource(),
		Renderer:       rendererB,
		Clock:          clock.Fake(engineEpoch),
		Logger:         discardLogger(),
		SampleInterval: testInterval,
	})
	if err != nil {
		t.Fatalf("NewEngine B: %v", err)
	}
	stopB := startEngine(t, engineB)
	defer stopB()

	snapshotStroke := testutil.RequireReceive(t, rendererB.drawn, testTimeout, "B renders snapshot")
	if len(snapshotStroke) != 3 || snapshotStroke[0] != (geo.Point{X: 10, Y: 10}) {
		t.Errorf("B's snapshot stroke = %v, want A's 3-point stroke", snapshotStroke)
	}

	// A draws the second stroke; B receives it live.
	driveTicks(t, clkA, sourceA, 3)
	testutil.RequireReceive(t, store.appended, testTimeout, "A's second stroke committed")

	liveStroke := testutil.RequireReceive(t, rendererB.drawn, testTimeout, "B renders live delta")
	if len(liveStroke) != 2 || liveStroke[0] != (geo.Point{X: 50, Y: 50}) {
		t.Errorf("B's live stroke = %v, want A's 2-point stroke", liveStroke)
	}

	if total := len(rendererB.rendered()); total != 2 {
		t.Errorf("B rendered %d strokes, want 2 (snapshot + live, no redraws)", total)
	}
}
