// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/easel-project/easel/lib/clock"
	"github.com/easel-project/easel/lib/geo"
)

// defaultSampleInterval is the pointer sampling tick used when the
// config leaves it zero: 40 samples per second, comfortably above the
// rate at which a freehand line stops looking like one.
const defaultSampleInterval = 25 * time.Millisecond

// commitQueueDepth bounds the number of completed strokes waiting for
// the commit worker. The worker serializes appends so committed order
// always matches drawing order; the queue absorbs bursts so the
// sampler never blocks on the store. Overflow — the store falling a
// dozen strokes behind a human hand — drops the stroke with a logged
// commit failure rather than stalling capture.
const commitQueueDepth = 16

// EngineConfig assembles an Engine. Bootstrap, Store, Source, and
// Renderer are required; the rest default.
type EngineConfig struct {
	// Bootstrap is the record produced by JoinOrCreate.
	Bootstrap Bootstrap

	// Store is the session document store.
	Store Store

	// Source yields per-tick pointer samples.
	Source PointerSource

	// Renderer receives committed strokes as polylines.
	Renderer Renderer

	// Clock drives the sampling ticker. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives operational messages. Nil means slog.Default().
	Logger *slog.Logger

	// SampleInterval is the pointer sampling tick. Zero means the
	// 25ms default.
	SampleInterval time.Duration
}

// Engine runs one participant's side of a drawing session: the
// sampling/commit path and the change-feed listener. Create with
// NewEngine, then call Run once.
type Engine struct {
	bootstrap      Bootstrap
	store          Store
	source         PointerSource
	renderer       Renderer
	clk            clock.Clock
	logger         *slog.Logger
	sampleInterval time.Duration

	// buffer is touched only by the sampler loop inside Run.
	buffer StrokeBuffer

	// commitQueue carries completed strokes from the sampler to the
	// commit worker. Only the owner's engine ever sends on it.
	commitQueue chan geo.Stroke
}

// NewEngine validates the configuration and assembles an Engine.
func NewEngine(config EngineConfig) (*Engine, error) {
	if config.Bootstrap.Key.IsZero() {
		return nil, fmt.Errorf("session: engine requires a bootstrap session key")
	}
	if config.Bootstrap.ParticipantID.IsZero() {
		return nil, fmt.Errorf("session: engine requires a participant identity")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("session: engine requires a store")
	}
	if config.Source == nil {
		return nil, fmt.Errorf("session: engine requires a pointer source")
	}
	if config.Renderer == nil {
		return nil, fmt.Errorf("session: engine requires a renderer")
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := config.SampleInterval
	if interval <= 0 {
		interval = defaultSampleInterval
	}

	return &Engine{
		bootstrap:      config.Bootstrap,
		store:          config.Store,
		source:         config.Source,
		renderer:       config.Renderer,
		clk:            clk,
		logger:         logger,
		sampleInterval: interval,
		commitQueue:    make(chan geo.Stroke, commitQueueDepth),
	}, nil
}

// Run renders the bootstrap snapshot, subscribes to the change feed,
// and then runs the sampler loop until ctx is done. The feed listener
// and the commit worker run as goroutines for the same span; Run
// waits for both before returning.
//
// A failure to establish the initial subscription is a bootstrap
// failure and is returned. After that point the engine degrades
// instead of failing: a dead feed or a rejected commit is logged and
// local drawing continues.
func (e *Engine) Run(ctx context.Context) error {
	// Snapshot first, subscription second, anchored at the snapshot's
	// seq: the feed then delivers exactly the strokes the snapshot
	// did not contain, so the two delivery paths can neither overlap
	// nor leave a gap.
	for _, stroke := range e.bootstrap.Strokes {
		e.renderer.DrawPolyline(stroke)
	}
	lastRendered := e.bootstrap.Seq()

	feed, err := e.store.Subscribe(ctx, e.bootstrap.Key, lastRendered)
	if err != nil {
		return fmt.Errorf("session: subscribing to %s: %w", e.bootstrap.Key, err)
	}
	defer feed.Close()

	e.logger.Info("session engine started",
		"session", e.bootstrap.Key,
		"participant", e.bootstrap.ParticipantID,
		"owner", e.bootstrap.IsOwner(),
		"snapshot_strokes", lastRendered,
	)

	var workers sync.WaitGroup

	workers.Add(1)
	go func() {
		defer workers.Done()
		e.listen(ctx, feed, lastRendered)
	}()

	workers.Add(1)
	go func() {
		defer workers.Done()
		e.commitLoop(ctx)
	}()

	e.sample(ctx)

	close(e.commitQueue)
	workers.Wait()
	return nil
}

// sample is the tick loop: one pointer observation per tick, fed to
// the buffer; completed strokes go to the commit worker if this
// participant owns the session. Ticks never overlap — a tick's work
// finishes before the next is read, and the capacity-1 ticker channel
// drops ticks rather than queueing them.
func (e *Engine) sample(ctx context.Context) {
	ticker := e.clk.NewTicker(e.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		stroke, done := e.buffer.Observe(e.source.Sample())
		if !done {
			continue
		}

		// The ownership check gates the write, not the sampling:
		// spectators run the full buffer state machine, their
		// strokes just never leave the process.
		if !e.bootstrap.IsOwner() {
			continue
		}

		select {
		case e.commitQueue <- stroke:
		default:
			e.logger.Warn("stroke commit dropped, queue full",
				"session", e.bootstrap.Key,
				"points", len(stroke),
			)
		}
	}
}

// commitLoop drains the commit queue, appending strokes one at a time
// so committed order matches drawing order. The sampler never waits
// on it.
func (e *Engine) commitLoop(ctx context.Context) {
	for stroke := range e.commitQueue {
		e.commit(ctx, stroke)
	}
}

// commit appends one completed stroke. A failure is recoverable: the
// stroke stays visible locally, it just never reaches the shared
// document. No retry; the contract is at-most-once per completed
// stroke.
func (e *Engine) commit(ctx context.Context, stroke geo.Stroke) {
	if err := stroke.Validate(); err != nil {
		e.logger.Error("completed stroke failed validation", "error", err)
		return
	}

	strokeID, err := geo.HashStroke(stroke)
	if err != nil {
		e.logger.Error("hashing stroke", "error", err)
		return
	}

	seq, err := e.store.AppendStroke(ctx, e.bootstrap.Key, e.bootstrap.ParticipantID, stroke)
	if err != nil {
		e.logger.Warn("stroke commit failed",
			"session", e.bootstrap.Key,
			"stroke", strokeID.Short(),
			"points", len(stroke),
			"error", err,
		)
		return
	}

	e.logger.Info("stroke committed",
		"session", e.bootstrap.Key,
		"stroke", strokeID.Short(),
		"seq", seq,
		"points", len(stroke),
	)
}

// listen consumes the change feed, rendering each appended stroke
// exactly once in seq order. The feed is at-least-once: a redelivered
// event falls at or below the rendered watermark and is skipped. The
// listener never writes to the store.
func (e *Engine) listen(ctx context.Context, feed Feed, lastRendered uint64) {
	for {
		event, err := feed.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			// Steady-state degradation: sync is broken but the
			// session is not. The sampler keeps running.
			e.logger.Warn("change feed ended",
				"session", e.bootstrap.Key,
				"last_rendered_seq", lastRendered,
				"error", err,
			)
			return
		}

		if event.Seq <= lastRendered {
			e.logger.Debug("skipping redelivered stroke",
				"session", e.bootstrap.Key,
				"seq", event.Seq,
				"last_rendered_seq", lastRendered,
			)
			continue
		}
		if event.Seq != lastRendered+1 {
			// An ordered feed should never gap. Render anyway —
			// dropping the stroke would diverge the picture further —
			// but make the anomaly visible.
			e.logger.Warn("change feed skipped sequence numbers",
				"session", e.bootstrap.Key,
				"expected_seq", lastRendered+1,
				"got_seq", event.Seq,
			)
		}

		e.renderer.DrawPolyline(event.Stroke)
		lastRendered = event.Seq
	}
}
