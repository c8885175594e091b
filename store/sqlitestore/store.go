// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitestore

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/easel-project/easel/lib/clock"
	"github.com/easel-project/easel/lib/geo"
	"github.com/easel-project/easel/lib/ref"
	"github.com/easel-project/easel/lib/sqlitepool"
	"github.com/easel-project/easel/session"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		key        TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS strokes (
		session_key TEXT NOT NULL REFERENCES sessions(key),
		seq         INTEGER NOT NULL,
		stroke_id   BLOB NOT NULL,
		compression INTEGER NOT NULL,
		size        INTEGER NOT NULL,
		points      BLOB NOT NULL,
		PRIMARY KEY (session_key, seq)
	);
`

// Config holds the parameters for opening a SQLite session store.
type Config struct {
	// Path is the filesystem path to the database file. Required.
	Path string

	// PoolSize is the connection pool size. Defaults to 4.
	PoolSize int

	// Clock provides creation timestamps. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives operational messages. Nil means slog.Default().
	Logger *slog.Logger
}

// Store is the SQLite-backed session.Store. Safe for concurrent use.
type Store struct {
	pool   *sqlitepool.Pool
	clk    clock.Clock
	logger *slog.Logger
	hub    *hub
}

var _ session.Store = (*Store)(nil)

// Open creates the store, opening the pool and creating the schema on
// first connection. The caller must Close when done.
func Open(cfg Config) (*Store, error) {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: %w", err)
	}

	return &Store{
		pool:   pool,
		clk:    clk,
		logger: logger,
		hub:    newHub(),
	}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Insert creates a session document. Fails with E_SESSION_IN_USE if
// the key already exists; the existence check and the insert share one
// IMMEDIATE transaction, so concurrent creates serialize and exactly
// one wins.
func (s *Store) Insert(ctx context.Context, doc session.SessionDocument) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("sqlitestore: insert: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("sqlitestore: insert: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	exists, err := sessionExists(conn, doc.ID)
	if err != nil {
		return err
	}
	if exists {
		err = &session.StoreError{
			Code:       session.ErrCodeSessionInUse,
			Message:    fmt.Sprintf("session %q already exists", doc.ID),
			StatusCode: 409,
		}
		return err
	}

	err = sqlitex.Execute(conn,
		"INSERT INTO sessions (key, owner_id, created_at) VALUES (?, ?, ?)",
		&sqlitex.ExecOptions{
			Args: []any{doc.ID.String(), doc.OwnerID.String(), s.clk.Now().UnixNano()},
		})
	if err != nil {
		return fmt.Errorf("sqlitestore: inserting session %s: %w", doc.ID, err)
	}

	for i, stroke := range doc.Strokes {
		if err = s.insertStroke(conn, doc.ID, uint64(i+1), stroke); err != nil {
			return err
		}
	}

	s.logger.Info("session created",
		"session", doc.ID,
		"owner", doc.OwnerID,
		"strokes", len(doc.Strokes),
	)
	return nil
}

// Find loads a session document with its full stroke history in seq
// order.
func (s *Store) Find(ctx context.Context, key ref.SessionKey) (session.SessionDocument, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return session.SessionDocument{}, fmt.Errorf("sqlitestore: find: %w", err)
	}
	defer s.pool.Put(conn)

	owner, err := sessionOwner(conn, key)
	if err != nil {
		return session.SessionDocument{}, err
	}

	strokes, _, err := loadStrokes(conn, key, 0)
	if err != nil {
		return session.SessionDocument{}, err
	}

	return session.SessionDocument{ID: key, OwnerID: owner, Strokes: strokes}, nil
}

// AppendStroke appends a stroke to a session's history, conditional on
// ownership. Returns the assigned seq. Publishes the change event to
// in-process subscribers after the transaction commits.
func (s *Store) AppendStroke(ctx context.Context, key ref.SessionKey, owner ref.ParticipantID, stroke geo.Stroke) (uint64, error) {
	if err := stroke.Validate(); err != nil {
		return 0, &session.StoreError{
			Code:       session.ErrCodeInvalidParam,
			Message:    err.Error(),
			StatusCode: 400,
		}
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: append: %w", err)
	}

	seq, err := s.appendStrokeOnConn(conn, key, owner, stroke)
	s.pool.Put(conn)
	if err != nil {
		return 0, err
	}

	s.hub.publish(key.String(), session.ChangeEvent{Seq: seq, Stroke: stroke.Clone()})
	return seq, nil
}

func (s *Store) appendStrokeOnConn(conn *sqlite.Conn, key ref.SessionKey, owner ref.ParticipantID, stroke geo.Stroke) (seq uint64, err error) {
	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: append: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	storedOwner, err := sessionOwner(conn, key)
	if err != nil {
		return 0, err
	}
	if storedOwner != owner {
		err = &session.StoreError{
			Code:       session.ErrCodeNotOwner,
			Message:    "identity does not own this session",
			StatusCode: 403,
		}
		return 0, err
	}

	err = sqlitex.Execute(conn,
		"SELECT COALESCE(MAX(seq), 0) FROM strokes WHERE session_key = ?",
		&sqlitex.ExecOptions{
			Args: []any{key.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				seq = uint64(stmt.ColumnInt64(0))
				return nil
			},
		})
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: reading seq for %s: %w", key, err)
	}
	seq++

	if err = s.insertStroke(conn, key, seq, stroke); err != nil {
		return 0, err
	}
	return seq, nil
}

// insertStroke writes one stroke row. Caller holds the transaction.
func (s *Store) insertStroke(conn *sqlite.Conn, key ref.SessionKey, seq uint64, stroke geo.Stroke) error {
	strokeID, err := geo.HashStroke(stroke)
	if err != nil {
		return fmt.Errorf("sqlitestore: hashing stroke: %w", err)
	}

	blob, tag, size, err := encodeStroke(stroke)
	if err != nil {
		return err
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO strokes (session_key, seq, stroke_id, compression, size, points)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{key.String(), int64(seq), strokeID[:], int(tag), size, blob},
		})
	if err != nil {
		return fmt.Errorf("sqlitestore: inserting stroke %d for %s: %w", seq, key, err)
	}
	return nil
}

// Subscribe opens a change feed for strokes with seq > since. The feed
// registers with the hub before the backlog query so nothing committed
// in between is lost; the feed's watermark drops the duplicates that
// ordering can produce.
func (s *Store) Subscribe(ctx context.Context, key ref.SessionKey, since uint64) (session.Feed, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: subscribe: %w", err)
	}
	defer s.pool.Put(conn)

	if _, err := sessionOwner(conn, key); err != nil {
		return nil, err
	}

	feed := newLiveFeed(nil, since)
	feed.unregister = func() { s.hub.unregister(key.String(), feed) }
	s.hub.register(key.String(), feed)

	backlog, watermark, err := loadEvents(conn, key, since)
	if err != nil {
		s.hub.unregister(key.String(), feed)
		return nil, err
	}
	feed.backlog = backlog
	if watermark > feed.watermark {
		feed.watermark = watermark
	}

	s.logger.Debug("change feed opened",
		"session", key,
		"since", since,
		"backlog", len(backlog),
	)
	return feed, nil
}

// sessionExists reports whether a session row exists.
func sessionExists(conn *sqlite.Conn, key ref.SessionKey) (bool, error) {
	var exists bool
	err := sqlitex.Execute(conn,
		"SELECT 1 FROM sessions WHERE key = ?",
		&sqlitex.ExecOptions{
			Args: []any{key.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				exists = true
				return nil
			},
		})
	if err != nil {
		return false, fmt.Errorf("sqlitestore: checking session %s: %w", key, err)
	}
	return exists, nil
}

// sessionOwner returns a session's owner, or E_NOT_FOUND.
func sessionOwner(conn *sqlite.Conn, key ref.SessionKey) (ref.ParticipantID, error) {
	var rawOwner string
	found := false
	err := sqlitex.Execute(conn,
		"SELECT owner_id FROM sessions WHERE key = ?",
		&sqlitex.ExecOptions{
			Args: []any{key.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rawOwner = stmt.ColumnText(0)
				found = true
				return nil
			},
		})
	if err != nil {
		return ref.ParticipantID{}, fmt.Errorf("sqlitestore: reading session %s: %w", key, err)
	}
	if !found {
		return ref.ParticipantID{}, &session.StoreError{
			Code:       session.ErrCodeNotFound,
			Message:    fmt.Sprintf("no session %q", key),
			StatusCode: 404,
		}
	}
	owner, err := ref.ParseParticipantID(rawOwner)
	if err != nil {
		return ref.ParticipantID{}, fmt.Errorf("sqlitestore: session %s has invalid owner: %w", key, err)
	}
	return owner, nil
}

// loadStrokes returns a session's strokes with seq > since, in seq
// order, plus the highest seq seen.
func loadStrokes(conn *sqlite.Conn, key ref.SessionKey, since uint64) ([]geo.Stroke, uint64, error) {
	var strokes []geo.Stroke
	var lastSeq uint64
	var decodeErr error

	err := sqlitex.Execute(conn,
		`SELECT seq, compression, size, points FROM strokes
		 WHERE session_key = ? AND seq > ? ORDER BY seq`,
		&sqlitex.ExecOptions{
			Args: []any{key.String(), int64(since)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				blob := make([]byte, stmt.ColumnLen(3))
				stmt.ColumnBytes(3, blob)
				stroke, err := decodeStroke(blob, CompressionTag(stmt.ColumnInt(1)), stmt.ColumnInt(2))
				if err != nil {
					decodeErr = err
					return err
				}
				strokes = append(strokes, stroke)
				lastSeq = uint64(stmt.ColumnInt64(0))
				return nil
			},
		})
	if decodeErr != nil {
		return nil, 0, decodeErr
	}
	if err != nil {
		return nil, 0, fmt.Errorf("sqlitestore: loading strokes for %s: %w", key, err)
	}
	return strokes, lastSeq, nil
}

// loadEvents is loadStrokes shaped as change events for backlog
// replay.
func loadEvents(conn *sqlite.Conn, key ref.SessionKey, since uint64) ([]session.ChangeEvent, uint64, error) {
	strokes, lastSeq, err := loadStrokes(conn, key, since)
	if err != nil {
		return nil, 0, err
	}
	events := make([]session.ChangeEvent, len(strokes))
	for i, stroke := range strokes {
		events[i] = session.ChangeEvent{Seq: since + uint64(i) + 1, Stroke: stroke}
	}
	return events, lastSeq, nil
}
