// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package httpstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/easel-project/easel/lib/ref"
	"github.com/easel-project/easel/session"
)

// maxPollRetries is the number of consecutive poll failures allowed
// before Next returns an error. Each retry uses a short server-side
// timeout so the HTTP round trip itself provides backoff.
const maxPollRetries = 5

// longPollMS is the server-side hold time in milliseconds for normal
// polls. The server returns immediately when changes arrive.
const longPollMS = 25000

// retryPollMS is the short server-side timeout used after a poll
// error, so the retry completes quickly.
const retryPollMS = 1000

// pollFeed is a session.Feed over the changes long-poll endpoint. Not
// safe for concurrent Next calls; the engine's single listener is the
// intended consumer.
type pollFeed struct {
	client    *Client
	key       ref.SessionKey
	pending   []session.ChangeEvent
	nextSince uint64

	done      chan struct{}
	closeOnce sync.Once
}

// Next returns the next change event, long-polling the server until
// one arrives or ctx is done. Transient failures retry with bounded
// count; definitive rejections (4xx store errors) end the feed.
func (f *pollFeed) Next(ctx context.Context) (session.ChangeEvent, error) {
	var retries int

	for {
		select {
		case <-f.done:
			return session.ChangeEvent{}, fmt.Errorf("httpstore: feed closed")
		default:
		}

		if len(f.pending) > 0 {
			event := f.pending[0]
			f.pending = f.pending[1:]
			return event, nil
		}

		timeout := longPollMS
		if retries > 0 {
			timeout = retryPollMS
		}
		result, err := f.client.pollChanges(ctx, f.key, f.nextSince, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return session.ChangeEvent{}, ctx.Err()
			}
			if isDefinitiveRejection(err) {
				return session.ChangeEvent{}, fmt.Errorf("httpstore: change poll rejected: %w", err)
			}
			retries++
			// Transport errors often indicate a poisoned pooled
			// connection; open a fresh socket on the next attempt.
			f.client.CloseIdleConnections()
			if retries > maxPollRetries {
				return session.ChangeEvent{}, fmt.Errorf(
					"httpstore: change poll failed %d consecutive times: %w", retries, err)
			}
			f.client.logger.Debug("change poll error, retrying",
				"session", f.key,
				"attempt", retries,
				"max_attempts", maxPollRetries,
				"error", err,
			)
			continue
		}
		retries = 0
		f.nextSince = result.NextSince
		f.pending = result.Changes
		// An idle poll returns no changes; loop into the next poll.
	}
}

// Close ends the feed. Idempotent; a blocked Next returns after its
// in-flight poll completes.
func (f *pollFeed) Close() error {
	f.closeOnce.Do(func() { close(f.done) })
	return nil
}

// isDefinitiveRejection reports whether a poll error is a server-side
// rejection that retrying cannot fix (the session is gone, the request
// is malformed), as opposed to a transient transport or server
// failure.
func isDefinitiveRejection(err error) bool {
	var storeErr *session.StoreError
	if !errors.As(err, &storeErr) {
		return false
	}
	return storeErr.StatusCode >= 400 && storeErr.StatusCode < 500
}
