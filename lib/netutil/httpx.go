// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O helpers for easel clients.
//
// The response helpers bound all body reads at MaxResponseSize to
// prevent unbounded allocation from a misbehaving server. They are for
// JSON API responses, not streaming transfers.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize bounds JSON API response body reads: 64 MB. A full
// session snapshot of a long drawing session is the largest legitimate
// response, and it is orders of magnitude smaller.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads a JSON API response body up to MaxResponseSize
// bytes. Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a JSON API response body (up to MaxResponseSize
// bytes) and JSON-decodes it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body as a string for
// diagnostic error messages. Read errors are silently ignored — a
// partial body is still useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
