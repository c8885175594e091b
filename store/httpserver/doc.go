// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpserver exposes a session store over JSON HTTP.
//
// The API is the wire surface between easel clients and the shared
// document store:
//
//	POST /v1/auth/anonymous            issue a participant identity
//	POST /v1/sessions                  create a session (caller becomes owner)
//	GET  /v1/sessions/{key}            full document snapshot
//	POST /v1/sessions/{key}/strokes    append a stroke (owner only)
//	GET  /v1/sessions/{key}/changes    long-poll the change feed
//
// Callers identify themselves with the X-Easel-Participant header;
// the store enforces ownership, the handlers only relay the claimed
// identity. Errors are {errcode, error} JSON bodies with meaningful
// status codes. Snapshot responses compress with zstd when the client
// advertises it and the body is large enough to be worth it.
package httpserver
