// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for easel packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. These are
// the only place in the test suite where real wall-clock timeouts are
// used; everything time-driven in production code goes through
// lib/clock and is tested against the fake.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no easel-internal dependencies.
package testutil
