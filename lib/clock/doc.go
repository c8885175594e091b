// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code
// injects [Real]; tests inject [Fake] and drive it with Advance so
// the sampling loop's ticks are deterministic instead of wall-clock
// raced.
//
// Every easel function that would call time.Now, time.After,
// time.NewTicker, or time.Sleep takes a Clock (or sits on a struct
// with a Clock field) instead of reaching for the time package
// directly. The one exception is the test-timeout safety valves in
// lib/testutil, which intentionally use real time.
package clock
