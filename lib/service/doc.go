// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the HTTP server lifecycle shared by easel
// network services.
//
// HTTPServer owns the listener and graceful shutdown; the caller
// provides the http.Handler. Serve(ctx) blocks until the context is
// cancelled, then stops accepting connections and drains in-flight
// requests for a bounded time. Ready/Addr support OS-assigned ports in
// tests.
package service
