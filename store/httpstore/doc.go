// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpstore is the remote session store: a client for the
// httpserver JSON API that implements both session.Store and
// identity.Provider, so a drawing client pointed at a server URL needs
// no other wiring.
//
// Request URLs are built by string concatenation on a validated base
// URL — session keys are restricted to URL-safe characters by their
// grammar, and concatenation avoids the double-encoding pitfalls of
// rebuilding url.URL values.
//
// Subscribe long-polls the changes endpoint. Transient failures
// (transport errors, 5xx) retry up to a bounded count with a short
// server-side timeout so the HTTP round trip itself provides backoff,
// dropping idle connections first in case the pooled socket is
// poisoned. Definitive rejections (4xx store errors) end the feed
// immediately. Delivery is ordered and at-least-once; the engine's
// seq watermark absorbs redelivery.
package httpstore
