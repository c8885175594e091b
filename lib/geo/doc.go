// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package geo defines the geometric vocabulary of a drawing session:
// [Point], a 2-D pointer sample, and [Stroke], one continuous
// pointer-down-to-pointer-up motion recorded as an ordered point list.
//
// On the wire (JSON and CBOR alike) a point is a two-element array
// [x, y] and a stroke is an array of points, so a document's stroke
// history serializes as [[[x,y],...],...]. Coordinates are finite
// float64 values; the capture side applies the brush half-width
// centering offset before a point ever reaches this package.
//
// [HashStroke] computes a stroke's content ID: a domain-separated
// keyed BLAKE3 digest over the stroke's canonical CBOR encoding.
// Because lib/codec uses Core Deterministic Encoding, identical
// strokes always hash identically, on every participant.
package geo
