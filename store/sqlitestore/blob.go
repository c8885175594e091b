// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitestore

import (
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/easel-project/easel/lib/codec"
	"github.com/easel-project/easel/lib/geo"
)

// CompressionTag identifies the compression applied to a stored stroke
// blob. Tags are stored in the strokes table (1 byte each); the values
// are storage-format constants and must not change.
type CompressionTag uint8

const (
	// CompressionNone indicates a raw CBOR blob. Chosen when LZ4
	// output would not be smaller — short strokes mostly are not
	// worth compressing.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 indicates LZ4 block compression over the CBOR
	// blob. Long freehand strokes are runs of nearby float pairs and
	// compress well.
	CompressionLZ4 CompressionTag = 1
)

// String returns the human-readable name of a compression tag.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// encodeStroke serializes a stroke to its stored blob form: CBOR
// first, then LZ4 if that shrinks it. Returns the blob, the tag that
// describes it, and the uncompressed CBOR size needed to decode.
func encodeStroke(stroke geo.Stroke) ([]byte, CompressionTag, int, error) {
	raw, err := codec.Marshal(stroke)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("sqlitestore: encoding stroke: %w", err)
	}

	bound := lz4.CompressBlockBound(len(raw))
	compressed := make([]byte, bound)
	written, err := lz4.CompressBlock(raw, compressed, nil)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("sqlitestore: compressing stroke: %w", err)
	}
	// CompressBlock returns 0 for incompressible input; also fall
	// back when the "compressed" form is no smaller.
	if written == 0 || written >= len(raw) {
		return raw, CompressionNone, len(raw), nil
	}
	return compressed[:written], CompressionLZ4, len(raw), nil
}

// decodeStroke reverses encodeStroke: decompress per the tag, then
// CBOR-decode. The uncompressedSize must match the original CBOR
// length exactly.
func decodeStroke(blob []byte, tag CompressionTag, uncompressedSize int) (geo.Stroke, error) {
	var raw []byte
	switch tag {
	case CompressionNone:
		if len(blob) != uncompressedSize {
			return nil, fmt.Errorf("sqlitestore: raw blob is %d bytes, recorded size %d",
				len(blob), uncompressedSize)
		}
		raw = blob

	case CompressionLZ4:
		raw = make([]byte, uncompressedSize)
		read, err := lz4.UncompressBlock(blob, raw)
		if err != nil {
			return nil, fmt.Errorf("sqlitestore: decompressing stroke: %w", err)
		}
		if read != uncompressedSize {
			return nil, fmt.Errorf("sqlitestore: decompressed %d bytes, recorded size %d",
				read, uncompressedSize)
		}

	default:
		return nil, fmt.Errorf("sqlitestore: unknown compression tag %d", tag)
	}

	var stroke geo.Stroke
	if err := codec.Unmarshal(raw, &stroke); err != nil {
		return nil, fmt.Errorf("sqlitestore: decoding stroke: %w", err)
	}
	return stroke, nil
}
