// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package gbamcodec implements the block codecs used to compress GBAM
// column blocks before they are written to disk. The writer treats
// the codec as a pluggable dependency, selected per file and recorded
// in the catalog; this package wires real, pack-grounded
// implementations so the compression pipeline has something concrete
// to dispatch to.
package gbamcodec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the compression algorithm applied to one GBAM
// column block. The string form is embedded in the on-disk JSON
// catalog's field_to_codec map and must not be renamed.
type Codec uint8

const (
	// CodecNone stores the block uncompressed. Used by tests that
	// want to exercise the pipeline without a real codec dependency,
	// and as a safe fallback.
	CodecNone Codec = iota
	// CodecGzip compresses with github.com/klauspost/compress/gzip.
	CodecGzip
	// CodecZstd compresses with github.com/klauspost/compress/zstd.
	CodecZstd
	// CodecSnappy compresses with github.com/golang/snappy.
	CodecSnappy
	// CodecLZ4 compresses with github.com/pierrec/lz4/v4.
	CodecLZ4
)

var codecNames = map[Codec]string{
	CodecNone:   "none",
	CodecGzip:   "gzip",
	CodecZstd:   "zstd",
	CodecSnappy: "snappy",
	CodecLZ4:    "lz4",
}

// String returns the stable catalog name of the codec.
func (c Codec) String() string {
	if name, ok := codecNames[c]; ok {
		return name
	}
	return fmt.Sprintf("codec%d", c)
}

// ParseCodec converts a catalog codec name back into a Codec.
func ParseCodec(name string) (Codec, error) {
	for c, n := range codecNames {
		if n == name {
			return c, nil
		}
	}
	return CodecNone, fmt.Errorf("%v: unknown gbam codec", name)
}

// Encode compresses payload under c. The returned slice is newly
// allocated; payload is never retained.
func Encode(c Codec, payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	switch c {
	case CodecNone:
		buf.Write(payload)
		return buf.Bytes(), nil
	case CodecGzip:
		w, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(payload); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CodecZstd:
		enc, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := enc.Write(payload); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CodecSnappy:
		return snappy.Encode(nil, payload), nil
	case CodecLZ4:
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("gbamcodec: unknown codec %v", c)
}

// Decode decompresses payload, which must have been produced by
// Encode(c, ...).
func Decode(c Codec, payload []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	case CodecGzip:
		r, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CodecZstd:
		dec, err := zstd.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return io.ReadAll(dec)
	case CodecSnappy:
		return snappy.Decode(nil, payload)
	case CodecLZ4:
		r := lz4.NewReader(bytes.NewReader(payload))
		return io.ReadAll(r)
	}
	return nil, fmt.Errorf("gbamcodec: unknown codec %v", c)
}
