// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package gbamio

import (
	"bytes"
	"encoding/binary"
)

// Comparator imposes a total order over the raw bytes of one field,
// used to compute per-block min/max statistics.
type Comparator func(a, b []byte) int

// StatsCollector tracks the running min/max of a field's raw bytes
// over the records currently buffered in one block, under cmp.
type StatsCollector struct {
	cmp      Comparator
	min, max []byte
	has      bool
}

// NewStatsCollector creates a collector using the given comparator.
func NewStatsCollector(cmp Comparator) *StatsCollector {
	return &StatsCollector{cmp: cmp}
}

// Update folds one record's raw field bytes into the running min/max.
func (s *StatsCollector) Update(data []byte) {
	if !s.has {
		s.min = append([]byte(nil), data...)
		s.max = append([]byte(nil), data...)
		s.has = true
		return
	}
	if s.cmp(data, s.min) < 0 {
		s.min = append(s.min[:0], data...)
	}
	if s.cmp(data, s.max) > 0 {
		s.max = append(s.max[:0], data...)
	}
}

// Reset clears the collector at a block boundary, so the next block's
// min/max doesn't carry over data from the block just flushed.
func (s *StatsCollector) Reset() {
	s.min = nil
	s.max = nil
	s.has = false
}

// MinMax returns the current min and max, or (nil, nil) if Update has
// never been called since construction or the last Reset.
func (s *StatsCollector) MinMax() (min, max []byte) {
	if !s.has {
		return nil, nil
	}
	return s.min, s.max
}

// BytewiseComparator orders raw bytes lexicographically. It is the
// correct comparator for GBAM's variable-width blob fields (read
// name, cigar, sequence, qual, tags) and is also a safe default for
// any fixed field whose ordering is not otherwise specified.
func BytewiseComparator(a, b []byte) int {
	return bytes.Compare(a, b)
}

// Int32LEComparator orders 4-byte little-endian two's-complement
// signed integers, the encoding GBAM uses for RefID, Pos, NextRefID,
// NextPos and TemplateLength.
func Int32LEComparator(a, b []byte) int {
	av := int32(binary.LittleEndian.Uint32(a))
	bv := int32(binary.LittleEndian.Uint32(b))
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

// Uint16LEComparator orders 2-byte little-endian unsigned integers,
// the encoding GBAM uses for Flags.
func Uint16LEComparator(a, b []byte) int {
	av := binary.LittleEndian.Uint16(a)
	bv := binary.LittleEndian.Uint16(b)
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

// Uint8Comparator orders single unsigned bytes, the encoding GBAM
// uses for MapQ.
func Uint8Comparator(a, b []byte) int {
	switch {
	case a[0] < b[0]:
		return -1
	case a[0] > b[0]:
		return 1
	default:
		return 0
	}
}
