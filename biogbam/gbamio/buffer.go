// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package gbamio implements the per-field column buffer and the
// fixed/variable column strategies that sit underneath
// biogbam.Writer. It is grounded on the Inner/Column/FixedColumn/
// VariableColumn types of original_source/gbam_tools/src/writer.rs,
// translated into Go idiom in the style of the teacher's
// encoding/pam/fieldio package.
package gbamio

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/gbam/biogbam"
)

// BlockInfo summarizes one completed (field, block_num) buffer, ready
// to be handed to the compression pipeline. It is self-describing
// (Field and BlockNum identify its slot in the catalog) so the
// pipeline's results can be resequenced at the writer's sink step
// without a side channel.
type BlockInfo struct {
	Field       biogbam.Field
	BlockNum    uint32
	NumItems    uint32
	UncomprSize int
	MinValue    []byte
	MaxValue    []byte
}

// Inner is one growable byte buffer for a single field, plus the
// bookkeeping the writer needs to decide when to flush it.
//
// Invariants: Offset <= len(Buffer); every WriteData call of width w
// advances Offset by w and RecCount by 1; BlockNum is monotone
// non-decreasing, incremented only by ResetForNewBlock.
type Inner struct {
	Field     biogbam.Field
	Buffer    []byte
	Offset    int
	RecCount  uint32
	BlockNum  uint32
	SizeLimit int

	stats *StatsCollector
}

// NewInner creates a column buffer for field, with block statistics
// collected under cmp if cmp is non-nil.
func NewInner(field biogbam.Field, sizeLimit int, cmp Comparator) *Inner {
	in := &Inner{
		Field:     field,
		SizeLimit: sizeLimit,
	}
	if cmp != nil {
		in.stats = NewStatsCollector(cmp)
	}
	return in
}

// FlushRequired reports whether appending a record of length n would
// overflow the block's size budget. A record larger than SizeLimit is
// still accepted into an otherwise-empty buffer, producing a single
// oversized block for that one record.
func (in *Inner) FlushRequired(n int) bool {
	return in.Offset > 0 && in.Offset+n > in.SizeLimit
}

// WriteData appends data to the buffer, growing it if necessary, and
// updates the running block statistics.
//
// REQUIRES: !in.FlushRequired(len(data)).
func (in *Inner) WriteData(data []byte) {
	if in.FlushRequired(len(data)) {
		log.Panicf("gbam: WriteData called on a full buffer: field=%v offset=%d len=%d limit=%d",
			in.Field, in.Offset, len(data), in.SizeLimit)
	}
	if len(in.Buffer) < in.SizeLimit {
		want := len(data)
		if want < in.SizeLimit {
			want = in.SizeLimit
		}
		grown := make([]byte, want)
		copy(grown, in.Buffer)
		in.Buffer = grown
	}
	if in.Offset+len(data) > len(in.Buffer) {
		grown := make([]byte, in.Offset+len(data))
		copy(grown, in.Buffer)
		in.Buffer = grown
	}
	copy(in.Buffer[in.Offset:in.Offset+len(data)], data)
	in.Offset += len(data)
	in.RecCount++
	if in.stats != nil {
		in.stats.Update(data)
	}
}

// ResetForNewBlock clears the buffer's logical contents (capacity is
// retained) and advances to the next block number. Idempotent: a
// second call with no intervening write leaves the observable
// buffer/stat state unchanged, other than BlockNum advancing again.
func (in *Inner) ResetForNewBlock() {
	if in.stats != nil {
		in.stats.Reset()
	}
	in.Offset = 0
	in.RecCount = 0
	in.BlockNum++
}

// SnapshotBlockInfo captures the buffer's current contents as a
// BlockInfo, for handing off to the compression pipeline.
func (in *Inner) SnapshotBlockInfo() BlockInfo {
	info := BlockInfo{
		Field:       in.Field,
		BlockNum:    in.BlockNum,
		NumItems:    in.RecCount,
		UncomprSize: in.Offset,
	}
	if in.stats != nil {
		info.MinValue, info.MaxValue = in.stats.MinMax()
	}
	return info
}

// SwapBuffer replaces in.Buffer with replacement and returns the
// previous buffer contents truncated to the valid prefix (length
// in.Offset at call time). The caller takes ownership of the filled
// data to submit for compression, and the column is left with a fresh
// (possibly recycled) scratch buffer.
func (in *Inner) SwapBuffer(replacement []byte) []byte {
	filled := in.Buffer[:in.Offset]
	in.Buffer = replacement
	return filled
}
