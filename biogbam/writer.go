// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package biogbam

import (
	"fmt"
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/gbam/biogbam/gbamcodec"
	"github.com/grailbio/gbam/biogbam/gbamcompress"
	"github.com/grailbio/gbam/biogbam/gbamio"
)

const (
	// DefaultMaxBlockSize is the default value of WriteOpts.MaxBlockSize.
	DefaultMaxBlockSize = 8 << 20
	// DefaultWriteParallelism is the default value of WriteOpts.WriteParallelism.
	DefaultWriteParallelism = 4
)

// Sink is the destination a Writer writes to. It must support seeking
// back to the start so Finish can patch in the file header once the
// catalog's final offset and checksum are known (two-pass layout:
// reserve the header, write blocks and catalog, then go back and
// patch the header in).
type Sink interface {
	io.Writer
	io.Seeker
}

// WriteOpts configures a Writer. It follows the
// validate-and-default-in-place convention of
// encoding/pam/pamwriter.go's WriteOpts.
type WriteOpts struct {
	// MaxBlockSize bounds the pre-compression size of a column's
	// buffer. If <= 0, DefaultMaxBlockSize is used.
	MaxBlockSize int

	// WriteParallelism bounds the number of compression worker
	// goroutines. If <= 0, DefaultWriteParallelism is used.
	WriteParallelism int

	// Codec selects the compression algorithm applied to every block.
	// The zero value, gbamcodec.CodecNone, is a valid choice.
	Codec gbamcodec.Codec

	// Comparators overrides the default per-field comparator used to
	// collect block min/max statistics. Under NewWriter, a field absent
	// from the map keeps its default comparator and a nil entry
	// disables stats for that field. NewWriterNoStats ignores this map.
	Comparators map[Field]gbamio.Comparator

	// ReferenceSequences is embedded verbatim into the catalog's
	// sam_header.reference_sequences.
	ReferenceSequences []ReferenceSequence
}

func defaultComparators() map[Field]gbamio.Comparator {
	return map[Field]gbamio.Comparator{
		FieldRefID:          gbamio.Int32LEComparator,
		FieldPos:            gbamio.Int32LEComparator,
		FieldMapQ:            gbamio.Uint8Comparator,
		FieldFlags:           gbamio.Uint16LEComparator,
		FieldNextRefID:       gbamio.Int32LEComparator,
		FieldNextPos:         gbamio.Int32LEComparator,
		FieldTemplateLength:  gbamio.Int32LEComparator,
		FieldReadName:        gbamio.BytewiseComparator,
		FieldCigar:           gbamio.BytewiseComparator,
		FieldSequence:        gbamio.BytewiseComparator,
		FieldQual:            gbamio.BytewiseComparator,
		FieldTags:            gbamio.BytewiseComparator,
	}
}

func (o *WriteOpts) validateAndDefault() {
	if o.MaxBlockSize <= 0 {
		o.MaxBlockSize = DefaultMaxBlockSize
	}
	if o.WriteParallelism <= 0 {
		o.WriteParallelism = DefaultWriteParallelism
	}
}

// Writer assembles BAM alignment records into a GBAM file: every
// record is split into per-field columns (gbamio.Column), each column
// is flushed to the compression pipeline (gbamcompress.Pipeline) once
// it fills, and Finish lays out the block payloads followed by a JSON
// catalog and a patched-in fixed header. Grounded directly on
// original_source/gbam_tools/src/writer.rs's push_record/finish.
type Writer struct {
	sink  Sink
	opts  WriteOpts
	pipe  *gbamcompress.Pipeline
	cols  map[Field]gbamio.Column
	order []Field // stable iteration order over cols, == DataFields()
	meta  *FileMeta
	pos   uint64
	err   errors.Once
}

// NewWriter creates a Writer with per-field stats collection using
// either opts.Comparators or, for any field not present there, the
// package default comparator.
func NewWriter(sink Sink, opts WriteOpts) (*Writer, error) {
	cmps := defaultComparators()
	for f, cmp := range opts.Comparators {
		cmps[f] = cmp
	}
	return newWriter(sink, opts, cmps)
}

// NewWriterNoStats creates a Writer that collects no per-block
// min/max statistics, mirroring Writer::new_no_stats in
// original_source/gbam_tools/src/writer.rs — useful when the caller
// knows stats will never be queried and wants to avoid the bookkeeping
// cost.
func NewWriterNoStats(sink Sink, opts WriteOpts) (*Writer, error) {
	return newWriter(sink, opts, nil)
}

func newWriter(sink Sink, opts WriteOpts, cmps map[Field]gbamio.Comparator) (*Writer, error) {
	opts.validateAndDefault()
	// Index fields get blocks of their own, so the codec map covers
	// every field, not only the data fields.
	allFields := make([]Field, 0, NumFields)
	for f := Field(0); f < fieldSentinel; f++ {
		allFields = append(allFields, f)
	}
	w := &Writer{
		sink:  sink,
		opts:  opts,
		cols:  make(map[Field]gbamio.Column),
		order: DataFields(),
		meta:  NewFileMeta(allFields, opts.Codec, opts.ReferenceSequences),
	}
	bufHolders := 0
	for _, f := range w.order {
		var cmp gbamio.Comparator
		if cmps != nil {
			cmp = cmps[f]
		}
		switch KindOf(f) {
		case KindFixed:
			w.cols[f] = gbamio.NewFixedColumn(f, opts.MaxBlockSize, cmp)
		case KindVariable:
			w.cols[f] = gbamio.NewVariableColumn(f, opts.MaxBlockSize, cmp)
		}
		_, index := w.cols[f].Inners()
		bufHolders++
		if index != nil {
			bufHolders++
		}
	}
	// The recycle pool must hold one buffer per Inner that can be
	// mid-flush at once (bufHolders), times how many of those flushes
	// may be compressing concurrently (WriteParallelism); otherwise,
	// once every column has flushed once, GetRecycleBuffer can block
	// forever waiting for a buffer that no in-flight job will ever free.
	w.pipe = gbamcompress.NewPipeline(opts.WriteParallelism, opts.WriteParallelism*2, bufHolders)
	// Reserve the fixed-size header; it is patched in by Finish once
	// the catalog's offset and checksum are known.
	if _, err := sink.Write(make([]byte, FileInfoSize)); err != nil {
		w.err.Set(err)
		return w, w.err.Err()
	}
	w.pos = FileInfoSize
	return w, nil
}

// PushRecord splits rec into its per-field columns, flushing any
// column (or, for a variable field, its index) that fills up along the
// way. It is a no-op once a prior error has been recorded.
func (w *Writer) PushRecord(rec RawRecord) error {
	if err := w.err.Err(); err != nil {
		return err
	}
	for _, f := range w.order {
		w.cols[f].WritePending(rec, w.flush)
		if err := w.err.Err(); err != nil {
			return err
		}
	}
	w.drainNonBlocking()
	return w.err.Err()
}

// flush submits inner's current contents to the compression pipeline
// and resets it for the next block. It is passed as the flush
// callback to gbamio.Column.WritePending.
func (w *Writer) flush(inner *gbamio.Inner) {
	if inner.Offset == 0 {
		// Nothing buffered; happens in Finish for a variable field's
		// payload whose pending records were all empty. No block is
		// emitted for it.
		inner.ResetForNewBlock()
		return
	}
	info := inner.SnapshotBlockInfo()
	scratch := w.pipe.GetRecycleBuffer()
	filled := inner.SwapBuffer(scratch)
	log.Debug.Printf("gbam: flush field=%v block=%d records=%d bytes=%d", inner.Field, info.BlockNum, info.NumItems, info.UncomprSize)
	w.pipe.Submit(info, filled, w.opts.Codec)
	inner.ResetForNewBlock()
	w.drainNonBlocking()
}

// drainNonBlocking sinks every compression result currently available
// without blocking the caller, so the pipeline's bounded result queue
// never backs up workers while PushRecord is busy splitting records.
func (w *Writer) drainNonBlocking() {
	for {
		task, ok := w.pipe.TryGetCompleted()
		if !ok {
			return
		}
		w.sink(task)
	}
}

// sink writes one compressed block's payload to the file and records
// its placement in the catalog, keyed by (Field, BlockNum) — a
// resize-and-place reassembly: blocks may complete out of order, but
// each one is self-describing, so placing it by index rather than
// appending it keeps per-field block order correct regardless of
// completion order.
func (w *Writer) sink(task gbamcompress.CompressTask) {
	if err := w.err.Err(); err != nil {
		return
	}
	n, err := w.sinkWrite(task.Buf)
	if err != nil {
		w.err.Set(err)
		return
	}
	block := BlockMeta{
		SeekPos:   w.pos,
		NumItems:  task.Info.NumItems,
		BlockSize: uint32(n),
		MinValue:  task.Info.MinValue,
		MaxValue:  task.Info.MaxValue,
	}
	w.pos += uint64(n)
	w.meta.PlaceBlock(task.Info.Field, task.Info.BlockNum, block)
}

func (w *Writer) sinkWrite(buf []byte) (int, error) {
	n, err := w.sink.Write(buf)
	if err != nil {
		return n, err
	}
	if n != len(buf) {
		return n, fmt.Errorf("gbam: short write: wrote %d of %d bytes", n, len(buf))
	}
	return n, nil
}

// Finish flushes every column's remaining partial block, drains the
// compression pipeline, writes the JSON catalog, and patches the file
// header with the catalog's offset and CRC32. It returns the total
// number of bytes written. The Writer must not be used again
// afterwards.
func (w *Writer) Finish() (uint64, error) {
	if err := w.err.Err(); err != nil {
		return 0, err
	}
	// Deciding which of a field's Inners still hold an unflushed partial
	// block is pure (it only reads each column's own counters), so it
	// fans out across w.order with a bounded number of goroutines —
	// mirroring encoding/pam's pam.Writer.Close, which closes its
	// per-field writers via traverse.Each. The actual flush (which
	// submits to the shared pipeline and touches w.pos/w.meta) stays on
	// this goroutine, one column at a time, since sink's catalog
	// placement and byte offset bookkeeping are not safe to run
	// concurrently.
	var mu sync.Mutex
	var pending []*gbamio.Inner
	_ = traverse.Each(len(w.order), func(i int) error {
		f := w.order[i]
		primary, index := w.cols[f].Inners()
		var mine []*gbamio.Inner
		if primary.Offset > 0 || primary.RecCount > 0 {
			mine = append(mine, primary)
		}
		if index != nil && (index.Offset > 0 || index.RecCount > 0) {
			mine = append(mine, index)
		}
		if len(mine) > 0 {
			mu.Lock()
			pending = append(pending, mine...)
			mu.Unlock()
		}
		return nil
	})
	for _, in := range pending {
		w.flush(in)
	}
	tasks, err := w.pipe.Finish()
	if err != nil {
		w.err.Set(err)
	}
	for _, t := range tasks {
		w.sink(t)
	}
	if err := w.err.Err(); err != nil {
		return 0, err
	}

	encoded, err := w.meta.Marshal()
	if err != nil {
		w.err.Set(err)
		return 0, err
	}
	catalogOffset := w.pos
	n, err := w.sinkWrite(encoded)
	if err != nil {
		w.err.Set(err)
		return 0, err
	}
	w.pos += uint64(n)

	header := FileInfo{
		VersionMajor:  FormatVersionMajor,
		VersionMinor:  FormatVersionMinor,
		CatalogOffset: catalogOffset,
		CatalogCRC32:  catalogChecksum(encoded),
	}
	if _, err := w.sink.Seek(0, io.SeekStart); err != nil {
		w.err.Set(err)
		return 0, err
	}
	if _, err := w.sink.Write(header.MarshalBinary()); err != nil {
		w.err.Set(err)
		return 0, err
	}
	return w.pos, nil
}

// Err returns the first error encountered so far, if any.
func (w *Writer) Err() error {
	return w.err.Err()
}
