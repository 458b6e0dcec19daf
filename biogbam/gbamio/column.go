// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package gbamio

import (
	"encoding/binary"

	"github.com/grailbio/gbam/biogbam"
)

// WriteStatus reports the outcome of writing one record's field into
// a Column.
type WriteStatus int

const (
	// Written means the record was accepted; the caller should move
	// on to the next column.
	Written WriteStatus = iota
	// Full means the column (or, for a VariableColumn, its index) is
	// at capacity and must be flushed before the caller retries.
	Full
)

// Column is the capability set shared by FixedColumn and
// VariableColumn.
type Column interface {
	// WriteRecordField extracts and writes rec's bytes for this
	// column's field. If it returns Full, the returned *Inner is the
	// buffer the caller must flush before calling WriteRecordField
	// again for the same record.
	WriteRecordField(rec biogbam.RawRecord) (WriteStatus, *Inner)

	// Inners returns the column's primary buffer and, for a
	// VariableColumn, its index buffer.
	Inners() (primary *Inner, index *Inner)

	// WritePending drives WriteRecordField in a loop, flushing with
	// flush whenever it reports Full, until the record is fully
	// written. flush is called at most twice per record (index, then
	// payload), since a VariableColumn's index and payload are
	// independent.
	WritePending(rec biogbam.RawRecord, flush func(*Inner))
}

func writePending(c Column, rec biogbam.RawRecord, flush func(*Inner)) {
	for {
		status, full := c.WriteRecordField(rec)
		if status == Written {
			return
		}
		flush(full)
	}
}

// FixedColumn buffers one fixed-width field.
type FixedColumn struct {
	Inner *Inner
}

// NewFixedColumn creates a column for a fixed-width field.
func NewFixedColumn(field biogbam.Field, sizeLimit int, cmp Comparator) *FixedColumn {
	return &FixedColumn{Inner: NewInner(field, sizeLimit, cmp)}
}

func (c *FixedColumn) WriteRecordField(rec biogbam.RawRecord) (WriteStatus, *Inner) {
	data := rec.BytesOf(c.Inner.Field)
	if c.Inner.FlushRequired(len(data)) {
		return Full, c.Inner
	}
	c.Inner.WriteData(data)
	return Written, nil
}

func (c *FixedColumn) Inners() (*Inner, *Inner) { return c.Inner, nil }

func (c *FixedColumn) WritePending(rec biogbam.RawRecord, flush func(*Inner)) {
	writePending(c, rec, flush)
}

// VariableColumn buffers one variable-width field's payload plus a
// fixed-width companion index recording each record's running
// end-offset within the current block — chosen over a start-offset so
// index[-1] == 0 falls out naturally from a fresh block starting at
// Offset 0, with no separate sentinel to maintain.
type VariableColumn struct {
	Payload *Inner
	Index   *Inner
}

// NewVariableColumn creates a column for a variable-width field. cmp,
// if non-nil, collects stats over the payload bytes; the index column
// never collects stats.
func NewVariableColumn(field biogbam.Field, sizeLimit int, cmp Comparator) *VariableColumn {
	return &VariableColumn{
		Payload: NewInner(field, sizeLimit, cmp),
		Index:   NewInner(biogbam.VarFieldIndex(field), sizeLimit, nil),
	}
}

func (c *VariableColumn) WriteRecordField(rec biogbam.RawRecord) (WriteStatus, *Inner) {
	data := rec.BytesOf(c.Payload.Field)

	var idxBuf [4]byte
	// Index is checked first, matching writer.rs: a full index must
	// be flushed before the payload write (whose resulting offset the
	// index entry depends on) is attempted.
	if c.Index.FlushRequired(len(idxBuf)) {
		return Full, c.Index
	}
	if c.Payload.FlushRequired(len(data)) {
		return Full, c.Payload
	}

	c.Payload.WriteData(data)
	binary.LittleEndian.PutUint32(idxBuf[:], uint32(c.Payload.Offset))
	c.Index.WriteData(idxBuf[:])
	return Written, nil
}

func (c *VariableColumn) Inners() (*Inner, *Inner) { return c.Payload, c.Index }

func (c *VariableColumn) WritePending(rec biogbam.RawRecord, flush func(*Inner)) {
	writePending(c, rec, flush)
}
