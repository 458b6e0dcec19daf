// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package biogbam

import (
	"encoding/binary"
	"fmt"
)

// bamFixedBytes is the length of the fixed-width prefix of a raw BAM
// alignment record, as laid out by the BAM binary format: refID(4),
// pos(4), l_read_name(1), mapq(1), bin(2), n_cigar_op(2), flag(2),
// l_seq(4), next_refID(4), next_pos(4), tlen(4).
const bamFixedBytes = 32

// RawRecord is an opaque BAM alignment record, accessed only through
// BytesOf. It is the minimal concrete stand-in for the byte-layout
// accessor the spec declares external (§1); it is not a general BAM
// parsing library.
type RawRecord struct {
	buf []byte
}

// NewRawRecord wraps a raw BAM record byte blob. The blob is not
// copied; the caller must not mutate it while the RawRecord is live.
func NewRawRecord(buf []byte) RawRecord {
	return RawRecord{buf: buf}
}

// recordLayout holds the byte spans of a decoded record's variable
// regions. It is recomputed on every BytesOf call for a variable field;
// nothing is cached between calls.
type recordLayout struct {
	lReadName int
	nCigarOp  int
	lSeq      int

	nameStart, nameEnd     int
	cigarStart, cigarEnd   int
	seqStart, seqEnd       int
	qualStart, qualEnd     int
	tagsStart, tagsEnd     int
}

func (r RawRecord) layout() recordLayout {
	b := r.buf
	if len(b) < bamFixedBytes {
		panic(fmt.Sprintf("gbam: raw record too short: %d bytes", len(b)))
	}
	lReadName := int(b[8])
	nCigarOp := int(binary.LittleEndian.Uint16(b[12:]))
	lSeq := int(binary.LittleEndian.Uint32(b[16:]))

	nameStart := bamFixedBytes
	nameEnd := nameStart + lReadName
	cigarStart := nameEnd
	cigarEnd := cigarStart + nCigarOp*4
	seqStart := cigarEnd
	seqEnd := seqStart + (lSeq+1)/2
	qualStart := seqEnd
	qualEnd := qualStart + lSeq
	tagsStart := qualEnd
	tagsEnd := len(b)

	return recordLayout{
		lReadName: lReadName,
		nCigarOp:  nCigarOp,
		lSeq:      lSeq,

		nameStart: nameStart, nameEnd: nameEnd,
		cigarStart: cigarStart, cigarEnd: cigarEnd,
		seqStart: seqStart, seqEnd: seqEnd,
		qualStart: qualStart, qualEnd: qualEnd,
		tagsStart: tagsStart, tagsEnd: tagsEnd,
	}
}

// BytesOf returns the raw bytes backing a data field of the record.
// For fixed fields the returned slice has length FixedWidth(f); for
// variable fields it may be empty or long. The returned slice aliases
// the record's backing buffer.
//
// REQUIRES: IsDataField(f).
func (r RawRecord) BytesOf(f Field) []byte {
	b := r.buf
	switch f {
	case FieldRefID:
		return b[0:4]
	case FieldPos:
		return b[4:8]
	case FieldMapQ:
		return b[9:10]
	case FieldFlags:
		return b[14:16]
	case FieldNextRefID:
		return b[20:24]
	case FieldNextPos:
		return b[24:28]
	case FieldTemplateLength:
		return b[28:32]
	}

	l := r.layout()
	switch f {
	case FieldReadName:
		if l.lReadName <= 1 {
			// No name, or only the trailing NUL.
			return nil
		}
		// Drop the trailing NUL the BAM format always includes.
		return b[l.nameStart : l.nameEnd-1]
	case FieldCigar:
		return b[l.cigarStart:l.cigarEnd]
	case FieldSequence:
		return b[l.seqStart:l.seqEnd]
	case FieldQual:
		return b[l.qualStart:l.qualEnd]
	case FieldTags:
		return b[l.tagsStart:l.tagsEnd]
	}
	panic(fmt.Sprintf("gbam: %v is not a data field", f))
}

// ReferenceSequence describes one entry of the SAM header's reference
// sequence dictionary, embedded in the GBAM catalog for self-description.
type ReferenceSequence struct {
	Name   string `json:"name"`
	Length int32  `json:"length"`
}
