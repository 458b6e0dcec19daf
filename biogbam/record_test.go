// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package biogbam_test

import (
	"encoding/binary"
	"testing"

	"github.com/grailbio/gbam/biogbam"
	"github.com/stretchr/testify/require"
)

// buildRawBAM assembles a minimal raw BAM alignment record byte blob
// with the given fields, for exercising biogbam.RawRecord.BytesOf.
func buildRawBAM(refID, pos int32, name string, cigarOps int, seqLen uint32, tags []byte) []byte {
	readName := append([]byte(name), 0)
	cigar := make([]byte, cigarOps*4)
	for i := range cigar {
		cigar[i] = byte(i + 1)
	}
	seq := make([]byte, (int(seqLen)+1)/2)
	for i := range seq {
		seq[i] = byte(0x12)
	}
	qual := make([]byte, seqLen)
	for i := range qual {
		qual[i] = byte(30 + i%10)
	}

	buf := make([]byte, 32+len(readName)+len(cigar)+len(seq)+len(qual)+len(tags))
	binary.LittleEndian.PutUint32(buf[0:], uint32(refID))
	binary.LittleEndian.PutUint32(buf[4:], uint32(pos))
	buf[8] = byte(len(readName))
	buf[9] = 60 // mapq
	binary.LittleEndian.PutUint16(buf[12:], uint16(cigarOps))
	binary.LittleEndian.PutUint16(buf[14:], 0x0002) // flag
	binary.LittleEndian.PutUint32(buf[16:], seqLen)
	binary.LittleEndian.PutUint32(buf[20:], uint32(refID))
	binary.LittleEndian.PutUint32(buf[24:], uint32(pos+100))
	binary.LittleEndian.PutUint32(buf[28:], 200)

	off := 32
	off += copy(buf[off:], readName)
	off += copy(buf[off:], cigar)
	off += copy(buf[off:], seq)
	off += copy(buf[off:], qual)
	copy(buf[off:], tags)
	return buf
}

func TestRawRecordBytesOfFixedFields(t *testing.T) {
	buf := buildRawBAM(3, 1000, "read1", 2, 10, []byte{'N', 'M', 'i', 0, 1, 0, 0})
	r := biogbam.NewRawRecord(buf)

	require.EqualValues(t, 3, int32(binary.LittleEndian.Uint32(r.BytesOf(biogbam.FieldRefID))))
	require.EqualValues(t, 1000, int32(binary.LittleEndian.Uint32(r.BytesOf(biogbam.FieldPos))))
	require.EqualValues(t, 60, r.BytesOf(biogbam.FieldMapQ)[0])
	require.EqualValues(t, 0x0002, binary.LittleEndian.Uint16(r.BytesOf(biogbam.FieldFlags)))
	require.EqualValues(t, 3, int32(binary.LittleEndian.Uint32(r.BytesOf(biogbam.FieldNextRefID))))
	require.EqualValues(t, 1100, int32(binary.LittleEndian.Uint32(r.BytesOf(biogbam.FieldNextPos))))
	require.EqualValues(t, 200, int32(binary.LittleEndian.Uint32(r.BytesOf(biogbam.FieldTemplateLength))))
}

func TestRawRecordBytesOfVariableFields(t *testing.T) {
	buf := buildRawBAM(0, 0, "readname", 3, 8, []byte{'X', 'Y', 'Z'})
	r := biogbam.NewRawRecord(buf)

	require.Equal(t, "readname", string(r.BytesOf(biogbam.FieldReadName)))
	require.Len(t, r.BytesOf(biogbam.FieldCigar), 3*4)
	require.Len(t, r.BytesOf(biogbam.FieldSequence), (8+1)/2)
	require.Len(t, r.BytesOf(biogbam.FieldQual), 8)
	require.Equal(t, []byte{'X', 'Y', 'Z'}, r.BytesOf(biogbam.FieldTags))
}

func TestRawRecordEmptyReadName(t *testing.T) {
	buf := buildRawBAM(0, 0, "", 0, 0, nil)
	r := biogbam.NewRawRecord(buf)
	require.Nil(t, r.BytesOf(biogbam.FieldReadName))
	require.Empty(t, r.BytesOf(biogbam.FieldCigar))
	require.Empty(t, r.BytesOf(biogbam.FieldSequence))
	require.Empty(t, r.BytesOf(biogbam.FieldQual))
	require.Empty(t, r.BytesOf(biogbam.FieldTags))
}

func TestRawRecordTooShortPanics(t *testing.T) {
	r := biogbam.NewRawRecord(make([]byte, 10))
	require.Panics(t, func() { r.BytesOf(biogbam.FieldReadName) })
}

func TestRawRecordBytesOfNonDataFieldPanics(t *testing.T) {
	buf := buildRawBAM(0, 0, "r", 0, 0, nil)
	r := biogbam.NewRawRecord(buf)
	require.Panics(t, func() { r.BytesOf(biogbam.FieldReadNameIndex) })
}
