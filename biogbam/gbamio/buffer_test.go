// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package gbamio_test

import (
	"testing"

	"github.com/grailbio/gbam/biogbam"
	"github.com/grailbio/gbam/biogbam/gbamio"
	"github.com/stretchr/testify/require"
)

func TestInnerFlushRequired(t *testing.T) {
	in := gbamio.NewInner(biogbam.FieldMapQ, 8, nil)
	require.False(t, in.FlushRequired(8), "empty buffer always accepts at least one record")

	in.WriteData([]byte{1})
	require.False(t, in.FlushRequired(7))
	require.True(t, in.FlushRequired(8))
}

func TestInnerWriteDataAdvancesOffsetAndCount(t *testing.T) {
	in := gbamio.NewInner(biogbam.FieldMapQ, 64, nil)
	in.WriteData([]byte{1, 2, 3})
	in.WriteData([]byte{4, 5})
	require.Equal(t, 5, in.Offset)
	require.EqualValues(t, 2, in.RecCount)
	require.Equal(t, []byte{1, 2, 3, 4, 5}, in.Buffer[:in.Offset])
}

func TestInnerOversizedRecordOnEmptyBuffer(t *testing.T) {
	in := gbamio.NewInner(biogbam.FieldTags, 4, nil)
	big := make([]byte, 100)
	require.False(t, in.FlushRequired(len(big)), "an empty buffer must accept an oversized record")
	in.WriteData(big)
	require.Equal(t, 100, in.Offset)
	require.True(t, in.FlushRequired(1))
}

func TestInnerWriteDataPanicsWhenFull(t *testing.T) {
	in := gbamio.NewInner(biogbam.FieldMapQ, 2, nil)
	in.WriteData([]byte{1, 2})
	require.Panics(t, func() { in.WriteData([]byte{3}) })
}

func TestInnerResetForNewBlock(t *testing.T) {
	in := gbamio.NewInner(biogbam.FieldMapQ, 64, gbamio.Uint8Comparator)
	in.WriteData([]byte{5})
	in.WriteData([]byte{9})
	min, max := in.SnapshotBlockInfo().MinValue, in.SnapshotBlockInfo().MaxValue
	require.Equal(t, []byte{5}, min)
	require.Equal(t, []byte{9}, max)

	require.EqualValues(t, 0, in.BlockNum)
	in.ResetForNewBlock()
	require.Equal(t, 0, in.Offset)
	require.EqualValues(t, 0, in.RecCount)
	require.EqualValues(t, 1, in.BlockNum)

	info := in.SnapshotBlockInfo()
	require.Nil(t, info.MinValue)
	require.Nil(t, info.MaxValue)
}

func TestInnerSwapBuffer(t *testing.T) {
	in := gbamio.NewInner(biogbam.FieldMapQ, 64, nil)
	in.WriteData([]byte{1, 2, 3})
	replacement := make([]byte, 0, 32)
	filled := in.SwapBuffer(replacement)
	require.Equal(t, []byte{1, 2, 3}, filled)
	require.Equal(t, 0, len(in.Buffer))
}

func TestStatsCollectorMinMax(t *testing.T) {
	s := gbamio.NewStatsCollector(gbamio.Int32LEComparator)
	min, max := s.MinMax()
	require.Nil(t, min)
	require.Nil(t, max)

	le := func(v int32) []byte {
		b := make([]byte, 4)
		b[0] = byte(v)
		b[1] = byte(v >> 8)
		b[2] = byte(v >> 16)
		b[3] = byte(v >> 24)
		return b
	}
	s.Update(le(10))
	s.Update(le(-5))
	s.Update(le(42))
	min, max = s.MinMax()
	require.Equal(t, le(-5), min)
	require.Equal(t, le(42), max)

	s.Reset()
	min, max = s.MinMax()
	require.Nil(t, min)
	require.Nil(t, max)
}

func TestBytewiseComparator(t *testing.T) {
	require.True(t, gbamio.BytewiseComparator([]byte("a"), []byte("b")) < 0)
	require.Equal(t, 0, gbamio.BytewiseComparator([]byte("x"), []byte("x")))
}
