// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package gbamcompress_test

import (
	"testing"

	"github.com/grailbio/gbam/biogbam"
	"github.com/grailbio/gbam/biogbam/gbamcodec"
	"github.com/grailbio/gbam/biogbam/gbamcompress"
	"github.com/grailbio/gbam/biogbam/gbamio"
	"github.com/stretchr/testify/require"
)

func TestPipelineRoundTripsAllSubmittedBlocks(t *testing.T) {
	const n = 50
	// Nothing reads results until Finish, so the queues must hold all n
	// jobs: Submit blocks once the bounded job queue is full.
	p := gbamcompress.NewPipeline(4, n, 4)
	for i := uint32(0); i < n; i++ {
		info := gbamio.BlockInfo{Field: biogbam.FieldSequence, BlockNum: i, NumItems: 1, UncomprSize: 8}
		p.Submit(info, []byte{byte(i), byte(i + 1)}, gbamcodec.CodecGzip)
	}
	tasks, err := p.Finish()
	require.NoError(t, err)
	require.Len(t, tasks, n)

	seen := make(map[uint32]bool, n)
	for _, tk := range tasks {
		require.Equal(t, biogbam.FieldSequence, tk.Info.Field)
		decoded, err := gbamcodec.Decode(gbamcodec.CodecGzip, tk.Buf)
		require.NoError(t, err)
		require.Equal(t, []byte{byte(tk.Info.BlockNum), byte(tk.Info.BlockNum + 1)}, decoded)
		seen[tk.Info.BlockNum] = true
	}
	require.Len(t, seen, n)
}

func TestPipelineRecycleBufferIsPreseeded(t *testing.T) {
	const workers, fields = 1, 5
	p := gbamcompress.NewPipeline(workers, workers*fields, fields)
	// NewPipeline pre-seeds workers*fields scratch buffers, so this many
	// checkouts must succeed without blocking on a worker returning one.
	const preseeded = workers * fields
	bufs := make([][]byte, preseeded)
	for i := range bufs {
		bufs[i] = p.GetRecycleBuffer()
		require.NotNil(t, bufs[i])
		require.Equal(t, 0, len(bufs[i]))
	}
	// Submit a job per checked-out buffer so each is returned to the
	// pool by its worker, matching the pool's checkout/checkin
	// invariant that Finish relies on to drain cleanly.
	for i, buf := range bufs {
		buf = append(buf, byte(i))
		p.Submit(gbamio.BlockInfo{Field: biogbam.FieldSequence, BlockNum: uint32(i)}, buf, gbamcodec.CodecNone)
	}
	tasks, err := p.Finish()
	require.NoError(t, err)
	require.Len(t, tasks, preseeded)
}

func TestPipelineSurfacesCodecErrors(t *testing.T) {
	p := gbamcompress.NewPipeline(1, 1, 1)
	p.Submit(gbamio.BlockInfo{Field: biogbam.FieldTags, BlockNum: 0}, []byte("payload"), gbamcodec.Codec(200))
	_, err := p.Finish()
	require.Error(t, err)
	require.Equal(t, err, p.Err())
}
