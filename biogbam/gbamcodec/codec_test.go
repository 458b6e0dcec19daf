// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package gbamcodec_test

import (
	"bytes"
	"testing"

	"github.com/grailbio/gbam/biogbam/gbamcodec"
	"github.com/stretchr/testify/require"
)

var allCodecs = []gbamcodec.Codec{
	gbamcodec.CodecNone,
	gbamcodec.CodecGzip,
	gbamcodec.CodecZstd,
	gbamcodec.CodecSnappy,
	gbamcodec.CodecLZ4,
}

func TestCodecRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 200)
	for _, c := range allCodecs {
		c := c
		t.Run(c.String(), func(t *testing.T) {
			encoded, err := gbamcodec.Encode(c, payload)
			require.NoError(t, err)
			decoded, err := gbamcodec.Decode(c, encoded)
			require.NoError(t, err)
			require.Equal(t, payload, decoded)
		})
	}
}

func TestCodecRoundTripEmptyPayload(t *testing.T) {
	for _, c := range allCodecs {
		encoded, err := gbamcodec.Encode(c, nil)
		require.NoError(t, err)
		decoded, err := gbamcodec.Decode(c, encoded)
		require.NoError(t, err)
		require.Empty(t, decoded)
	}
}

func TestCodecStringParseRoundTrip(t *testing.T) {
	for _, c := range allCodecs {
		parsed, err := gbamcodec.ParseCodec(c.String())
		require.NoError(t, err)
		require.Equal(t, c, parsed)
	}
}

func TestParseCodecUnknown(t *testing.T) {
	_, err := gbamcodec.ParseCodec("bzip2")
	require.Error(t, err)
}
