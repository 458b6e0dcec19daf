// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package biogbam

import (
	"encoding/json"

	"github.com/grailbio/gbam/biogbam/gbamcodec"
)

// BlockMeta describes one compressed block of a field's column. Its
// field names are part of the on-disk JSON shape and must not change.
type BlockMeta struct {
	SeekPos   uint64 `json:"seekpos"`
	NumItems  uint32 `json:"numitems"`
	BlockSize uint32 `json:"block_size"`
	MinValue  []byte `json:"min_value,omitempty"`
	MaxValue  []byte `json:"max_value,omitempty"`
}

// SamHeader carries the reference sequence dictionary the catalog
// embeds for self-description.
type SamHeader struct {
	ReferenceSequences []ReferenceSequence `json:"reference_sequences"`
}

// FileMeta is the JSON catalog written after the last block payload
// and referenced by the patched-in file header. Its key names are
// part of the on-disk format and must not change.
type FileMeta struct {
	FieldToCodec  map[string]string       `json:"field_to_codec"`
	FieldToBlocks map[string][]BlockMeta  `json:"field_to_blocks"`
	SamHeader     SamHeader               `json:"sam_header"`
}

// NewFileMeta creates an empty catalog for the given fields, all
// mapped to the same codec: this writer always compresses a whole
// file with one codec. field_to_codec is still populated per field
// (rather than collapsed to one top-level value) so the JSON shape
// stays stable if a future writer chooses a different codec per
// field.
func NewFileMeta(fields []Field, codec gbamcodec.Codec, refSeqs []ReferenceSequence) *FileMeta {
	m := &FileMeta{
		FieldToCodec:  make(map[string]string, len(fields)),
		FieldToBlocks: make(map[string][]BlockMeta, len(fields)),
		SamHeader:     SamHeader{ReferenceSequences: refSeqs},
	}
	for _, f := range fields {
		m.FieldToCodec[f.String()] = codec.String()
	}
	return m
}

// PlaceBlock records a completed block for field at index blockNum,
// growing the field's block slice as needed. Blocks are placed by
// index rather than appended because the compression pipeline may
// complete them out of order; placement by (field, blockNum) makes
// the final catalog correct regardless of completion order.
func (m *FileMeta) PlaceBlock(f Field, blockNum uint32, block BlockMeta) {
	name := f.String()
	blocks := m.FieldToBlocks[name]
	if need := int(blockNum) + 1; len(blocks) < need {
		grown := make([]BlockMeta, need)
		copy(grown, blocks)
		blocks = grown
	}
	blocks[blockNum] = block
	m.FieldToBlocks[name] = blocks
}

// Marshal encodes the catalog as JSON. encoding/json is used rather
// than a schema-driven serializer (the teacher's own PAM catalog is a
// gogo/protobuf message, and the Rust original's catalog is
// serde_json): the on-disk catalog format is fixed to JSON with
// specific key names, so a binary or schema-based encoding would not
// produce a conforming file.
func (m *FileMeta) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalFileMeta decodes a catalog previously produced by Marshal.
// Reading block payloads back and decoding them into records is out of
// scope for this package; this accessor only exposes the catalog
// itself, for round-trip tests and for tools like bio-gbamtool's
// "info" command that inspect a file's layout without decoding it.
func UnmarshalFileMeta(b []byte) (*FileMeta, error) {
	var m FileMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
