// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/grailbio/gbam/biogbam"
)

// fileInfoReport is the JSON shape printed by the info subcommand.
type fileInfoReport struct {
	VersionMajor uint8             `json:"version_major"`
	VersionMinor uint8             `json:"version_minor"`
	CatalogBytes int               `json:"catalog_bytes"`
	Catalog      *biogbam.FileMeta `json:"catalog"`
}

// info reads path's fixed header and JSON catalog and prints them to
// stdout, without decoding any block payload. Decoding blocks back
// into records is out of scope for this package, so this is the full
// extent of what bio-gbamtool can inspect.
func info(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, biogbam.FileInfoSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("%s: reading header: %w", path, err)
	}
	fileInfo, err := biogbam.UnmarshalFileInfo(header)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if _, err := f.Seek(int64(fileInfo.CatalogOffset), io.SeekStart); err != nil {
		return fmt.Errorf("%s: seeking to catalog: %w", path, err)
	}
	catalogBytes, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("%s: reading catalog: %w", path, err)
	}
	if got := crc32.ChecksumIEEE(catalogBytes); got != fileInfo.CatalogCRC32 {
		return fmt.Errorf("%s: catalog checksum mismatch: file says %08x, computed %08x (truncated or corrupted file)",
			path, fileInfo.CatalogCRC32, got)
	}
	meta, err := biogbam.UnmarshalFileMeta(catalogBytes)
	if err != nil {
		return fmt.Errorf("%s: decoding catalog: %w", path, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(fileInfoReport{
		VersionMajor: fileInfo.VersionMajor,
		VersionMinor: fileInfo.VersionMinor,
		CatalogBytes: len(catalogBytes),
		Catalog:      meta,
	})
}
