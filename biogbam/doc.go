// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package biogbam implements the write path of GBAM, a columnar
// on-disk format for BAM alignment records. GBAM splits each record
// into per-field column streams, compresses them in parallel while
// preserving record order, and lays them out in a single seekable
// file with a trailing JSON catalog describing where every block
// landed.
//
// The companion read path (beyond decoding the header and catalog), a
// general BAM record parser (RawRecord is only a minimal field
// accessor), and the codec implementations themselves are not part of
// this package; see gbamcodec for the (wired-in) codec registry.
package biogbam
