// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package biogbam

import "fmt"

// Field identifies one column of a GBAM file. Each field is either
// fixed-width or variable-width; variable-width fields carry a
// companion index field (always fixed-width, 4 bytes) recording the
// running end-offset of each record inside the current block.
//
// The numeric values and String() names are part of the on-disk
// catalog contract (they appear as map keys in the JSON catalog) and
// must not be renamed.
type Field uint8

const (
	FieldRefID Field = iota
	FieldPos
	FieldMapQ
	FieldFlags
	FieldNextRefID
	FieldNextPos
	FieldTemplateLength

	FieldReadName
	FieldReadNameIndex
	FieldCigar
	FieldCigarIndex
	FieldSequence
	FieldSequenceIndex
	FieldQual
	FieldQualIndex
	FieldTags
	FieldTagsIndex

	// fieldSentinel marks the end of the enumeration.
	fieldSentinel
)

// NumFields is the total number of columns a GBAM file may contain,
// including the synthetic index columns of variable fields.
const NumFields = int(fieldSentinel)

// indexSize4 is the width, in bytes, of every index column.
const indexSize4 = 4

var fieldNames = [NumFields]string{
	FieldRefID:          "refid",
	FieldPos:            "pos",
	FieldMapQ:           "mapq",
	FieldFlags:          "flags",
	FieldNextRefID:      "next_refid",
	FieldNextPos:        "next_pos",
	FieldTemplateLength: "template_length",
	FieldReadName:       "read_name",
	FieldReadNameIndex:  "read_name_index",
	FieldCigar:          "cigar",
	FieldCigarIndex:     "cigar_index",
	FieldSequence:       "sequence",
	FieldSequenceIndex:  "sequence_index",
	FieldQual:           "qual",
	FieldQualIndex:      "qual_index",
	FieldTags:           "tags",
	FieldTagsIndex:      "tags_index",
}

// String returns the stable name of the field. It is used as a key in
// the JSON catalog, so it must not change across releases.
func (f Field) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return fmt.Sprintf("field%d", f)
}

// ParseField converts a string produced by Field.String back to a
// Field.
func ParseField(v string) (Field, error) {
	for i, name := range fieldNames {
		if name == v {
			return Field(i), nil
		}
	}
	return fieldSentinel, fmt.Errorf("%v: invalid gbam field name", v)
}

// Kind classifies a field as fixed or variable width.
type Kind uint8

const (
	// KindFixed fields contribute the same byte width on every record.
	KindFixed Kind = iota
	// KindVariable fields may contribute a different byte width on
	// every record, and carry a companion index field.
	KindVariable
)

var fixedWidths = map[Field]int{
	FieldRefID:          4,
	FieldPos:             4,
	FieldMapQ:            1,
	FieldFlags:           2,
	FieldNextRefID:       4,
	FieldNextPos:         4,
	FieldTemplateLength:  4,
	FieldReadNameIndex:   indexSize4,
	FieldCigarIndex:      indexSize4,
	FieldSequenceIndex:   indexSize4,
	FieldQualIndex:       indexSize4,
	FieldTagsIndex:       indexSize4,
}

var indexOfVariable = map[Field]Field{
	FieldReadName: FieldReadNameIndex,
	FieldCigar:    FieldCigarIndex,
	FieldSequence: FieldSequenceIndex,
	FieldQual:     FieldQualIndex,
	FieldTags:     FieldTagsIndex,
}

// KindOf reports whether f is fixed- or variable-width.
func KindOf(f Field) Kind {
	if _, ok := fixedWidths[f]; ok {
		return KindFixed
	}
	return KindVariable
}

// FixedWidth returns the fixed byte width of f.
//
// REQUIRES: KindOf(f) == KindFixed.
func FixedWidth(f Field) int {
	w, ok := fixedWidths[f]
	if !ok {
		panic(fmt.Sprintf("gbam: %v is not a fixed-width field", f))
	}
	return w
}

// VarFieldIndex returns the companion index field of a variable field.
//
// REQUIRES: KindOf(f) == KindVariable.
func VarFieldIndex(f Field) Field {
	idx, ok := indexOfVariable[f]
	if !ok {
		panic(fmt.Sprintf("gbam: %v is not a variable-width field", f))
	}
	return idx
}

// IsDataField reports whether f is a field the caller pushes data
// into directly. Index fields are owned by their variable companion
// and are never iterated on their own; this follows the parallel
// writer's rule in original_source/gbam_tools/src/writer.rs, not the
// legacy single-threaded writer's (inconsistent) exclusion list.
func IsDataField(f Field) bool {
	switch f {
	case FieldReadNameIndex, FieldCigarIndex, FieldSequenceIndex, FieldQualIndex, FieldTagsIndex:
		return false
	default:
		return f < fieldSentinel
	}
}

// DataFields returns the ordered list of fields a Writer maintains one
// Column for (fixed fields plus variable fields, excluding their
// synthetic index companions).
func DataFields() []Field {
	fields := make([]Field, 0, NumFields)
	for f := Field(0); f < fieldSentinel; f++ {
		if IsDataField(f) {
			fields = append(fields, f)
		}
	}
	return fields
}
