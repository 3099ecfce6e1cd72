// Package lineindex maps byte offsets of a source text to 1-based line numbers.
//
// An Index keeps a single cursor (offset, line) and advances or rewinds it
// incrementally, so the forward scans performed by a tree conversion cost
// O(bytes between consecutive queries). Queries in any order return the
// same line for the same offset.
package lineindex

import (
	"bytes"

	"github.com/Sumatoshi-tech/phpast/pkg/safeconv"
)

const firstLine = 1

// Index answers offset-to-line queries for one source text.
// It is not safe for concurrent use; each conversion owns its own Index.
type Index struct {
	src    []byte
	offset int
	line   uint32
}

// New creates an Index positioned at the start of src.
func New(src []byte) *Index {
	return &Index{src: src, line: firstLine}
}

// Line returns the 1-based line containing offset. Offsets beyond the end
// of the source are clamped to its length; negative offsets map to line 1.
func (idx *Index) Line(offset int) uint32 {
	offset = max(0, min(offset, len(idx.src)))

	switch {
	case offset > idx.offset:
		idx.line += countNewlines(idx.src[idx.offset:offset])
	case offset < idx.offset:
		idx.line -= countNewlines(idx.src[offset:idx.offset])
	}

	idx.offset = offset

	return idx.line
}

// LineSpan returns the lines holding the first and the last byte of
// [start, end). An empty span reports the start line twice.
func (idx *Index) LineSpan(start, end int) (first, last uint32) {
	first = idx.Line(start)
	if end <= start {
		return first, first
	}

	return first, idx.Line(end - 1)
}

// Column returns the 0-based byte column of offset within its line.
func (idx *Index) Column(offset int) int {
	offset = max(0, min(offset, len(idx.src)))

	lineStart := bytes.LastIndexByte(idx.src[:offset], '\n') + 1

	return offset - lineStart
}

// Len returns the length of the indexed source.
func (idx *Index) Len() int {
	return len(idx.src)
}

func countNewlines(b []byte) uint32 {
	return safeconv.MustIntToUint32(bytes.Count(b, []byte{'\n'}))
}
