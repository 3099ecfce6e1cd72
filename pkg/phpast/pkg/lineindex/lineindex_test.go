package lineindex_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/lineindex"
)

const sample = "<?php\n$a = 1;\n\n$b = 2;\nfunction f() {}\n"

func naiveLine(src string, offset int) uint32 {
	return uint32(strings.Count(src[:offset], "\n")) + 1
}

func TestIndex_Forward(t *testing.T) {
	t.Parallel()

	idx := lineindex.New([]byte(sample))

	assert.Equal(t, uint32(1), idx.Line(0))
	assert.Equal(t, uint32(1), idx.Line(5))
	assert.Equal(t, uint32(2), idx.Line(6))
	assert.Equal(t, uint32(4), idx.Line(15))
	assert.Equal(t, uint32(5), idx.Line(len(sample)-1))
}

func TestIndex_QueryOrderIndependent(t *testing.T) {
	t.Parallel()

	offsets := []int{20, 3, 35, 0, 14, 14, 36, 7, 1, 29}

	idx := lineindex.New([]byte(sample))

	for _, off := range offsets {
		assert.Equal(t, naiveLine(sample, off), idx.Line(off), "offset %d", off)
	}
}

func TestIndex_Clamp(t *testing.T) {
	t.Parallel()

	idx := lineindex.New([]byte(sample))

	assert.Equal(t, uint32(6), idx.Line(10_000))
	assert.Equal(t, uint32(1), idx.Line(-4))
}

func TestIndex_LineSpan(t *testing.T) {
	t.Parallel()

	src := "<?php\nfunction f() {\n}\n"
	idx := lineindex.New([]byte(src))

	start := strings.Index(src, "function")
	end := strings.Index(src, "}") + 1

	first, last := idx.LineSpan(start, end)
	assert.Equal(t, uint32(2), first)
	assert.Equal(t, uint32(3), last)

	first, last = idx.LineSpan(start, start)
	assert.Equal(t, first, last)
}

func TestIndex_Column(t *testing.T) {
	t.Parallel()

	idx := lineindex.New([]byte(sample))

	assert.Equal(t, 0, idx.Column(6))
	assert.Equal(t, 3, idx.Column(9))
	assert.Equal(t, len(sample), idx.Len())
}

func BenchmarkIndex_Line(b *testing.B) {
	src := []byte(strings.Repeat("$x = 1;\n", 10_000))

	for b.Loop() {
		idx := lineindex.New(src)
		for off := 0; off < len(src); off += 97 {
			idx.Line(off)
		}
	}
}
