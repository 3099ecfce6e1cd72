// Package safeconv converts between the integer widths used for source
// positions. Trees store byte offsets as uint32 while slices index with int,
// so every crossing goes through here.
package safeconv

import (
	"errors"
	"fmt"
	"math"
)

// MaxOffset is the largest byte offset a tree can address.
const MaxOffset = math.MaxUint32

// ErrOffsetRange is returned when a value cannot be used as a byte offset.
var ErrOffsetRange = errors.New("offset out of range")

// Offset converts a slice index or length to a tree offset.
func Offset(v int) (uint32, error) {
	if v < 0 || v > MaxOffset {
		return 0, fmt.Errorf("%w: %d", ErrOffsetRange, v)
	}

	return uint32(v), nil
}

// MustIntToUint32 is Offset for values already bounded by a source length.
func MustIntToUint32(v int) uint32 {
	off, err := Offset(v)
	if err != nil {
		panic("safeconv: " + err.Error())
	}

	return off
}

// MustUintToUint32 narrows the uint byte positions reported by the parser.
func MustUintToUint32(v uint) uint32 {
	if v > MaxOffset {
		panic(fmt.Sprintf("safeconv: %v: %d", ErrOffsetRange, v))
	}

	return uint32(v)
}

// CheckSource reports whether every offset into src fits a tree offset.
func CheckSource(src []byte) error {
	if _, err := Offset(len(src)); err != nil {
		return fmt.Errorf("source of %d bytes: %w", len(src), err)
	}

	return nil
}
