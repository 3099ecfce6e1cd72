package safeconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      int
		want    uint32
		wantErr bool
	}{
		{name: "zero", in: 0, want: 0},
		{name: "small", in: 42, want: 42},
		{name: "max", in: math.MaxUint32, want: math.MaxUint32},
		{name: "negative", in: -1, wantErr: true},
		{name: "too large", in: math.MaxUint32 + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Offset(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrOffsetRange)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMustIntToUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(7), MustIntToUint32(7))
	assert.Panics(t, func() { MustIntToUint32(-3) })
}

func TestMustUintToUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(128), MustUintToUint32(128))
	assert.Panics(t, func() { MustUintToUint32(uint(math.MaxUint32) + 1) })
}

func TestCheckSource(t *testing.T) {
	t.Parallel()

	require.NoError(t, CheckSource(nil))
	require.NoError(t, CheckSource([]byte("<?php echo 1;")))
}
