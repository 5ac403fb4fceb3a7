package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSliceToBytesRoundTrip(t *testing.T) {
	in := []float32{1, 2, 3, 4}
	raw := SliceToBytes(in)
	require.Len(t, raw, 16)

	out := BytesToSlice[float32](raw)
	require.Equal(t, in, out)
}

func TestBytesToSliceRejectsRaggedLength(t *testing.T) {
	require.Nil(t, BytesToSlice[float32]([]byte{1, 2, 3}))
}

func TestSliceToBytesEmpty(t *testing.T) {
	require.Nil(t, SliceToBytes[float32](nil))
}

func TestStructToBytesSize(t *testing.T) {
	tr := TransformIdentity()
	raw := StructToBytes(&tr)
	require.Len(t, raw, 28)
}

func TestCoalesceReturnsFirstNonZero(t *testing.T) {
	require.Equal(t, "b", Coalesce("", "b", "c"))
	require.Equal(t, 0, Coalesce(0, 0))
	require.Equal(t, 5, Coalesce(5, 2))
}
