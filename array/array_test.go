package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsMismatchedLength(t *testing.T) {
	_, err := New([]uint8{1, 2, 3}, []int64{2, 2})
	require.Error(t, err)
}

func TestNewAndAt(t *testing.T) {
	a, err := New([]int32{1, 2, 3, 4, 5, 6}, []int64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, a.Shape())
	assert.Equal(t, 6, a.Len())

	v, err := a.At(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(6), v)
}

func TestAtOutOfBounds(t *testing.T) {
	a, err := New([]float64{1, 2}, []int64{2})
	require.NoError(t, err)
	_, err = a.At(5)
	require.Error(t, err)
}

func TestNewEmptyShape(t *testing.T) {
	a, err := New([]uint8{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Len())
}
