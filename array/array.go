// Package array provides the minimal N-dimensional array container the
// FITS image codec decodes into. The FITS specification treats this
// container as an external collaborator (a numeric-array library such as
// gonum/tensor or a custom ndarray type); this package is the smallest
// concrete implementation of that contract so the module has something to
// compile and test against.
package array

import "fmt"

// Numeric enumerates the eight primitive element types the FITS image
// codec supports.
type Numeric interface {
	~uint8 | ~uint16 | ~uint32 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// Array is a flat buffer plus a shape, row-major, with the last dimension
// varying fastest — matching FITS's on-disk axis order once the codec has
// reversed the axis list (spec.md §4.5 step 2).
type Array[T Numeric] struct {
	shape []int64
	data  []T
}

// New constructs an Array from a flat buffer and a shape; the buffer length
// must equal the product of shape, and must be empty when shape is empty.
func New[T Numeric](data []T, shape []int64) (*Array[T], error) {
	want := int64(1)
	for _, d := range shape {
		want *= d
	}
	if len(shape) == 0 {
		want = 0
	}
	if int64(len(data)) != want {
		return nil, fmt.Errorf("array: data length %d does not match shape product %d", len(data), want)
	}
	return &Array[T]{shape: append([]int64(nil), shape...), data: data}, nil
}

// Shape returns a copy of the array's dimensions.
func (a *Array[T]) Shape() []int64 {
	return append([]int64(nil), a.shape...)
}

// Len returns the number of elements.
func (a *Array[T]) Len() int {
	return len(a.data)
}

// Data returns the contiguous backing buffer, suitable for in-place
// encoding without an extra copy.
func (a *Array[T]) Data() []T {
	return a.data
}

// At returns the element at the given N-dimensional index, row-major.
func (a *Array[T]) At(idx ...int64) (T, error) {
	var zero T
	if len(idx) != len(a.shape) {
		return zero, fmt.Errorf("array: index has %d dimensions, want %d", len(idx), len(a.shape))
	}
	offset := int64(0)
	for i, d := range a.shape {
		if idx[i] < 0 || idx[i] >= d {
			return zero, fmt.Errorf("array: index %d out of bounds for dimension %d (size %d)", idx[i], i, d)
		}
		offset = offset*d + idx[i]
	}
	return a.data[offset], nil
}
