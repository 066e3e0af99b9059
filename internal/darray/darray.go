// Package darray provides the growable typed array used as the storage
// primitive for children lists, render trees and stacks.
//
// An Array grows by doubling its capacity, starting at 8 elements. Every
// growth is overflow-checked: when the next capacity or its byte size cannot
// be represented, Push fails with ErrOverflow instead of wrapping.
//
// Two allocation policies exist. New returns an ordinary array; NewAligned
// returns an array whose first element is always placed on the requested
// byte boundary, which matrix stacks rely on. Aligned arrays are restricted to
// pointer-free element types.
//
// Array is NOT safe for concurrent use.
package darray

import (
	"errors"
	"math"
	"math/bits"
	"unsafe"
)

// ErrOverflow is returned when the array cannot grow any further.
var ErrOverflow = errors.New("darray: capacity overflow")

// initialCapacity is the capacity reserved on the first push.
const initialCapacity = 8

// maxAlign bounds the alignment of aligned arrays so that the padding can be
// accounted for in the overflow check.
const maxAlign = 4096

// Array is a growable sequence of fixed-size elements.
//
// The zero value is an empty ordinary array ready to use.
type Array[T any] struct {
	data  []T // len(data) is the reserved capacity
	count int

	// align is 0 for ordinary arrays.
	align uintptr
	// raw keeps the over-allocated backing store of aligned arrays alive.
	raw []byte
}

// New returns an empty ordinary array.
func New[T any]() Array[T] {
	return Array[T]{}
}

// NewAligned returns an empty array whose storage starts on an align-byte
// boundary. align must be a power of two.
func NewAligned[T any](align int) Array[T] {
	if align <= 0 || align&(align-1) != 0 || align > maxAlign {
		panic("darray: alignment must be a power of two up to 4096")
	}
	return Array[T]{align: uintptr(align)}
}

// Aligned reports the alignment guarantee of the array, 0 for ordinary arrays.
func (a *Array[T]) Aligned() int {
	return int(a.align)
}

// Count returns the number of elements.
func (a *Array[T]) Count() int {
	return a.count
}

// Cap returns the reserved capacity.
func (a *Array[T]) Cap() int {
	return len(a.data)
}

// Data returns the elements as a slice sharing the array storage.
// The slice is invalidated by the next growth.
func (a *Array[T]) Data() []T {
	return a.data[:a.count]
}

// nextCapacity computes the capacity following capacity for elements of
// elemSize bytes.
func nextCapacity(capacity int, elemSize uintptr) (int, error) {
	next := initialCapacity
	if capacity > 0 {
		if capacity > math.MaxInt/2 {
			return 0, ErrOverflow
		}
		next = capacity * 2
	}
	hi, lo := bits.Mul64(uint64(next), uint64(elemSize))
	if hi != 0 || lo > math.MaxInt-maxAlign {
		return 0, ErrOverflow
	}
	return next, nil
}

func (a *Array[T]) reserve(capacity int) {
	if capacity <= len(a.data) {
		return
	}
	if a.align == 0 {
		data := make([]T, capacity)
		copy(data, a.data[:a.count])
		a.data = data
		return
	}
	a.reserveAligned(capacity)
}

// reserveAligned over-allocates a byte store and places the elements on the
// first aligned address inside it. Only pointer-free element types may use
// aligned arrays: the byte store is not scanned by the garbage collector.
func (a *Array[T]) reserveAligned(capacity int) {
	var zero T
	size := unsafe.Sizeof(zero)
	if size == 0 {
		a.data = make([]T, capacity)
		return
	}
	raw := make([]byte, uintptr(capacity)*size+a.align)
	off := (a.align - uintptr(unsafe.Pointer(&raw[0]))%a.align) % a.align
	data := unsafe.Slice((*T)(unsafe.Pointer(&raw[off])), capacity)
	copy(data, a.data[:a.count])
	a.raw = raw
	a.data = data
}

// Push appends v and returns a pointer to the stored element.
// The pointer is invalidated by the next growth.
func (a *Array[T]) Push(v T) (*T, error) {
	if a.count >= len(a.data) {
		var zero T
		capacity, err := nextCapacity(len(a.data), unsafe.Sizeof(zero))
		if err != nil {
			return nil, err
		}
		a.reserve(capacity)
	}
	a.data[a.count] = v
	a.count++
	return &a.data[a.count-1], nil
}

// PushZero appends a zero element and returns a pointer to it.
func (a *Array[T]) PushZero() (*T, error) {
	var zero T
	return a.Push(zero)
}

// Tail returns the last element, or nil if the array is empty.
func (a *Array[T]) Tail() *T {
	if a.count <= 0 {
		return nil
	}
	return &a.data[a.count-1]
}

// Pop removes the last element and returns it, or nil if the array is empty.
// The returned pointer stays valid until the next Push.
func (a *Array[T]) Pop() *T {
	e := a.Tail()
	if a.count > 0 {
		a.count--
	}
	return e
}

// Get returns the element at index. It panics if index is out of range.
func (a *Array[T]) Get(index int) *T {
	if index < 0 || index >= a.count {
		panic("darray: index out of range")
	}
	return &a.data[index]
}

// Remove deletes the element at index.
func (a *Array[T]) Remove(index int) {
	a.RemoveRange(index, 1)
}

// RemoveRange deletes count elements starting at index, shifting the tail
// down. It panics if the range is not within the array.
func (a *Array[T]) RemoveRange(index, count int) {
	if index < 0 || count < 0 || index > a.count-count {
		panic("darray: remove range out of bounds")
	}
	copy(a.data[index:], a.data[index+count:a.count])
	var zero T
	for i := a.count - count; i < a.count; i++ {
		a.data[i] = zero
	}
	a.count -= count
}

// Clear drops all elements but keeps the storage.
func (a *Array[T]) Clear() {
	var zero T
	for i := 0; i < a.count; i++ {
		a.data[i] = zero
	}
	a.count = 0
}

// Reset releases the storage. The array keeps its allocation policy and can
// be reused.
func (a *Array[T]) Reset() {
	align := a.align
	*a = Array[T]{align: align}
}
