// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package block computes the memory layout of GPU-visible structured blocks.
//
// A Block is an ordered list of named fields packed according to one of the
// two GLSL buffer layouts, std140 (uniform blocks) and std430 (storage
// blocks). The computed offsets and strides are bit-exact with what a shader
// declaring the same block expects, so host data copied with Field.Copy is
// read correctly on the GPU side.
//
// The last field may be variadic: an array whose length is only known when
// the block data is allocated, as with a runtime-sized storage array.
//
//	var b block.Block
//	b.Init(block.Std430)
//	_ = b.AddField("color", types.Vec4, 0)
//	_ = b.AddField("points", types.Vec3, block.VariadicCount)
//	size := b.GetSize(128) // bytes needed for 128 points
package block

import (
	"errors"
	"fmt"

	"github.com/gogpu/ngl/internal/darray"
	"github.com/gogpu/ngl/internal/types"
)

// Errors returned by the layout engine.
var (
	// ErrFieldAfterVariadic is returned when a field is declared after a
	// variadic field.
	ErrFieldAfterVariadic = errors.New("block: field declared after a variadic field")

	// ErrInvalidField is returned for an unsupported type or count.
	ErrInvalidField = errors.New("block: invalid field")

	// ErrShortBuffer is returned when a copy would overrun a buffer.
	ErrShortBuffer = errors.New("block: buffer too small")
)

// VariadicCount declares a trailing array of unknown length.
const VariadicCount = -1

// Layout is a buffer memory layout rule.
type Layout int

// Supported layouts.
const (
	LayoutUnknown Layout = iota
	Std140
	Std430
)

// String returns the GLSL name of the layout.
func (l Layout) String() string {
	switch l {
	case Std140:
		return "std140"
	case Std430:
		return "std430"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// Field is one member of a block.
type Field struct {
	Name  string
	Type  types.Type
	Count int // 0 for a non-array field, VariadicCount for a variadic array

	Offset int // byte offset from the start of the block
	Size   int // byte size, 0 elements counted for variadic fields
	Stride int // byte distance between two array elements, 0 for non-arrays
}

// IsVariadic reports whether the field is a variadic array.
func (f *Field) IsVariadic() bool {
	return f.Count == VariadicCount
}

// Block is a structured memory region description.
type Block struct {
	Layout Layout
	Fields darray.Array[Field]
	Size   int
}

// Init resets s and sets its layout.
func (s *Block) Init(layout Layout) {
	s.Reset()
	s.Layout = layout
}

// Reset clears the fields and size.
func (s *Block) Reset() {
	s.Fields.Reset()
	s.Size = 0
	s.Layout = LayoutUnknown
}

// vec4Align is the base alignment of a vec4.
const vec4Align = 16

func alignUp(v, a int) int {
	return (v + a - 1) &^ (a - 1)
}

// baseAlign returns the base alignment of a single (non-array) element.
func baseAlign(t types.Type) int {
	switch t {
	case types.IVec2, types.UVec2, types.Vec2:
		return 8
	case types.IVec3, types.UVec3, types.Vec3,
		types.IVec4, types.UVec4, types.Vec4,
		types.Mat3, types.Mat4:
		return vec4Align
	}
	return 4
}

// elemSize returns the device size of a single element. Matrices are stored
// as arrays of vec4-aligned columns.
func elemSize(t types.Type) int {
	if t.IsMatrix() {
		return t.Columns() * vec4Align
	}
	return t.Size()
}

func fieldAlign(layout Layout, t types.Type, count int) int {
	a := baseAlign(t)
	if count != 0 && layout == Std140 && a < vec4Align {
		a = vec4Align
	}
	return a
}

func fieldStride(layout Layout, t types.Type, count int) int {
	if count == 0 {
		return 0
	}
	if t.IsMatrix() {
		return elemSize(t)
	}
	if layout == Std140 {
		return alignUp(elemSize(t), vec4Align)
	}
	return alignUp(elemSize(t), baseAlign(t))
}

func fieldSize(t types.Type, count, stride int) int {
	switch {
	case count == 0:
		return elemSize(t)
	case count == VariadicCount:
		return 0
	}
	return count * stride
}

// AddField appends a field and updates the block size.
func (s *Block) AddField(name string, t types.Type, count int) error {
	if s.Layout != Std140 && s.Layout != Std430 {
		return fmt.Errorf("%w: unknown layout %s", ErrInvalidField, s.Layout)
	}
	if t.Components() == 0 {
		return fmt.Errorf("%w: %q has unsupported type %s", ErrInvalidField, name, t)
	}
	if count < VariadicCount {
		return fmt.Errorf("%w: %q has count %d", ErrInvalidField, name, count)
	}
	if last := s.Fields.Tail(); last != nil && last.IsVariadic() {
		return fmt.Errorf("%w: %q follows %q", ErrFieldAfterVariadic, name, last.Name)
	}

	stride := fieldStride(s.Layout, t, count)
	f := Field{
		Name:   name,
		Type:   t,
		Count:  count,
		Offset: alignUp(s.Size, fieldAlign(s.Layout, t, count)),
		Stride: stride,
		Size:   fieldSize(t, count, stride),
	}
	if _, err := s.Fields.Push(f); err != nil {
		return err
	}
	s.Size = f.Offset + f.Size
	return nil
}

// GetSize returns the block size when the variadic field, if any, holds
// variadicCount elements.
func (s *Block) GetSize(variadicCount int) int {
	last := s.Fields.Tail()
	if last == nil || !last.IsVariadic() || variadicCount <= 0 {
		return s.Size
	}
	return last.Offset + last.Stride*variadicCount
}

// Field returns the field named name.
func (s *Block) Field(name string) (*Field, bool) {
	fields := s.Fields.Data()
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i], true
		}
	}
	return nil, false
}

// Copy writes src, tightly packed host data for the field, into the block
// data dst at the field's offset. For arrays, len(src) selects how many
// elements are copied; a variadic field accepts any count that fits dst.
func (f *Field) Copy(dst, src []byte) error {
	srcElem := f.Type.Size()
	if srcElem == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidField, f.Type)
	}

	count := f.Count
	if count == 0 {
		count = 1
	}
	if f.IsVariadic() {
		count = len(src) / srcElem
	}
	if len(src) < count*srcElem {
		return fmt.Errorf("%w: %q needs %d source bytes, got %d",
			ErrShortBuffer, f.Name, count*srcElem, len(src))
	}

	dstStride := f.Stride
	if dstStride == 0 {
		dstStride = elemSize(f.Type)
	}
	if count > 0 && len(dst) < f.Offset+(count-1)*dstStride+elemSize(f.Type) {
		return fmt.Errorf("%w: %q needs %d destination bytes, got %d",
			ErrShortBuffer, f.Name, f.Offset+(count-1)*dstStride+elemSize(f.Type), len(dst))
	}

	if !f.Type.IsMatrix() && dstStride == srcElem {
		copy(dst[f.Offset:], src[:count*srcElem])
		return nil
	}

	// Columns (matrices) or elements (padded arrays) are copied one by one.
	cols := f.Type.Columns()
	for i := 0; i < count; i++ {
		d := dst[f.Offset+i*dstStride:]
		s := src[i*srcElem : (i+1)*srcElem]
		if cols == 0 {
			copy(d, s)
			continue
		}
		colSize := srcElem / cols
		for c := 0; c < cols; c++ {
			copy(d[c*vec4Align:], s[c*colSize:(c+1)*colSize])
		}
	}
	return nil
}
