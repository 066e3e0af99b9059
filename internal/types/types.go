// Package types enumerates the data types that nodes can expose to shaders.
package types

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Type identifies a shader-visible data type.
type Type int

// Supported types.
const (
	None Type = iota
	I32
	IVec2
	IVec3
	IVec4
	U32
	UVec2
	UVec3
	UVec4
	F32
	Vec2
	Vec3
	Vec4
	Mat3
	Mat4
	Bool
	Sampler2D
	UniformBuffer
	StorageBuffer
	typeCount
)

var typeNames = [typeCount]string{
	None:          "none",
	I32:           "int",
	IVec2:         "ivec2",
	IVec3:         "ivec3",
	IVec4:         "ivec4",
	U32:           "uint",
	UVec2:         "uvec2",
	UVec3:         "uvec3",
	UVec4:         "uvec4",
	F32:           "float",
	Vec2:          "vec2",
	Vec3:          "vec3",
	Vec4:          "vec4",
	Mat3:          "mat3",
	Mat4:          "mat4",
	Bool:          "bool",
	Sampler2D:     "sampler2D",
	UniformBuffer: "uniform_buffer",
	StorageBuffer: "storage_buffer",
}

// String returns the GLSL-style name of the type.
func (t Type) String() string {
	if t < 0 || t >= typeCount {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	return t > None && t < typeCount
}

// Components returns the number of 4-byte scalars in one element of t as
// stored tightly packed on the host (mat3 is 9, mat4 is 16). Non-data types
// return 0.
func (t Type) Components() int {
	switch t {
	case I32, U32, F32, Bool:
		return 1
	case IVec2, UVec2, Vec2:
		return 2
	case IVec3, UVec3, Vec3:
		return 3
	case IVec4, UVec4, Vec4:
		return 4
	case Mat3:
		return 9
	case Mat4:
		return 16
	}
	return 0
}

// Size returns the host size of one tightly packed element in bytes.
func (t Type) Size() int {
	return t.Components() * 4
}

// IsMatrix reports whether t is a matrix type.
func (t Type) IsMatrix() bool {
	return t == Mat3 || t == Mat4
}

// Columns returns the number of columns of a matrix type, 0 otherwise.
func (t Type) Columns() int {
	switch t {
	case Mat3:
		return 3
	case Mat4:
		return 4
	}
	return 0
}

// VertexFormat returns the vertex attribute format for t.
// Only floating point scalar and vector types can be vertex attributes.
func (t Type) VertexFormat() (gputypes.VertexFormat, bool) {
	switch t {
	case F32:
		return gputypes.VertexFormatFloat32, true
	case Vec2:
		return gputypes.VertexFormatFloat32x2, true
	case Vec3:
		return gputypes.VertexFormatFloat32x3, true
	case Vec4:
		return gputypes.VertexFormatFloat32x4, true
	}
	return 0, false
}
