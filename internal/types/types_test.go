package types

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestType_Sizes(t *testing.T) {
	tests := []struct {
		typ        Type
		name       string
		components int
		columns    int
	}{
		{I32, "int", 1, 0},
		{UVec3, "uvec3", 3, 0},
		{Vec4, "vec4", 4, 0},
		{Mat3, "mat3", 9, 3},
		{Mat4, "mat4", 16, 4},
		{Sampler2D, "sampler2D", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.typ.Components(); got != tt.components {
				t.Errorf("Components() = %d, want %d", got, tt.components)
			}
			if got := tt.typ.Size(); got != tt.components*4 {
				t.Errorf("Size() = %d, want %d", got, tt.components*4)
			}
			if got := tt.typ.Columns(); got != tt.columns {
				t.Errorf("Columns() = %d, want %d", got, tt.columns)
			}
			if tt.typ.IsMatrix() != (tt.columns != 0) {
				t.Errorf("IsMatrix() = %v", tt.typ.IsMatrix())
			}
		})
	}
}

func TestType_Valid(t *testing.T) {
	if None.Valid() || typeCount.Valid() || Type(-1).Valid() {
		t.Error("out of range types reported valid")
	}
	if !F32.Valid() || !StorageBuffer.Valid() {
		t.Error("known types reported invalid")
	}
	if got := Type(99).String(); got != "Type(99)" {
		t.Errorf("String() = %q, want %q", got, "Type(99)")
	}
}

func TestType_VertexFormat(t *testing.T) {
	if f, ok := Vec3.VertexFormat(); !ok || f != gputypes.VertexFormatFloat32x3 {
		t.Errorf("Vec3.VertexFormat() = %v, %v", f, ok)
	}
	for _, typ := range []Type{I32, Mat4, Bool} {
		if _, ok := typ.VertexFormat(); ok {
			t.Errorf("%s.VertexFormat() ok, want not a vertex format", typ)
		}
	}
}
