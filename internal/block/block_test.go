package block

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ngl/internal/types"
)

type fieldDecl struct {
	name  string
	typ   types.Type
	count int
}

type fieldLayout struct {
	offset, size, stride int
}

func buildBlock(t *testing.T, layout Layout, decls []fieldDecl) *Block {
	t.Helper()
	var b Block
	b.Init(layout)
	for _, d := range decls {
		require.NoError(t, b.AddField(d.name, d.typ, d.count), "AddField(%s)", d.name)
	}
	return &b
}

func TestBlock_Layouts(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		decls  []fieldDecl
		want   []fieldLayout
		size   int
	}{
		{
			name:   "std140 vec3 float vec4",
			layout: Std140,
			decls:  []fieldDecl{{"a", types.Vec3, 0}, {"b", types.F32, 0}, {"c", types.Vec4, 0}},
			want:   []fieldLayout{{0, 12, 0}, {12, 4, 0}, {16, 16, 0}},
			size:   32,
		},
		{
			name:   "std430 vec3 float vec4",
			layout: Std430,
			decls:  []fieldDecl{{"a", types.Vec3, 0}, {"b", types.F32, 0}, {"c", types.Vec4, 0}},
			want:   []fieldLayout{{0, 12, 0}, {12, 4, 0}, {16, 16, 0}},
			size:   32,
		},
		{
			name:   "std140 float array padded to vec4",
			layout: Std140,
			decls:  []fieldDecl{{"x", types.F32, 0}, {"arr", types.F32, 3}},
			want:   []fieldLayout{{0, 4, 0}, {16, 48, 16}},
			size:   64,
		},
		{
			name:   "std430 float array packed",
			layout: Std430,
			decls:  []fieldDecl{{"x", types.F32, 0}, {"arr", types.F32, 3}},
			want:   []fieldLayout{{0, 4, 0}, {4, 12, 4}},
			size:   16,
		},
		{
			name:   "std140 vec2 array",
			layout: Std140,
			decls:  []fieldDecl{{"v", types.Vec2, 2}, {"s", types.F32, 0}},
			want:   []fieldLayout{{0, 32, 16}, {32, 4, 0}},
			size:   36,
		},
		{
			name:   "std430 vec2 array",
			layout: Std430,
			decls:  []fieldDecl{{"v", types.Vec2, 2}, {"s", types.F32, 0}},
			want:   []fieldLayout{{0, 16, 8}, {16, 4, 0}},
			size:   20,
		},
		{
			name:   "vec3 array keeps vec4 stride in std430",
			layout: Std430,
			decls:  []fieldDecl{{"p", types.Vec3, 2}},
			want:   []fieldLayout{{0, 32, 16}},
			size:   32,
		},
		{
			name:   "std140 float then vec2",
			layout: Std140,
			decls:  []fieldDecl{{"f", types.F32, 0}, {"v", types.Vec2, 0}},
			want:   []fieldLayout{{0, 4, 0}, {8, 8, 0}},
			size:   16,
		},
		{
			name:   "std140 mat3 and mat4",
			layout: Std140,
			decls:  []fieldDecl{{"f", types.F32, 0}, {"m3", types.Mat3, 0}, {"m4", types.Mat4, 0}},
			want:   []fieldLayout{{0, 4, 0}, {16, 48, 0}, {64, 64, 0}},
			size:   128,
		},
		{
			name:   "std430 mat4 array",
			layout: Std430,
			decls:  []fieldDecl{{"m", types.Mat4, 2}},
			want:   []fieldLayout{{0, 128, 64}},
			size:   128,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := buildBlock(t, tt.layout, tt.decls)
			fields := b.Fields.Data()
			require.Len(t, fields, len(tt.want))
			for i, w := range tt.want {
				assert.Equal(t, w.offset, fields[i].Offset, "offset of %s", fields[i].Name)
				assert.Equal(t, w.size, fields[i].Size, "size of %s", fields[i].Name)
				assert.Equal(t, w.stride, fields[i].Stride, "stride of %s", fields[i].Name)
			}
			assert.Equal(t, tt.size, b.Size)
		})
	}
}

func TestBlock_OffsetsMonotonic(t *testing.T) {
	all := []types.Type{types.F32, types.Vec3, types.I32, types.Vec2, types.Mat3, types.UVec4, types.Bool, types.Mat4}
	for _, layout := range []Layout{Std140, Std430} {
		var b Block
		b.Init(layout)
		for i, typ := range all {
			require.NoError(t, b.AddField(typ.String(), typ, i%2))
		}
		prev := 0
		for _, f := range b.Fields.Data() {
			assert.GreaterOrEqual(t, f.Offset, prev, "%s: %s", layout, f.Name)
			assert.Zero(t, f.Offset%baseAlign(f.Type), "%s: %s misaligned", layout, f.Name)
			prev = f.Offset + f.Size
		}
	}
}

// =============================================================================
// Variadic fields
// =============================================================================

func TestBlock_Variadic(t *testing.T) {
	b := buildBlock(t, Std430, []fieldDecl{
		{"color", types.Vec4, 0},
		{"points", types.Vec3, VariadicCount},
	})

	f, ok := b.Field("points")
	require.True(t, ok)
	assert.True(t, f.IsVariadic())
	assert.Equal(t, 16, f.Offset)
	assert.Equal(t, 16, f.Stride)
	assert.Equal(t, 16, b.Size)

	assert.Equal(t, 64, b.GetSize(3))
	assert.Equal(t, 64, b.GetSize(3), "GetSize must be idempotent")
	assert.Equal(t, 16, b.GetSize(0))
}

func TestBlock_FieldAfterVariadic(t *testing.T) {
	var b Block
	b.Init(Std140)
	require.NoError(t, b.AddField("v", types.Vec4, VariadicCount))
	err := b.AddField("x", types.F32, 0)
	assert.ErrorIs(t, err, ErrFieldAfterVariadic)
	assert.Equal(t, 1, b.Fields.Count())
}

func TestBlock_InvalidFields(t *testing.T) {
	var b Block
	b.Init(Std140)
	assert.ErrorIs(t, b.AddField("s", types.Sampler2D, 0), ErrInvalidField)
	assert.ErrorIs(t, b.AddField("n", types.F32, -5), ErrInvalidField)

	var unknown Block
	assert.ErrorIs(t, unknown.AddField("f", types.F32, 0), ErrInvalidField)
}

// =============================================================================
// Field copy
// =============================================================================

func floats(vals ...float32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func floatAt(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestField_CopyPaddedArray(t *testing.T) {
	b := buildBlock(t, Std140, []fieldDecl{{"x", types.F32, 0}, {"arr", types.F32, 3}})
	dst := make([]byte, b.Size)
	f, _ := b.Field("arr")
	require.NoError(t, f.Copy(dst, floats(1, 2, 3)))

	assert.Equal(t, float32(1), floatAt(dst, 16))
	assert.Equal(t, float32(2), floatAt(dst, 32))
	assert.Equal(t, float32(3), floatAt(dst, 48))
	assert.Equal(t, float32(0), floatAt(dst, 20), "padding must stay untouched")
}

func TestField_CopyMat3(t *testing.T) {
	b := buildBlock(t, Std140, []fieldDecl{{"m", types.Mat3, 0}})
	dst := make([]byte, b.Size)
	f, _ := b.Field("m")
	require.NoError(t, f.Copy(dst, floats(1, 2, 3, 4, 5, 6, 7, 8, 9)))

	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			want := float32(col*3 + row + 1)
			assert.Equal(t, want, floatAt(dst, col*16+row*4), "m[%d][%d]", col, row)
		}
	}
}

func TestField_CopyVariadic(t *testing.T) {
	b := buildBlock(t, Std430, []fieldDecl{{"n", types.I32, 0}, {"p", types.Vec3, VariadicCount}})
	dst := make([]byte, b.GetSize(2))
	f, _ := b.Field("p")
	require.NoError(t, f.Copy(dst, floats(1, 2, 3, 4, 5, 6)))

	assert.Equal(t, float32(4), floatAt(dst, 32))
	assert.Equal(t, float32(6), floatAt(dst, 40))

	// Three elements do not fit a block sized for two.
	assert.ErrorIs(t, f.Copy(dst, floats(1, 2, 3, 4, 5, 6, 7, 8, 9)), ErrShortBuffer)
}

func TestField_CopyShortSource(t *testing.T) {
	b := buildBlock(t, Std140, []fieldDecl{{"c", types.Vec4, 0}})
	dst := make([]byte, b.Size)
	f, _ := b.Field("c")
	assert.ErrorIs(t, f.Copy(dst, floats(1, 2)), ErrShortBuffer)
	assert.ErrorIs(t, f.Copy(dst[:8], floats(1, 2, 3, 4)), ErrShortBuffer)
}
