package ngl

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/ngl/internal/types"
)

// hostData is the CPU copy of a variable or buffer: whole elements of typ,
// tightly packed. gen changes whenever the values change.
type hostData struct {
	typ    types.Type
	values []float32
	gen    uint64
}

// count returns the number of elements.
func (d *hostData) count() int {
	return len(d.values) / d.typ.Components()
}

func (d *hostData) set(values []float32) {
	d.values = append(d.values[:0], values...)
	d.gen++
}

// bytes encodes the values as the GPU reads them. Integer types are
// converted from their float representation.
func (d *hostData) bytes() []byte {
	b := make([]byte, len(d.values)*4)
	for i, v := range d.values {
		var bits uint32
		switch d.typ {
		case types.I32, types.IVec2, types.IVec3, types.IVec4:
			bits = uint32(int32(v))
		case types.U32, types.UVec2, types.UVec3, types.UVec4, types.Bool:
			bits = uint32(v)
		default:
			bits = math.Float32bits(v)
		}
		binary.LittleEndian.PutUint32(b[i*4:], bits)
	}
	return b
}

// hostDataHolder is implemented by classes carrying host values.
type hostDataHolder interface {
	hostData() *hostData
}

type variable struct {
	data      hostData
	keyframes []Keyframe
}

func (v *variable) ClassName() string {
	if v.keyframes != nil {
		return "AnimatedFloat"
	}
	switch v.data.typ {
	case types.F32:
		return "UniformFloat"
	case types.Vec2:
		return "UniformVec2"
	case types.Vec3:
		return "UniformVec3"
	case types.Vec4:
		return "UniformVec4"
	case types.Mat4:
		return "UniformMat4"
	case types.I32:
		return "UniformInt"
	}
	return "Uniform"
}

func (v *variable) hostData() *hostData { return &v.data }

func newVariable(t types.Type, values ...float32) *Node {
	v := &variable{data: hostData{typ: t}}
	v.data.set(values)
	return NewNode(v)
}

// UniformFloat returns a float variable.
func UniformFloat(v float32) *Node { return newVariable(types.F32, v) }

// UniformVec2 returns a vec2 variable.
func UniformVec2(v mgl32.Vec2) *Node { return newVariable(types.Vec2, v[:]...) }

// UniformVec3 returns a vec3 variable.
func UniformVec3(v mgl32.Vec3) *Node { return newVariable(types.Vec3, v[:]...) }

// UniformVec4 returns a vec4 variable.
func UniformVec4(v mgl32.Vec4) *Node { return newVariable(types.Vec4, v[:]...) }

// UniformMat4 returns a mat4 variable, column-major.
func UniformMat4(m mgl32.Mat4) *Node { return newVariable(types.Mat4, m[:]...) }

// UniformInt returns an int variable.
func UniformInt(v int32) *Node { return newVariable(types.I32, float32(v)) }

// AnimatedFloat returns a float variable evaluated from keyframes at every
// update by the context Evaluator. Keyframes must be sorted by time.
func AnimatedFloat(keyframes ...Keyframe) *Node {
	v := &variable{
		data:      hostData{typ: types.F32},
		keyframes: append([]Keyframe{}, keyframes...),
	}
	v.data.set([]float32{0})
	return NewNode(v)
}

func (v *variable) Init(_ *Context, _ *Node) error {
	if v.keyframes == nil {
		return nil
	}
	if len(v.keyframes) == 0 {
		return fmt.Errorf("%w: no keyframes", ErrInvalidArg)
	}
	if !sort.SliceIsSorted(v.keyframes, func(i, j int) bool {
		return v.keyframes[i].Time < v.keyframes[j].Time
	}) {
		return fmt.Errorf("%w: keyframes are not sorted by time", ErrInvalidArg)
	}
	return nil
}

func (v *variable) Update(ctx *Context, _ *Node, t float64) error {
	if v.keyframes == nil {
		return nil
	}
	value := float32(ctx.evaluator.Evaluate(v.keyframes, t))
	if value != v.data.values[0] {
		v.data.set([]float32{value})
	}
	return nil
}

// floatValue returns the value of a float variable node.
func floatValue(n *Node) (float32, bool) {
	v, ok := n.behavior.(*variable)
	if !ok || v.data.typ != types.F32 {
		return 0, false
	}
	return v.data.values[0], true
}

// SetVariable replaces the values of a variable or buffer node. A variable
// takes exactly one element, a buffer any number of whole elements. Matrices
// are column-major.
func (c *Context) SetVariable(n *Node, values ...float32) error {
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrInvalidArg)
	}
	return c.exec(func() error {
		if n.ctx != nil && n.ctx != c {
			return fmt.Errorf("%w: %s", ErrContextMismatch, n)
		}
		h, ok := n.behavior.(hostDataHolder)
		if !ok {
			return fmt.Errorf("%w: %s holds no values", ErrInvalidArg, n)
		}
		if v, ok := n.behavior.(*variable); ok && v.keyframes != nil {
			return fmt.Errorf("%w: %s is animated", ErrInvalidUsage, n)
		}
		d := h.hostData()
		comps := d.typ.Components()
		_, isVar := n.behavior.(*variable)
		switch {
		case isVar && len(values) != comps:
			return fmt.Errorf("%w: %s takes %d values, got %d", ErrInvalidArg, n, comps, len(values))
		case len(values)%comps != 0:
			return fmt.Errorf("%w: %s takes a multiple of %d values, got %d", ErrInvalidArg, n, comps, len(values))
		}
		d.set(values)
		invalidateUpdates(n, make(map[*Node]struct{}))
		return nil
	})
}
