package ngl

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/ngl/internal/gpu"
	"github.com/gogpu/ngl/internal/types"
)

// buffer is an array of elements uploaded to a GPU vertex buffer. Its values
// are also read by blocks declaring it as an array field.
type buffer struct {
	data hostData

	gpu    *gpu.Buffer
	gpuGen uint64 // data generation held by gpu
}

func (b *buffer) ClassName() string {
	switch b.data.typ {
	case types.F32:
		return "BufferFloat"
	case types.Vec2:
		return "BufferVec2"
	case types.Vec3:
		return "BufferVec3"
	case types.Vec4:
		return "BufferVec4"
	}
	return "Buffer"
}

func (b *buffer) hostData() *hostData { return &b.data }

func newBuffer(t types.Type, values []float32) *Node {
	b := &buffer{data: hostData{typ: t}}
	b.data.set(values)
	return NewNode(b)
}

// BufferFloat returns a buffer of floats.
func BufferFloat(data ...float32) *Node {
	return newBuffer(types.F32, data)
}

// BufferVec2 returns a buffer of vec2.
func BufferVec2(data ...mgl32.Vec2) *Node {
	values := make([]float32, 0, len(data)*2)
	for _, v := range data {
		values = append(values, v[:]...)
	}
	return newBuffer(types.Vec2, values)
}

// BufferVec3 returns a buffer of vec3.
func BufferVec3(data ...mgl32.Vec3) *Node {
	values := make([]float32, 0, len(data)*3)
	for _, v := range data {
		values = append(values, v[:]...)
	}
	return newBuffer(types.Vec3, values)
}

// BufferVec4 returns a buffer of vec4.
func BufferVec4(data ...mgl32.Vec4) *Node {
	values := make([]float32, 0, len(data)*4)
	for _, v := range data {
		values = append(values, v[:]...)
	}
	return newBuffer(types.Vec4, values)
}

func (b *buffer) Init(_ *Context, n *Node) error {
	if b.data.count() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidArg, n)
	}
	return nil
}

func (b *buffer) Prefetch(ctx *Context, n *Node) error {
	return b.upload(ctx, n)
}

func (b *buffer) Update(ctx *Context, n *Node, _ float64) error {
	if b.gpuGen == b.data.gen {
		return nil
	}
	return b.upload(ctx, n)
}

// upload writes the values, growing the GPU buffer if needed.
func (b *buffer) upload(ctx *Context, n *Node) error {
	data := b.data.bytes()
	if len(data) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidArg, n)
	}
	if b.gpu == nil || b.gpu.Size() < uint64(len(data)) {
		ctx.gpu.DestroyBuffer(b.gpu)
		buf, err := ctx.gpu.CreateBuffer(n.String(), gpu.BufferVertex, uint64(len(data)))
		if err != nil {
			b.gpu = nil
			return graphicsError(err)
		}
		b.gpu = buf
	}
	if err := ctx.gpu.WriteBuffer(b.gpu, 0, data); err != nil {
		return graphicsError(err)
	}
	b.gpuGen = b.data.gen
	return nil
}

func (b *buffer) Release(ctx *Context, _ *Node) {
	ctx.gpu.DestroyBuffer(b.gpu)
	b.gpu = nil
	b.gpuGen = 0
}
