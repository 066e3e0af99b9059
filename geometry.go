package ngl

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/ngl/internal/gpu"
	"github.com/gogpu/ngl/internal/types"
)

// geometry is a triangle list. Indexed geometries are expanded to a plain
// triangle list at init.
type geometry struct {
	name      string
	positions []mgl32.Vec3
	uvs       []mgl32.Vec2
	indices   []uint32

	// Expanded vertex data.
	posData []float32
	uvData  []float32
	count   int

	posBuf, uvBuf *gpu.Buffer
}

func (g *geometry) ClassName() string { return g.name }

// Geometry returns a triangle list. uvs may be nil; otherwise it has one
// entry per position. indices, if set, select the positions of each
// triangle.
func Geometry(positions []mgl32.Vec3, uvs []mgl32.Vec2, indices []uint32) *Node {
	return NewNode(&geometry{
		name:      "Geometry",
		positions: positions,
		uvs:       uvs,
		indices:   indices,
	})
}

// Quad returns the parallelogram spanned by width and height from corner.
// Texture coordinates run from (0, 0) at corner to (1, 1) at the opposite
// corner.
func Quad(corner, width, height mgl32.Vec3) *Node {
	return NewNode(&geometry{
		name: "Quad",
		positions: []mgl32.Vec3{
			corner,
			corner.Add(width),
			corner.Add(width).Add(height),
			corner.Add(height),
		},
		uvs:     []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		indices: []uint32{0, 1, 2, 0, 2, 3},
	})
}

// Triangle returns a single triangle.
func Triangle(p0, p1, p2 mgl32.Vec3) *Node {
	return NewNode(&geometry{
		name:      "Triangle",
		positions: []mgl32.Vec3{p0, p1, p2},
		uvs:       []mgl32.Vec2{{0, 0}, {1, 0}, {0.5, 1}},
	})
}

func (g *geometry) Init(_ *Context, n *Node) error {
	if len(g.positions) == 0 {
		return fmt.Errorf("%w: %s has no vertices", ErrInvalidArg, n)
	}
	if g.uvs != nil && len(g.uvs) != len(g.positions) {
		return fmt.Errorf("%w: %s has %d uvs for %d vertices", ErrInvalidArg, n, len(g.uvs), len(g.positions))
	}
	order := g.indices
	if order == nil {
		order = make([]uint32, len(g.positions))
		for i := range order {
			order[i] = uint32(i)
		}
	}
	if len(order)%3 != 0 {
		return fmt.Errorf("%w: %s has %d vertices, not a triangle list", ErrInvalidArg, n, len(order))
	}

	g.posData = make([]float32, 0, len(order)*3)
	g.uvData = make([]float32, 0, len(order)*2)
	for _, idx := range order {
		if int(idx) >= len(g.positions) {
			return fmt.Errorf("%w: %s index %d out of range", ErrInvalidArg, n, idx)
		}
		g.posData = append(g.posData, g.positions[idx][:]...)
		if g.uvs != nil {
			g.uvData = append(g.uvData, g.uvs[idx][:]...)
		} else {
			g.uvData = append(g.uvData, 0, 0)
		}
	}
	g.count = len(order)
	return nil
}

func (g *geometry) Prefetch(ctx *Context, n *Node) error {
	pos, err := uploadFloats(ctx, n.String()+"_positions", g.posData)
	if err != nil {
		return err
	}
	uv, err := uploadFloats(ctx, n.String()+"_uvs", g.uvData)
	if err != nil {
		ctx.gpu.DestroyBuffer(pos)
		return err
	}
	g.posBuf, g.uvBuf = pos, uv
	return nil
}

func (g *geometry) Release(ctx *Context, _ *Node) {
	ctx.gpu.DestroyBuffer(g.posBuf)
	ctx.gpu.DestroyBuffer(g.uvBuf)
	g.posBuf, g.uvBuf = nil, nil
}

func (g *geometry) Uninit(_ *Context, _ *Node) {
	g.posData, g.uvData, g.count = nil, nil, 0
}

func uploadFloats(ctx *Context, label string, values []float32) (*gpu.Buffer, error) {
	d := hostData{typ: types.F32, values: values}
	data := d.bytes()
	buf, err := ctx.gpu.CreateBuffer(label, gpu.BufferVertex, uint64(len(data)))
	if err != nil {
		return nil, graphicsError(err)
	}
	if err := ctx.gpu.WriteBuffer(buf, 0, data); err != nil {
		ctx.gpu.DestroyBuffer(buf)
		return nil, graphicsError(err)
	}
	return buf, nil
}
