package ngl

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/ngl/internal/block"
	"github.com/gogpu/ngl/internal/gpu"
	"github.com/gogpu/ngl/internal/rnode"
	"github.com/gogpu/ngl/internal/types"
)

// Reserved bindings and vertex locations.
const (
	builtinSlot      = 0
	positionLocation = 0
	uvLocation       = 1
)

// bindable is implemented by classes that can be bound to a program slot.
// The generation changes whenever the underlying GPU object is replaced.
type bindable interface {
	bindingKind() gpu.BindingKind
	resource() (gpu.Resource, uint64)
}

// DrawOption configures a Draw.
type DrawOption func(*drawNode)

// WithResource binds a Block or a Texture2D at slot of bind group 0. A
// texture also takes slot+1 for its sampler.
func WithResource(slot uint32, n *Node) DrawOption {
	return func(d *drawNode) {
		d.resources = append(d.resources, drawResource{slot: slot, node: n})
	}
}

// WithAttribute reads the vertex input at location from a buffer with one
// element per drawn vertex.
func WithAttribute(location uint32, n *Node) DrawOption {
	return func(d *drawNode) {
		d.attributes = append(d.attributes, drawAttribute{location: location, node: n})
	}
}

type drawResource struct {
	slot uint32
	node *Node
}

type drawAttribute struct {
	location uint32
	node     *Node
}

// drawNode renders a geometry with a program. The graph node can be reached
// through several render-tree positions; each one is an occurrence with its
// own pipeline, matching the graphics state of the position.
type drawNode struct {
	geometry   *Node
	program    *Node
	resources  []drawResource
	attributes []drawAttribute

	builtins    block.Block
	occurrences []*drawOccurrence
	prepareGen  uint64
}

type drawOccurrence struct {
	state rnode.State

	pipeline  *gpu.Pipeline
	uniforms  *gpu.Buffer
	bindGroup *gpu.BindGroup
	boundGens []uint64
}

func (*drawNode) ClassName() string { return "Draw" }

// Draw returns a node drawing geometry with program, transformed by the
// current modelview and projection matrices.
func Draw(geometry, program *Node, opts ...DrawOption) *Node {
	d := &drawNode{geometry: geometry, program: program}
	for _, opt := range opts {
		opt(d)
	}
	n := NewNode(d).link(geometry, program)
	for _, r := range d.resources {
		n.link(r.node)
	}
	for _, a := range d.attributes {
		n.link(a.node)
	}
	return n
}

func (d *drawNode) Init(_ *Context, n *Node) error {
	if _, ok := d.geometry.behavior.(*geometry); !ok {
		return fmt.Errorf("%w: %s geometry is a %s", ErrInvalidArg, n, d.geometry.ClassName())
	}
	if _, ok := d.program.behavior.(*program); !ok {
		return fmt.Errorf("%w: %s program is a %s", ErrInvalidArg, n, d.program.ClassName())
	}

	used := map[uint32]bool{builtinSlot: true}
	for _, r := range d.resources {
		b, ok := r.node.behavior.(bindable)
		if !ok {
			return fmt.Errorf("%w: %s cannot be bound", ErrInvalidArg, r.node)
		}
		slots := []uint32{r.slot}
		if b.bindingKind() == gpu.BindingTexture {
			slots = append(slots, r.slot+1)
		}
		for _, s := range slots {
			if used[s] {
				return fmt.Errorf("%w: %s binding slot %d is already used", ErrInvalidArg, n, s)
			}
			used[s] = true
		}
	}

	locations := map[uint32]bool{positionLocation: true, uvLocation: true}
	for _, a := range d.attributes {
		b, ok := a.node.behavior.(*buffer)
		if !ok {
			return fmt.Errorf("%w: attribute %d of %s is not a buffer", ErrInvalidArg, a.location, n)
		}
		if _, ok := b.data.typ.VertexFormat(); !ok {
			return fmt.Errorf("%w: %s is not a vertex format", ErrInvalidArg, b.data.typ)
		}
		if locations[a.location] {
			return fmt.Errorf("%w: %s vertex location %d is already used", ErrInvalidArg, n, a.location)
		}
		locations[a.location] = true
	}

	d.builtins.Init(block.Std140)
	if err := d.builtins.AddField("modelview", types.Mat4, 0); err != nil {
		return err
	}
	return d.builtins.AddField("projection", types.Mat4, 0)
}

// Prepare records one occurrence per render-tree position reaching the node.
func (d *drawNode) Prepare(ctx *Context, n *Node) error {
	if d.prepareGen != ctx.prepareGen {
		d.releaseOccurrences(ctx)
		d.occurrences = d.occurrences[:0]
		d.prepareGen = ctx.prepareGen
	}
	pos := ctx.rnodePos
	if pos.ID >= 0 {
		return fmt.Errorf("%w: %s shares its render position with another draw; use a Group",
			ErrInvalidUsage, n)
	}
	pos.ID = len(d.occurrences)
	d.occurrences = append(d.occurrences, &drawOccurrence{state: pos.State})
	return nil
}

// checkAttributes requires one attribute element per geometry vertex.
func (d *drawNode) checkAttributes(n *Node) error {
	count := d.geometry.behavior.(*geometry).count
	for _, a := range d.attributes {
		if c := a.node.behavior.(*buffer).data.count(); c != count {
			return fmt.Errorf("%w: attribute %d of %s has %d elements for %d vertices",
				ErrInvalidArg, a.location, n, c, count)
		}
	}
	return nil
}

func (d *drawNode) Prefetch(ctx *Context, n *Node) error {
	if err := d.checkAttributes(n); err != nil {
		return err
	}
	for _, occ := range d.occurrences {
		if err := d.ensurePipeline(ctx, n, occ); err != nil {
			d.releaseOccurrences(ctx)
			return err
		}
	}
	return nil
}

func (d *drawNode) ensurePipeline(ctx *Context, n *Node, occ *drawOccurrence) error {
	if occ.pipeline != nil {
		return nil
	}
	prog := d.program.behavior.(*program)

	attrs := []gpu.VertexAttribute{
		{Location: positionLocation, Format: mustVertexFormat(types.Vec3), Stride: uint64(types.Vec3.Size())},
		{Location: uvLocation, Format: mustVertexFormat(types.Vec2), Stride: uint64(types.Vec2.Size())},
	}
	for _, a := range d.attributes {
		typ := a.node.behavior.(*buffer).data.typ
		attrs = append(attrs, gpu.VertexAttribute{
			Location: a.location, Format: mustVertexFormat(typ), Stride: uint64(typ.Size()),
		})
	}
	bindings := []gpu.Binding{{Slot: builtinSlot, Kind: gpu.BindingUniform}}
	for _, r := range d.resources {
		bindings = append(bindings, gpu.Binding{
			Slot: r.slot, Kind: r.node.behavior.(bindable).bindingKind(),
		})
	}

	pipeline, err := ctx.gpu.CreatePipeline(&gpu.PipelineDescriptor{
		Label:      n.String(),
		Vertex:     prog.vs,
		Fragment:   prog.fs,
		Attributes: attrs,
		Bindings:   bindings,
		State:      occ.state,
	})
	if err != nil {
		return graphicsError(err)
	}
	uniforms, err := ctx.gpu.CreateBuffer(n.String()+"_builtins", gpu.BufferUniform, uint64(d.builtins.Size))
	if err != nil {
		ctx.gpu.DestroyPipeline(pipeline)
		return graphicsError(err)
	}
	occ.pipeline, occ.uniforms = pipeline, uniforms
	return nil
}

func mustVertexFormat(t types.Type) gputypes.VertexFormat {
	f, ok := t.VertexFormat()
	if !ok {
		panic("ngl: " + t.String() + " is not a vertex format")
	}
	return f
}

// ensureBindGroup rebuilds the bind group when a bound resource changed.
func (d *drawNode) ensureBindGroup(ctx *Context, occ *drawOccurrence) error {
	resources := make([]gpu.Resource, 0, len(d.resources)+1)
	resources = append(resources, gpu.Resource{Slot: builtinSlot, Buffer: occ.uniforms})
	gens := make([]uint64, 0, len(d.resources))
	for _, r := range d.resources {
		res, gen := r.node.behavior.(bindable).resource()
		res.Slot = r.slot
		resources = append(resources, res)
		gens = append(gens, gen)
	}
	if occ.bindGroup != nil && equalGens(gens, occ.boundGens) {
		return nil
	}

	ctx.gpu.DestroyBindGroup(occ.bindGroup)
	occ.bindGroup = nil
	bg, err := ctx.gpu.CreateBindGroup(occ.pipeline, resources)
	if err != nil {
		return graphicsError(err)
	}
	occ.bindGroup = bg
	occ.boundGens = gens
	return nil
}

func equalGens(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (d *drawNode) Draw(ctx *Context, n *Node) error {
	pos := ctx.rnodePos
	if pos.ID < 0 || pos.ID >= len(d.occurrences) {
		return fmt.Errorf("%w: %s was not prepared at this position", ErrInvalidUsage, n)
	}
	// Attributes may have been resized since prefetch.
	if err := d.checkAttributes(n); err != nil {
		return err
	}
	occ := d.occurrences[pos.ID]
	if err := d.ensurePipeline(ctx, n, occ); err != nil {
		return err
	}
	if err := d.writeBuiltins(ctx, occ); err != nil {
		return err
	}
	if err := d.ensureBindGroup(ctx, occ); err != nil {
		return err
	}

	geom := d.geometry.behavior.(*geometry)
	vbufs := []*gpu.Buffer{geom.posBuf, geom.uvBuf}
	for _, a := range d.attributes {
		vbufs = append(vbufs, a.node.behavior.(*buffer).gpu)
	}
	err := ctx.gpu.Draw(&gpu.DrawCall{
		Pipeline:      occ.pipeline,
		BindGroup:     occ.bindGroup,
		VertexBuffers: vbufs,
		VertexCount:   uint32(geom.count),
	})
	if err != nil {
		return graphicsError(err)
	}
	return nil
}

// writeBuiltins uploads the current matrices of the occurrence.
func (d *drawNode) writeBuiltins(ctx *Context, occ *drawOccurrence) error {
	data := make([]byte, d.builtins.Size)
	for name, m := range map[string]mgl32.Mat4{
		"modelview":  ctx.Modelview(),
		"projection": ctx.Projection(),
	} {
		f, _ := d.builtins.Field(name)
		if err := f.Copy(data, matrixBytes(m)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArg, err)
		}
	}
	if err := ctx.gpu.WriteBuffer(occ.uniforms, 0, data); err != nil {
		return graphicsError(err)
	}
	return nil
}

func matrixBytes(m mgl32.Mat4) []byte {
	b := make([]byte, len(m)*4)
	for i, v := range m {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func (d *drawNode) releaseOccurrences(ctx *Context) {
	for _, occ := range d.occurrences {
		if ctx.gpu != nil {
			ctx.gpu.DestroyBindGroup(occ.bindGroup)
			ctx.gpu.DestroyBuffer(occ.uniforms)
			ctx.gpu.DestroyPipeline(occ.pipeline)
		}
		occ.bindGroup, occ.uniforms, occ.pipeline, occ.boundGens = nil, nil, nil, nil
	}
}

func (d *drawNode) Release(ctx *Context, _ *Node) {
	d.releaseOccurrences(ctx)
}

func (d *drawNode) Uninit(_ *Context, _ *Node) {
	d.occurrences = nil
	d.builtins.Reset()
}
