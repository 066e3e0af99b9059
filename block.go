package ngl

import (
	"fmt"

	"github.com/gogpu/ngl/internal/block"
	"github.com/gogpu/ngl/internal/gpu"
)

// BlockLayout is the memory layout rule of a Block.
type BlockLayout = block.Layout

// Block layouts. A std140 block is bound as a uniform buffer, a std430 block
// as a storage buffer.
const (
	Std140 = block.Std140
	Std430 = block.Std430
)

// BlockField is a named member of a Block. Node is a variable, for a single
// value, or a buffer, for an array.
type BlockField struct {
	Name     string
	Node     *Node
	Variadic bool
}

// Field returns a block member named name holding the values of n.
func Field(name string, n *Node) BlockField {
	return BlockField{Name: name, Node: n}
}

// VariadicField returns a trailing array member whose length follows the
// element count of the buffer n.
func VariadicField(name string, n *Node) BlockField {
	return BlockField{Name: name, Node: n, Variadic: true}
}

// blockNode packs its fields into one GPU buffer with the layout engine.
type blockNode struct {
	layout block.Layout
	fields []BlockField

	desc      block.Block
	data      []byte
	fieldGens []uint64

	buf    *gpu.Buffer
	bufGen uint64 // bumped when buf is recreated
}

func (*blockNode) ClassName() string { return "Block" }

// Block returns a structured buffer made of fields, laid out with layout.
// Changing a field value re-uploads the block at the next update.
func Block(layout BlockLayout, fields ...BlockField) *Node {
	b := &blockNode{layout: layout, fields: append([]BlockField{}, fields...)}
	n := NewNode(b)
	for _, f := range fields {
		n.link(f.Node)
	}
	return n
}

func (b *blockNode) Init(_ *Context, n *Node) error {
	if len(b.fields) == 0 {
		return fmt.Errorf("%w: %s has no field", ErrInvalidArg, n)
	}
	b.desc.Init(b.layout)
	for _, f := range b.fields {
		h, ok := f.Node.behavior.(hostDataHolder)
		if !ok {
			return fmt.Errorf("%w: %s field %q holds no values", ErrInvalidArg, n, f.Name)
		}
		d := h.hostData()
		_, isBuffer := f.Node.behavior.(*buffer)
		count := 0
		switch {
		case f.Variadic && !isBuffer:
			return fmt.Errorf("%w: %s variadic field %q is not a buffer", ErrInvalidArg, n, f.Name)
		case f.Variadic:
			count = block.VariadicCount
		case isBuffer:
			count = d.count()
		}
		if err := b.desc.AddField(f.Name, d.typ, count); err != nil {
			b.desc.Reset()
			return fmt.Errorf("%w: %s: %w", ErrInvalidArg, n, err)
		}
	}
	return nil
}

func (b *blockNode) Uninit(_ *Context, _ *Node) {
	b.desc.Reset()
	b.data = nil
	b.fieldGens = nil
}

// variadicCount returns the element count of the variadic field, 0 if none.
func (b *blockNode) variadicCount() int {
	last := b.fields[len(b.fields)-1]
	if !last.Variadic {
		return 0
	}
	return last.Node.behavior.(hostDataHolder).hostData().count()
}

func (b *blockNode) kind() gpu.BufferKind {
	if b.layout == block.Std140 {
		return gpu.BufferUniform
	}
	return gpu.BufferStorage
}

func (b *blockNode) Prefetch(ctx *Context, n *Node) error {
	b.fieldGens = nil
	return b.upload(ctx, n)
}

func (b *blockNode) Update(ctx *Context, n *Node, t float64) error {
	if err := ctx.UpdateChildren(n, t); err != nil {
		return err
	}
	return b.upload(ctx, n)
}

// Block buffers are allocated in multiples of minBlockSize, at least one.
const minBlockSize = 16

// upload copies the changed fields and writes the block if anything changed.
func (b *blockNode) upload(ctx *Context, n *Node) error {
	size := b.desc.GetSize(b.variadicCount())
	if len(b.data) != size || b.fieldGens == nil {
		b.data = make([]byte, size)
		b.fieldGens = make([]uint64, len(b.fields))
	}

	dirty := false
	fields := b.desc.Fields.Data()
	for i, f := range b.fields {
		d := f.Node.behavior.(hostDataHolder).hostData()
		if b.fieldGens[i] == d.gen && d.gen != 0 {
			continue
		}
		if err := fields[i].Copy(b.data, fitField(&fields[i], d.bytes())); err != nil {
			return fmt.Errorf("%w: %s field %q: %w", ErrInvalidArg, n, f.Name, err)
		}
		b.fieldGens[i] = d.gen
		dirty = true
	}
	if !dirty && b.buf != nil {
		return nil
	}

	alloc := uint64(max(size, minBlockSize)+minBlockSize-1) &^ (minBlockSize - 1)
	if b.buf == nil || b.buf.Size() < alloc {
		ctx.gpu.DestroyBuffer(b.buf)
		buf, err := ctx.gpu.CreateBuffer(n.String(), b.kind(), alloc)
		if err != nil {
			b.buf = nil
			return graphicsError(err)
		}
		b.buf = buf
		b.bufGen++
	}
	if err := ctx.gpu.WriteBuffer(b.buf, 0, b.data); err != nil {
		return graphicsError(err)
	}
	return nil
}

// fitField pads or truncates src to the element count of a fixed array
// field, whose source buffer may have been resized since init.
func fitField(f *block.Field, src []byte) []byte {
	if f.IsVariadic() || f.Count == 0 {
		return src
	}
	want := f.Count * f.Type.Size()
	if len(src) >= want {
		return src[:want]
	}
	padded := make([]byte, want)
	copy(padded, src)
	return padded
}

func (b *blockNode) Release(ctx *Context, _ *Node) {
	ctx.gpu.DestroyBuffer(b.buf)
	b.buf = nil
	b.fieldGens = nil
}

func (b *blockNode) bindingKind() gpu.BindingKind {
	if b.layout == block.Std140 {
		return gpu.BindingUniform
	}
	return gpu.BindingStorage
}

func (b *blockNode) resource() (gpu.Resource, uint64) {
	return gpu.Resource{Buffer: b.buf}, b.bufGen
}
