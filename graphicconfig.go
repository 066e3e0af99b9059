package ngl

import (
	"fmt"

	"github.com/gogpu/ngl/internal/rnode"
)

// CullMode selects which faces are discarded.
type CullMode = rnode.CullMode

// Cull modes.
const (
	CullNone  = rnode.CullNone
	CullFront = rnode.CullFront
	CullBack  = rnode.CullBack
)

// GraphicOption overrides one graphics state of a GraphicConfig.
type GraphicOption func(*graphicConfig)

// WithBlend enables premultiplied alpha blending.
func WithBlend(on bool) GraphicOption {
	return func(g *graphicConfig) { g.blend = &on }
}

// WithDepthTest enables the depth test.
func WithDepthTest(on bool) GraphicOption {
	return func(g *graphicConfig) { g.depthTest = &on }
}

// WithDepthWrite enables depth writes when the depth test is on.
func WithDepthWrite(on bool) GraphicOption {
	return func(g *graphicConfig) { g.depthWrite = &on }
}

// WithCullMode sets face culling.
func WithCullMode(m CullMode) GraphicOption {
	return func(g *graphicConfig) { g.cull = &m }
}

// WithColorWrite enables color writes.
func WithColorWrite(on bool) GraphicOption {
	return func(g *graphicConfig) { g.colorWrite = &on }
}

// graphicConfig overrides the graphics state inherited by its subtree.
// Unset fields keep the inherited value.
type graphicConfig struct {
	blend      *bool
	depthTest  *bool
	depthWrite *bool
	cull       *CullMode
	colorWrite *bool
}

func (*graphicConfig) ClassName() string { return "GraphicConfig" }

// GraphicConfig draws child with the graphics state changed by opts.
func GraphicConfig(child *Node, opts ...GraphicOption) *Node {
	g := &graphicConfig{}
	for _, opt := range opts {
		opt(g)
	}
	return NewNode(g).link(child)
}

func (g *graphicConfig) apply(s rnode.State) rnode.State {
	if g.blend != nil {
		s.Blend = *g.blend
	}
	if g.depthTest != nil {
		s.DepthTest = *g.depthTest
	}
	if g.depthWrite != nil {
		s.DepthWrite = *g.depthWrite
	}
	if g.cull != nil {
		s.Cull = *g.cull
	}
	if g.colorWrite != nil {
		s.ColorWrite = *g.colorWrite
	}
	return s
}

func (g *graphicConfig) Init(_ *Context, n *Node) error {
	if n.children.Count() != 1 {
		return fmt.Errorf("%w: expects one child, got %d", ErrInvalidArg, n.children.Count())
	}
	if g.cull != nil && (*g.cull < CullNone || *g.cull > CullBack) {
		return fmt.Errorf("%w: cull mode %d", ErrInvalidArg, *g.cull)
	}
	return nil
}

// Prepare opens a render-tree position carrying the overridden state; the
// whole subtree inherits it.
func (g *graphicConfig) Prepare(ctx *Context, n *Node) error {
	parent := ctx.rnodePos
	if parent.ID >= 0 {
		return fmt.Errorf("%w: %s shares its render position with another node; use a Group",
			ErrInvalidUsage, n)
	}
	parent.ID = parent.Children.Count()
	pos, err := parent.AddChild()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMemory, err)
	}
	pos.State = g.apply(pos.State)
	ctx.rnodePos = pos
	defer func() { ctx.rnodePos = parent }()
	return ctx.PrepareNode(*n.children.Get(0))
}

func (g *graphicConfig) Draw(ctx *Context, n *Node) error {
	parent := ctx.rnodePos
	if parent.ID < 0 || parent.ID >= parent.Children.Count() {
		return fmt.Errorf("%w: %s was not prepared at this position", ErrInvalidUsage, n)
	}
	ctx.rnodePos = parent.Child(parent.ID)
	defer func() { ctx.rnodePos = parent }()
	return ctx.DrawNode(*n.children.Get(0))
}
