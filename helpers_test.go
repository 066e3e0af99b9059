package ngl

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/ngl/internal/rnode"
)

// counter records every hook invocation.
type counter struct {
	log []string

	inits, prefetches, updates, draws, releases, uninits int

	failInit     error
	failPrefetch error
}

func (*counter) ClassName() string { return "Counter" }

func (c *counter) Init(_ *Context, _ *Node) error {
	if c.failInit != nil {
		return c.failInit
	}
	c.inits++
	c.log = append(c.log, "init")
	return nil
}

func (c *counter) Prefetch(_ *Context, _ *Node) error {
	if c.failPrefetch != nil {
		return c.failPrefetch
	}
	c.prefetches++
	c.log = append(c.log, "prefetch")
	return nil
}

func (c *counter) Update(_ *Context, _ *Node, _ float64) error {
	c.updates++
	return nil
}

func (c *counter) Draw(_ *Context, _ *Node) error {
	c.draws++
	return nil
}

func (c *counter) Release(_ *Context, _ *Node) {
	c.releases++
	c.log = append(c.log, "release")
}

func (c *counter) Uninit(_ *Context, _ *Node) {
	c.uninits++
	c.log = append(c.log, "uninit")
}

func newCounter() (*counter, *Node) {
	c := &counter{}
	return c, NewNode(c)
}

// recorder captures the drawing state it is drawn with.
type recorder struct {
	modelview  mgl32.Mat4
	projection mgl32.Mat4
	state      rnode.State
	draws      int
}

func (*recorder) ClassName() string { return "Recorder" }

func (p *recorder) Draw(ctx *Context, _ *Node) error {
	p.modelview = ctx.Modelview()
	p.projection = ctx.Projection()
	p.state = ctx.rnodePos.State
	p.draws++
	return nil
}

func newRecorder() (*recorder, *Node) {
	p := &recorder{}
	return p, NewNode(p)
}

// newTestContext returns a context configured on the noop backend.
func newTestContext(t *testing.T, opts ...Option) *Context {
	t.Helper()
	ctx := NewContext()
	t.Cleanup(func() { _ = ctx.Close() })
	opts = append([]Option{WithSize(64, 32)}, opts...)
	if err := ctx.Configure(NewConfig(opts...)); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	return ctx
}

func mustSetScene(t *testing.T, ctx *Context, root *Node) {
	t.Helper()
	if err := ctx.SetScene(root); err != nil {
		t.Fatalf("SetScene() error = %v", err)
	}
}

func mustDraw(t *testing.T, ctx *Context, tm float64) {
	t.Helper()
	if err := ctx.Draw(tm); err != nil {
		t.Fatalf("Draw(%v) error = %v", tm, err)
	}
}

const testProgram = `
struct Builtins {
    modelview: mat4x4<f32>,
    projection: mat4x4<f32>,
}

struct Params {
    color: vec4<f32>,
    opacity: f32,
}

@group(0) @binding(0) var<uniform> ngl: Builtins;
@group(0) @binding(1) var<uniform> params: Params;
@group(0) @binding(2) var tex: texture_2d<f32>;
@group(0) @binding(3) var tex_sampler: sampler;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) uv: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = ngl.projection * ngl.modelview * vec4<f32>(position, 1.0);
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(input: VertexOutput) -> @location(0) vec4<f32> {
    let texel = textureSample(tex, tex_sampler, input.uv);
    return texel * params.color * params.opacity;
}
`

const testSolidProgram = `
struct Builtins {
    modelview: mat4x4<f32>,
    projection: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> ngl: Builtins;

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) uv: vec2<f32>) -> @builtin(position) vec4<f32> {
    return ngl.projection * ngl.modelview * vec4<f32>(position, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.5, 0.0, 1.0);
}
`

func unitQuad() *Node {
	return Quad(mgl32.Vec3{-1, -1, 0}, mgl32.Vec3{2, 0, 0}, mgl32.Vec3{0, 2, 0})
}
