package ngl

import (
	"fmt"

	"github.com/gogpu/ngl/internal/gpu"
)

// program holds the WGSL sources of a pipeline. The vertex stage entry point
// is vs_main and the fragment stage entry point fs_main; both may live in the
// same source.
//
// Bind group 0 slot 0 is a uniform block holding the current matrices:
//
//	struct Builtins {
//	    modelview: mat4x4<f32>,
//	    projection: mat4x4<f32>,
//	}
//	@group(0) @binding(0) var<uniform> ngl: Builtins;
//
// Vertex positions are at location 0 (vec3) and texture coordinates at
// location 1 (vec2).
type program struct {
	vertex, fragment string

	vs, fs *gpu.ShaderModule
}

func (*program) ClassName() string { return "Program" }

// Program returns a program from WGSL sources. The sources are compiled when
// the node is initialized, so a syntax error is reported by SetScene.
func Program(vertex, fragment string) *Node {
	return NewNode(&program{vertex: vertex, fragment: fragment})
}

func (p *program) Init(_ *Context, n *Node) error {
	if err := gpu.ValidateWGSL(p.vertex); err != nil {
		return fmt.Errorf("%w: %s vertex: %w", ErrInvalidData, n, err)
	}
	if err := gpu.ValidateWGSL(p.fragment); err != nil {
		return fmt.Errorf("%w: %s fragment: %w", ErrInvalidData, n, err)
	}
	return nil
}

func (p *program) Prefetch(ctx *Context, n *Node) error {
	vs, err := ctx.gpu.AcquireShader(n.String()+"_vertex", p.vertex)
	if err != nil {
		return graphicsError(err)
	}
	fs, err := ctx.gpu.AcquireShader(n.String()+"_fragment", p.fragment)
	if err != nil {
		ctx.gpu.ReleaseShader(vs)
		return graphicsError(err)
	}
	p.vs, p.fs = vs, fs
	return nil
}

func (p *program) Release(ctx *Context, _ *Node) {
	ctx.gpu.ReleaseShader(p.vs)
	ctx.gpu.ReleaseShader(p.fs)
	p.vs, p.fs = nil, nil
}
