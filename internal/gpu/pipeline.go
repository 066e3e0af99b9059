package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ngl/internal/rnode"
)

// Pipeline errors.
var (
	// ErrInvalidPipeline is returned for an incomplete pipeline description.
	ErrInvalidPipeline = errors.New("gpu: invalid pipeline")

	// ErrMissingResource is returned when a bind group lacks a declared binding.
	ErrMissingResource = errors.New("gpu: missing bound resource")
)

// Entry points every program must define.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// BindingKind is the kind of resource bound at a slot.
type BindingKind int

// Binding kinds. A texture occupies its slot and the next one, which holds
// the sampler.
const (
	BindingUniform BindingKind = iota
	BindingStorage
	BindingTexture
)

// Binding declares a resource slot of bind group 0.
type Binding struct {
	Slot uint32
	Kind BindingKind
}

// VertexAttribute is a vertex input read from its own buffer.
type VertexAttribute struct {
	Location uint32
	Format   gputypes.VertexFormat
	Stride   uint64
}

// PipelineDescriptor describes a render pipeline.
type PipelineDescriptor struct {
	Label      string
	Vertex     *ShaderModule
	Fragment   *ShaderModule
	Attributes []VertexAttribute
	Bindings   []Binding
	State      rnode.State
}

// Pipeline is a render pipeline with its bind group layout.
type Pipeline struct {
	bindings []Binding
	layout   hal.BindGroupLayout
	pipeLay  hal.PipelineLayout
	raw      hal.RenderPipeline
}

// CreatePipeline builds a render pipeline writing to the context frame.
func (c *Context) CreatePipeline(desc *PipelineDescriptor) (*Pipeline, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	if desc.Vertex == nil || desc.Vertex.raw == nil || desc.Fragment == nil || desc.Fragment.raw == nil {
		return nil, fmt.Errorf("%w: %s: missing shader module", ErrInvalidPipeline, desc.Label)
	}

	p := &Pipeline{bindings: append([]Binding(nil), desc.Bindings...)}

	layout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label + "_bind_layout",
		Entries: bindGroupLayoutEntries(desc.Bindings),
	})
	if err != nil {
		return nil, fmt.Errorf("create %s bind group layout: %w", desc.Label, err)
	}
	p.layout = layout

	pipeLayout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	})
	if err != nil {
		c.DestroyPipeline(p)
		return nil, fmt.Errorf("create %s pipeline layout: %w", desc.Label, err)
	}
	p.pipeLay = pipeLayout

	var blend *gputypes.BlendState
	if desc.State.Blend {
		premul := gputypes.BlendStatePremultiplied()
		blend = &premul
	}
	writeMask := gputypes.ColorWriteMaskAll
	if !desc.State.ColorWrite {
		writeMask = gputypes.ColorWriteMask(0)
	}
	depthCompare := gputypes.CompareFunctionAlways
	if desc.State.DepthTest {
		depthCompare = gputypes.CompareFunctionLess
	}

	raw, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: p.pipeLay,
		Vertex: hal.VertexState{
			Module:     desc.Vertex.raw,
			EntryPoint: VertexEntry,
			Buffers:    vertexBufferLayouts(desc.Attributes),
		},
		Fragment: &hal.FragmentState{
			Module:     desc.Fragment.raw,
			EntryPoint: FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    ColorFormat,
					Blend:     blend,
					WriteMask: writeMask,
				},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: desc.State.DepthTest && desc.State.DepthWrite,
			DepthCompare:      depthCompare,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilReadMask:  0x00,
			StencilWriteMask: 0x00,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: cullMode(desc.State.Cull),
		},
		Multisample: gputypes.MultisampleState{
			Count: c.samples,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		c.DestroyPipeline(p)
		return nil, fmt.Errorf("create pipeline %s: %w", desc.Label, err)
	}
	p.raw = raw
	return p, nil
}

// DestroyPipeline releases p in reverse creation order.
func (c *Context) DestroyPipeline(p *Pipeline) {
	if p == nil || c.device == nil {
		return
	}
	if p.raw != nil {
		c.device.DestroyRenderPipeline(p.raw)
		p.raw = nil
	}
	if p.pipeLay != nil {
		c.device.DestroyPipelineLayout(p.pipeLay)
		p.pipeLay = nil
	}
	if p.layout != nil {
		c.device.DestroyBindGroupLayout(p.layout)
		p.layout = nil
	}
}

func cullMode(m rnode.CullMode) gputypes.CullMode {
	switch m {
	case rnode.CullFront:
		return gputypes.CullModeFront
	case rnode.CullBack:
		return gputypes.CullModeBack
	default:
		return gputypes.CullModeNone
	}
}

func vertexBufferLayouts(attrs []VertexAttribute) []gputypes.VertexBufferLayout {
	layouts := make([]gputypes.VertexBufferLayout, len(attrs))
	for i, a := range attrs {
		layouts[i] = gputypes.VertexBufferLayout{
			ArrayStride: a.Stride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: a.Format, Offset: 0, ShaderLocation: a.Location},
			},
		}
	}
	return layouts
}

func bindGroupLayoutEntries(bindings []Binding) []gputypes.BindGroupLayoutEntry {
	const visibility = gputypes.ShaderStageVertex | gputypes.ShaderStageFragment
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(bindings))
	for _, b := range bindings {
		switch b.Kind {
		case BindingUniform:
			entries = append(entries, gputypes.BindGroupLayoutEntry{
				Binding:    b.Slot,
				Visibility: visibility,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			})
		case BindingStorage:
			entries = append(entries, gputypes.BindGroupLayoutEntry{
				Binding:    b.Slot,
				Visibility: visibility,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			})
		case BindingTexture:
			entries = append(entries,
				gputypes.BindGroupLayoutEntry{
					Binding:    b.Slot,
					Visibility: gputypes.ShaderStageFragment,
					Texture: &gputypes.TextureBindingLayout{
						SampleType:    gputypes.TextureSampleTypeFloat,
						ViewDimension: gputypes.TextureViewDimension2D,
					},
				},
				gputypes.BindGroupLayoutEntry{
					Binding:    b.Slot + 1,
					Visibility: gputypes.ShaderStageFragment,
					Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
				})
		}
	}
	return entries
}

// Resource is a buffer or texture bound at a slot.
type Resource struct {
	Slot    uint32
	Buffer  *Buffer
	Texture *Texture
}

// BindGroup binds resources to the slots declared by a pipeline.
type BindGroup struct {
	raw hal.BindGroup
}

// CreateBindGroup binds resources, which must cover every pipeline binding.
func (c *Context) CreateBindGroup(p *Pipeline, resources []Resource) (*BindGroup, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	entries := make([]gputypes.BindGroupEntry, 0, len(p.bindings))
	for _, b := range p.bindings {
		r, ok := findResource(resources, b.Slot)
		if !ok {
			return nil, fmt.Errorf("%w: slot %d", ErrMissingResource, b.Slot)
		}
		switch b.Kind {
		case BindingUniform, BindingStorage:
			if r.Buffer == nil || r.Buffer.raw == nil {
				return nil, fmt.Errorf("%w: slot %d needs a buffer", ErrMissingResource, b.Slot)
			}
			entries = append(entries, gputypes.BindGroupEntry{
				Binding: b.Slot,
				Resource: gputypes.BufferBinding{
					Buffer: r.Buffer.raw.NativeHandle(), Offset: 0, Size: (r.Buffer.size + 3) &^ 3,
				},
			})
		case BindingTexture:
			if r.Texture == nil || r.Texture.raw == nil {
				return nil, fmt.Errorf("%w: slot %d needs a texture", ErrMissingResource, b.Slot)
			}
			entries = append(entries,
				gputypes.BindGroupEntry{
					Binding:  b.Slot,
					Resource: gputypes.TextureViewBinding{TextureView: r.Texture.view.NativeHandle()},
				},
				gputypes.BindGroupEntry{
					Binding:  b.Slot + 1,
					Resource: gputypes.SamplerBinding{Sampler: c.sampler.NativeHandle()},
				})
		}
	}
	raw, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "ngl_bind_group",
		Layout:  p.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	return &BindGroup{raw: raw}, nil
}

// DestroyBindGroup releases g.
func (c *Context) DestroyBindGroup(g *BindGroup) {
	if g == nil || g.raw == nil || c.device == nil {
		return
	}
	c.device.DestroyBindGroup(g.raw)
	g.raw = nil
}

func findResource(resources []Resource, slot uint32) (Resource, bool) {
	for _, r := range resources {
		if r.Slot == slot {
			return r, true
		}
	}
	return Resource{}, false
}
