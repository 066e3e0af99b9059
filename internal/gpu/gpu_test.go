package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/ngl/internal/rnode"
)

const testWGSL = `
@vertex
fn vs_main(@location(0) pos: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

func newTestContext(t *testing.T) *Context {
	t.Helper()
	c, err := New(Config{Backend: BackendNoop, Width: 64, Height: 32})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(c.Destroy)
	return c
}

// =============================================================================
// Context
// =============================================================================

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"noop default", Config{Width: 8, Height: 8}, nil},
		{"noop explicit", Config{Backend: "NOOP", Width: 8, Height: 8, Samples: 4}, nil},
		{"zero size", Config{Width: 0, Height: 8}, ErrInvalidSize},
		{"unknown backend", Config{Backend: "glide", Width: 8, Height: 8}, ErrUnknownBackend},
		{"bad provider", Config{Provider: struct{}{}, Width: 8, Height: 8}, ErrInvalidProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer c.Destroy()
			if c.Backend() != BackendNoop {
				t.Errorf("Backend() = %q, want %q", c.Backend(), BackendNoop)
			}
		})
	}
}

type testProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p testProvider) HalDevice() any { return p.device }
func (p testProvider) HalQueue() any  { return p.queue }

func TestNew_Provider(t *testing.T) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	defer instance.Destroy()
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer openDev.Device.Destroy()

	c, err := New(Config{Provider: testProvider{openDev.Device, openDev.Queue}, Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.owned {
		t.Error("borrowed device marked as owned")
	}
	c.Destroy()
	c.Destroy()
}

func TestContext_Resize(t *testing.T) {
	c := newTestContext(t)
	if err := c.Resize(128, 96); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if w, h := c.Size(); w != 128 || h != 96 {
		t.Errorf("Size() = %dx%d, want 128x96", w, h)
	}
	if err := c.Resize(0, 10); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Resize(0, 10) error = %v, want %v", err, ErrInvalidSize)
	}

	if err := c.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := c.Resize(10, 10); !errors.Is(err, ErrFrameState) {
		t.Errorf("Resize during frame error = %v, want %v", err, ErrFrameState)
	}
	if err := c.EndFrame(); err != nil {
		t.Fatal(err)
	}
}

func TestContext_UseAfterDestroy(t *testing.T) {
	c, err := New(Config{Width: 4, Height: 4})
	if err != nil {
		t.Fatal(err)
	}
	c.Destroy()
	if _, err := c.CreateBuffer("b", BufferVertex, 16); !errors.Is(err, ErrDestroyed) {
		t.Errorf("CreateBuffer() error = %v, want %v", err, ErrDestroyed)
	}
	if err := c.BeginFrame(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("BeginFrame() error = %v, want %v", err, ErrDestroyed)
	}
}

func TestCapabilities(t *testing.T) {
	caps := newTestContext(t).Capabilities()
	if !caps.SupportsFormat(ColorFormat, gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst) {
		t.Error("RGBA8 must be sampleable")
	}
	if caps.SupportsFormat(DepthFormat, gputypes.TextureUsageTextureBinding) {
		t.Error("depth format reported as sampleable")
	}
	if !caps.SupportsImageLayout(ImageLayoutDefault) {
		t.Error("default image layout unsupported")
	}
	if caps.MaxTextureDimension2D == 0 {
		t.Error("MaxTextureDimension2D is zero")
	}
}

// =============================================================================
// Resources
// =============================================================================

func TestBuffer_Write(t *testing.T) {
	c := newTestContext(t)
	b, err := c.CreateBuffer("uniforms", BufferUniform, 6)
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	defer c.DestroyBuffer(b)

	if err := c.WriteBuffer(b, 0, []byte{1, 2, 3, 4, 5, 6}); err != nil {
		t.Errorf("WriteBuffer() error = %v", err)
	}
	if err := c.WriteBuffer(b, 4, []byte{1, 2, 3}); !errors.Is(err, ErrWriteOutOfRange) {
		t.Errorf("WriteBuffer() overrun error = %v, want %v", err, ErrWriteOutOfRange)
	}
	if _, err := c.CreateBuffer("empty", BufferVertex, 0); !errors.Is(err, ErrInvalidBufferSize) {
		t.Errorf("CreateBuffer(0) error = %v, want %v", err, ErrInvalidBufferSize)
	}

	c.DestroyBuffer(b)
	if err := c.WriteBuffer(b, 0, []byte{1}); !errors.Is(err, ErrBufferDestroyed) {
		t.Errorf("WriteBuffer() after destroy error = %v, want %v", err, ErrBufferDestroyed)
	}
}

func TestTexture_Write(t *testing.T) {
	c := newTestContext(t)
	tex, err := c.CreateTexture("tex", 4, 2)
	if err != nil {
		t.Fatalf("CreateTexture() error = %v", err)
	}
	defer c.DestroyTexture(tex)

	if err := c.WriteTexture(tex, make([]byte, 4*2*4)); err != nil {
		t.Errorf("WriteTexture() error = %v", err)
	}
	if err := c.WriteTexture(tex, make([]byte, 3)); !errors.Is(err, ErrWriteOutOfRange) {
		t.Errorf("WriteTexture() short error = %v, want %v", err, ErrWriteOutOfRange)
	}
	if _, err := c.CreateTexture("huge", 1<<20, 1); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("CreateTexture() oversized error = %v, want %v", err, ErrInvalidSize)
	}
}

func TestShaderCache_Shared(t *testing.T) {
	c := newTestContext(t)
	a, err := c.AcquireShader("a", testWGSL)
	if err != nil {
		t.Fatalf("AcquireShader() error = %v", err)
	}
	b, err := c.AcquireShader("b", testWGSL)
	if err != nil {
		t.Fatalf("AcquireShader() error = %v", err)
	}
	if a.raw != b.raw {
		t.Error("same source produced two modules")
	}
	if refs := c.modules.Refs(testWGSL); refs != 2 {
		t.Errorf("Refs() = %d, want 2", refs)
	}
	c.ReleaseShader(a)
	c.ReleaseShader(a) // second release of the same handle is ignored
	if refs := c.modules.Refs(testWGSL); refs != 1 {
		t.Errorf("Refs() after release = %d, want 1", refs)
	}
	c.ReleaseShader(b)
	if got := c.Stats().ShaderCache.Hits; got != 1 {
		t.Errorf("cache hits = %d, want 1", got)
	}
}

func TestValidateWGSL(t *testing.T) {
	if err := ValidateWGSL(testWGSL); err != nil {
		t.Errorf("ValidateWGSL(valid) error = %v", err)
	}
	if err := ValidateWGSL(""); !errors.Is(err, ErrInvalidShader) {
		t.Errorf("ValidateWGSL(\"\") error = %v, want %v", err, ErrInvalidShader)
	}
	if err := ValidateWGSL("fn broken( {"); !errors.Is(err, ErrInvalidShader) {
		t.Errorf("ValidateWGSL(broken) error = %v, want %v", err, ErrInvalidShader)
	}
}

// =============================================================================
// Frames
// =============================================================================

func TestFrame_Ordering(t *testing.T) {
	c := newTestContext(t)
	if err := c.EndFrame(); !errors.Is(err, ErrFrameState) {
		t.Errorf("EndFrame() without frame error = %v, want %v", err, ErrFrameState)
	}
	if err := c.Draw(&DrawCall{}); !errors.Is(err, ErrFrameState) {
		t.Errorf("Draw() without frame error = %v, want %v", err, ErrFrameState)
	}
	if err := c.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := c.BeginFrame(); !errors.Is(err, ErrFrameState) {
		t.Errorf("nested BeginFrame() error = %v, want %v", err, ErrFrameState)
	}
	if err := c.EndFrame(); err != nil {
		t.Fatal(err)
	}
}

func TestFrame_DrawTriangle(t *testing.T) {
	c := newTestContext(t)

	mod, err := c.AcquireShader("tri", testWGSL)
	if err != nil {
		t.Fatal(err)
	}
	defer c.ReleaseShader(mod)

	state := rnode.DefaultState()
	state.Blend = true
	state.Cull = rnode.CullBack
	p, err := c.CreatePipeline(&PipelineDescriptor{
		Label:      "tri",
		Vertex:     mod,
		Fragment:   mod,
		Attributes: []VertexAttribute{{Location: 0, Format: gputypes.VertexFormatFloat32x2, Stride: 8}},
		Bindings:   []Binding{{Slot: 0, Kind: BindingUniform}},
		State:      state,
	})
	if err != nil {
		t.Fatalf("CreatePipeline() error = %v", err)
	}
	defer c.DestroyPipeline(p)

	verts, err := c.CreateBuffer("verts", BufferVertex, 6*4)
	if err != nil {
		t.Fatal(err)
	}
	defer c.DestroyBuffer(verts)
	ubo, err := c.CreateBuffer("ubo", BufferUniform, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer c.DestroyBuffer(ubo)

	if _, err := c.CreateBindGroup(p, nil); !errors.Is(err, ErrMissingResource) {
		t.Errorf("CreateBindGroup(nil) error = %v, want %v", err, ErrMissingResource)
	}
	bg, err := c.CreateBindGroup(p, []Resource{{Slot: 0, Buffer: ubo}})
	if err != nil {
		t.Fatalf("CreateBindGroup() error = %v", err)
	}
	defer c.DestroyBindGroup(bg)

	for frame := 0; frame < 2; frame++ {
		if err := c.BeginFrame(); err != nil {
			t.Fatal(err)
		}
		call := &DrawCall{Pipeline: p, BindGroup: bg, VertexBuffers: []*Buffer{verts}, VertexCount: 3}
		if err := c.Draw(call); err != nil {
			t.Fatalf("Draw() error = %v", err)
		}
		if err := c.EndFrame(); err != nil {
			t.Fatalf("EndFrame() error = %v", err)
		}
	}

	s := c.Stats()
	if s.DrawCalls != 1 || s.Frames != 2 {
		t.Errorf("Stats() = %+v, want 1 draw call and 2 frames", s)
	}

	pixels := make([]byte, 64*32*4)
	if err := c.ReadPixels(pixels); err != nil {
		t.Errorf("ReadPixels() error = %v", err)
	}
	if err := c.ReadPixels(pixels[:10]); !errors.Is(err, ErrWriteOutOfRange) {
		t.Errorf("ReadPixels(short) error = %v, want %v", err, ErrWriteOutOfRange)
	}
}

func TestCreatePipeline_MissingModule(t *testing.T) {
	c := newTestContext(t)
	if _, err := c.CreatePipeline(&PipelineDescriptor{Label: "p"}); !errors.Is(err, ErrInvalidPipeline) {
		t.Errorf("CreatePipeline() error = %v, want %v", err, ErrInvalidPipeline)
	}
}
