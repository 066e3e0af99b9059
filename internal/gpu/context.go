package gpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/ngl/internal/cache"
)

// Context errors.
var (
	// ErrUnknownBackend is returned for a backend name New does not know.
	ErrUnknownBackend = errors.New("gpu: unknown backend")

	// ErrBackendUnavailable is returned when the backend cannot be loaded
	// or exposes no adapter.
	ErrBackendUnavailable = errors.New("gpu: backend not available")

	// ErrInvalidProvider is returned when a device provider does not expose
	// HAL device and queue.
	ErrInvalidProvider = errors.New("gpu: provider does not expose HAL types")

	// ErrInvalidSize is returned for a zero or oversized frame.
	ErrInvalidSize = errors.New("gpu: invalid frame size")

	// ErrDestroyed is returned when using a destroyed context.
	ErrDestroyed = errors.New("gpu: context has been destroyed")
)

// Backend names accepted by Config.Backend.
const (
	BackendNoop   = "noop"
	BackendVulkan = "vulkan"
)

// Target formats of the offscreen frame.
const (
	ColorFormat = gputypes.TextureFormatRGBA8Unorm
	DepthFormat = gputypes.TextureFormatDepth24PlusStencil8
)

// shaderCacheLimit bounds the number of unused shader modules kept alive.
const shaderCacheLimit = 32

// Config describes how to open a Context.
type Config struct {
	// Backend selects the HAL backend when Provider is nil. Empty means noop.
	Backend string

	// Provider, if not nil, supplies an existing device through
	// HalDevice() any and HalQueue() any. The Context does not destroy it.
	Provider any

	// Width and Height are the frame size in pixels.
	Width, Height uint32

	// Samples is the MSAA sample count, 0 or 1 disables multisampling.
	Samples uint32

	// ClearColor is the RGBA color the frame is cleared to.
	ClearColor [4]float64
}

// Context is a GPU device together with the offscreen frame drawn into.
type Context struct {
	instance hal.Instance // nil when the device is borrowed
	device   hal.Device
	queue    hal.Queue
	owned    bool
	backend  string
	adapter  string

	width, height uint32
	samples       uint32
	clear         gputypes.Color

	target  frameTarget
	sampler hal.Sampler
	modules *cache.Cache[string, hal.ShaderModule]

	frame *frame
	stats Stats

	destroyed bool
}

// Stats are the counters of the last completed frame.
type Stats struct {
	DrawCalls   int
	Frames      uint64
	ShaderCache cache.Stats
}

// New opens a device as described by cfg and allocates its frame.
func New(cfg Config) (*Context, error) {
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, cfg.Width, cfg.Height)
	}

	c := &Context{
		width:   cfg.Width,
		height:  cfg.Height,
		samples: max(cfg.Samples, 1),
		clear: gputypes.Color{
			R: cfg.ClearColor[0], G: cfg.ClearColor[1],
			B: cfg.ClearColor[2], A: cfg.ClearColor[3],
		},
	}

	var err error
	if cfg.Provider != nil {
		err = c.useProvider(cfg.Provider)
	} else {
		err = c.openBackend(cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	c.modules = cache.New[string, hal.ShaderModule](shaderCacheLimit, func(_ string, m hal.ShaderModule) {
		c.device.DestroyShaderModule(m)
	})

	if err := c.createSampler(); err != nil {
		c.Destroy()
		return nil, err
	}
	if err := c.target.create(c.device, c.width, c.height, c.samples); err != nil {
		c.Destroy()
		return nil, err
	}

	slogger().Info("gpu: context ready",
		"backend", c.backend, "adapter", c.adapter,
		"width", c.width, "height", c.height, "samples", c.samples)
	return c, nil
}

// useProvider borrows the device of an external provider such as gogpu.
func (c *Context) useProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return ErrInvalidProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("%w: HalDevice is not hal.Device", ErrInvalidProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("%w: HalQueue is not hal.Queue", ErrInvalidProvider)
	}
	c.device, c.queue = device, queue
	c.backend, c.adapter = "provider", "external"
	return nil
}

// openBackend creates an instance and opens the first suitable adapter.
func (c *Context) openBackend(name string) error {
	var (
		instance hal.Instance
		err      error
	)
	switch strings.ToLower(name) {
	case "", BackendNoop:
		c.backend = BackendNoop
		instance, err = noop.API{}.CreateInstance(nil)
	case BackendVulkan:
		c.backend = BackendVulkan
		backend, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return fmt.Errorf("%w: %s", ErrBackendUnavailable, name)
		}
		instance, err = backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return fmt.Errorf("%w: no adapters", ErrBackendUnavailable)
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("open device: %w", err)
	}
	c.instance = instance
	c.device, c.queue = openDev.Device, openDev.Queue
	c.owned = true
	c.adapter = selected.Info.Name
	return nil
}

func (c *Context) createSampler() error {
	sampler, err := c.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "ngl_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}
	c.sampler = sampler
	return nil
}

// Size returns the frame size.
func (c *Context) Size() (width, height uint32) {
	return c.width, c.height
}

// Backend returns the name of the backend in use.
func (c *Context) Backend() string {
	return c.backend
}

// Stats returns the counters of the last completed frame.
func (c *Context) Stats() Stats {
	s := c.stats
	if c.modules != nil {
		s.ShaderCache = c.modules.Stats()
	}
	return s
}

// Resize reallocates the frame. It must not be called during a frame.
func (c *Context) Resize(width, height uint32) error {
	if c.destroyed {
		return ErrDestroyed
	}
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if width == c.width && height == c.height {
		return nil
	}
	if c.frame != nil {
		return fmt.Errorf("%w: resize during frame", ErrFrameState)
	}
	c.target.destroy(c.device)
	if err := c.target.create(c.device, width, height, c.samples); err != nil {
		return err
	}
	c.width, c.height = width, height
	slogger().Debug("gpu: frame resized", "width", width, "height", height)
	return nil
}

// Destroy releases every object owned by the context. Resources created from
// the context must be destroyed before. Calling Destroy twice is safe.
func (c *Context) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	if c.frame != nil {
		c.frame.discard()
		c.frame = nil
	}
	if c.modules != nil {
		c.modules.Clear()
	}
	c.target.destroy(c.device)
	if c.sampler != nil {
		c.device.DestroySampler(c.sampler)
		c.sampler = nil
	}
	if c.owned {
		c.device.Destroy()
		if c.instance != nil {
			c.instance.Destroy()
		}
	}
	c.device, c.queue, c.instance = nil, nil, nil
}

// frameTarget holds the offscreen attachments.
type frameTarget struct {
	color     hal.Texture
	colorView hal.TextureView

	// resolve is only allocated with multisampling.
	resolve     hal.Texture
	resolveView hal.TextureView

	depth     hal.Texture
	depthView hal.TextureView
}

func (t *frameTarget) create(device hal.Device, w, h, samples uint32) error {
	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	var err error
	colorUsage := gputypes.TextureUsageRenderAttachment
	if samples == 1 {
		colorUsage |= gputypes.TextureUsageCopySrc
	}
	t.color, t.colorView, err = createAttachment(device, "ngl_color", size, samples, ColorFormat, colorUsage)
	if err != nil {
		t.destroy(device)
		return err
	}
	if samples > 1 {
		t.resolve, t.resolveView, err = createAttachment(device, "ngl_resolve", size, 1, ColorFormat,
			gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
		if err != nil {
			t.destroy(device)
			return err
		}
	}
	t.depth, t.depthView, err = createAttachment(device, "ngl_depth", size, samples, DepthFormat,
		gputypes.TextureUsageRenderAttachment)
	if err != nil {
		t.destroy(device)
		return err
	}
	return nil
}

// readable returns the single-sampled color texture.
func (t *frameTarget) readable() hal.Texture {
	if t.resolve != nil {
		return t.resolve
	}
	return t.color
}

func (t *frameTarget) destroy(device hal.Device) {
	if device == nil {
		return
	}
	for _, v := range []*hal.TextureView{&t.depthView, &t.resolveView, &t.colorView} {
		if *v != nil {
			device.DestroyTextureView(*v)
			*v = nil
		}
	}
	for _, tex := range []*hal.Texture{&t.depth, &t.resolve, &t.color} {
		if *tex != nil {
			device.DestroyTexture(*tex)
			*tex = nil
		}
	}
}

func createAttachment(device hal.Device, label string, size hal.Extent3D, samples uint32,
	format gputypes.TextureFormat, usage gputypes.TextureUsage) (hal.Texture, hal.TextureView, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return tex, view, nil
}
