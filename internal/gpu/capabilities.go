package gpu

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// ErrUnsupportedFormat is returned when a texture format cannot serve the
// requested usage.
var ErrUnsupportedFormat = errors.New("gpu: unsupported texture format")

// ImageLayout describes how the planes of a media frame are laid out when
// handed to the GPU.
type ImageLayout int

// Image layouts.
const (
	// ImageLayoutDefault is a single RGBA plane.
	ImageLayoutDefault ImageLayout = iota
	// ImageLayoutGray is a single luminance plane expanded to RGBA.
	ImageLayoutGray
)

// Capabilities lists what the device can do for the engine.
type Capabilities struct {
	Backend               string
	MaxTextureDimension2D uint32
	MaxSamples            uint32
	ImageLayouts          []ImageLayout

	formats map[gputypes.TextureFormat]gputypes.TextureUsage
}

// Capabilities returns the device capabilities.
func (c *Context) Capabilities() Capabilities {
	limits := gputypes.DefaultLimits()
	return Capabilities{
		Backend:               c.backend,
		MaxTextureDimension2D: limits.MaxTextureDimension2D,
		MaxSamples:            4,
		ImageLayouts:          []ImageLayout{ImageLayoutDefault, ImageLayoutGray},
		formats: map[gputypes.TextureFormat]gputypes.TextureUsage{
			gputypes.TextureFormatRGBA8Unorm: gputypes.TextureUsageTextureBinding |
				gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc |
				gputypes.TextureUsageRenderAttachment,
			gputypes.TextureFormatBGRA8Unorm: gputypes.TextureUsageTextureBinding |
				gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc |
				gputypes.TextureUsageRenderAttachment,
			gputypes.TextureFormatDepth24PlusStencil8: gputypes.TextureUsageRenderAttachment,
		},
	}
}

// SupportsFormat reports whether format can be used with every bit of usage.
func (c Capabilities) SupportsFormat(format gputypes.TextureFormat, usage gputypes.TextureUsage) bool {
	supported, ok := c.formats[format]
	return ok && supported&usage == usage
}

// SupportsImageLayout reports whether media frames in layout can be uploaded.
func (c Capabilities) SupportsImageLayout(layout ImageLayout) bool {
	for _, l := range c.ImageLayouts {
		if l == layout {
			return true
		}
	}
	return false
}
