package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrTextureDestroyed is returned when operating on a destroyed texture.
var ErrTextureDestroyed = errors.New("gpu: texture has been destroyed")

// Texture is a sampled RGBA texture.
type Texture struct {
	raw    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
}

// Size returns the texture size in pixels.
func (t *Texture) Size() (width, height uint32) {
	return t.width, t.height
}

// CreateTexture allocates a width x height RGBA8 texture that can be sampled
// by shaders and written with WriteTexture.
func (c *Context) CreateTexture(label string, width, height uint32) (*Texture, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: texture %q %dx%d", ErrInvalidSize, label, width, height)
	}
	caps := c.Capabilities()
	if width > caps.MaxTextureDimension2D || height > caps.MaxTextureDimension2D {
		return nil, fmt.Errorf("%w: texture %q %dx%d exceeds %d",
			ErrInvalidSize, label, width, height, caps.MaxTextureDimension2D)
	}
	if !caps.SupportsFormat(ColorFormat, gputypes.TextureUsageTextureBinding) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ColorFormat)
	}
	raw, view, err := createAttachment(c.device, label,
		hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}, 1, ColorFormat,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst)
	if err != nil {
		return nil, err
	}
	return &Texture{raw: raw, view: view, width: width, height: height}, nil
}

// WriteTexture uploads tightly packed RGBA pixels covering the whole texture.
func (c *Context) WriteTexture(t *Texture, pixels []byte) error {
	if t == nil || t.raw == nil {
		return ErrTextureDestroyed
	}
	want := int(t.width) * int(t.height) * 4
	if len(pixels) != want {
		return fmt.Errorf("%w: texture needs %d bytes, got %d", ErrWriteOutOfRange, want, len(pixels))
	}
	c.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.raw,
			MipLevel: 0,
		},
		pixels,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  t.width * 4,
			RowsPerImage: t.height,
		},
		&hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	)
	return nil
}

// DestroyTexture releases t. Destroying a nil or destroyed texture is a no-op.
func (c *Context) DestroyTexture(t *Texture) {
	if t == nil || t.raw == nil || c.device == nil {
		return
	}
	c.device.DestroyTextureView(t.view)
	c.device.DestroyTexture(t.raw)
	t.raw, t.view = nil, nil
}
