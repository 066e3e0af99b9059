package ngl

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/ngl/internal/gpu"
)

// texture2D is a sampled RGBA texture, optionally fed by a Media node.
type texture2D struct {
	width, height uint32

	tex      *gpu.Texture
	texGen   uint64 // bumped when tex is recreated
	frameGen uint64 // media generation held by tex
	pixels   *image.RGBA
}

func (*texture2D) ClassName() string { return "Texture2D" }

// Texture2D returns a width x height texture. If media is not nil its frames
// are scaled to the texture size and uploaded whenever they change;
// otherwise the texture is transparent black.
func Texture2D(width, height uint32, media *Node) *Node {
	n := NewNode(&texture2D{width: width, height: height})
	if media != nil {
		n.link(media)
	}
	return n
}

func (t *texture2D) media(n *Node) *media {
	if n.children.Count() == 0 {
		return nil
	}
	m, _ := (*n.children.Get(0)).behavior.(*media)
	return m
}

func (t *texture2D) Init(_ *Context, n *Node) error {
	if t.width == 0 || t.height == 0 {
		return fmt.Errorf("%w: %s size %dx%d", ErrInvalidArg, n, t.width, t.height)
	}
	if n.children.Count() != 0 && t.media(n) == nil {
		return fmt.Errorf("%w: %s source is not a Media node", ErrInvalidArg, n)
	}
	t.pixels = image.NewRGBA(image.Rect(0, 0, int(t.width), int(t.height)))
	return nil
}

func (t *texture2D) Prefetch(ctx *Context, n *Node) error {
	tex, err := ctx.gpu.CreateTexture(n.String(), t.width, t.height)
	if err != nil {
		return graphicsError(err)
	}
	if t.media(n) == nil {
		if err := ctx.gpu.WriteTexture(tex, t.pixels.Pix); err != nil {
			ctx.gpu.DestroyTexture(tex)
			return graphicsError(err)
		}
	}
	t.tex = tex
	t.texGen++
	t.frameGen = 0
	return nil
}

func (t *texture2D) Update(ctx *Context, n *Node, tm float64) error {
	m := t.media(n)
	if m == nil {
		return nil
	}
	if err := ctx.UpdateNode(*n.children.Get(0), tm); err != nil {
		return err
	}
	if m.gen == t.frameGen || m.frame == nil {
		return nil
	}
	if err := t.convert(ctx, m.frame); err != nil {
		return fmt.Errorf("%s: %w", n, err)
	}
	if err := ctx.gpu.WriteTexture(t.tex, t.pixels.Pix); err != nil {
		return graphicsError(err)
	}
	t.frameGen = m.gen
	return nil
}

// convert scales frame into the RGBA pixel buffer.
func (t *texture2D) convert(ctx *Context, frame image.Image) error {
	layout := gpu.ImageLayoutDefault
	switch frame.(type) {
	case *image.Gray, *image.Gray16:
		layout = gpu.ImageLayoutGray
	}
	if !ctx.gpu.Capabilities().SupportsImageLayout(layout) {
		return fmt.Errorf("%w: image layout %d", ErrUnsupported, layout)
	}

	dst := t.pixels
	src := frame.Bounds()
	if src.Dx() == dst.Rect.Dx() && src.Dy() == dst.Rect.Dy() {
		draw.Draw(dst, dst.Rect, frame, src.Min, draw.Src)
		return nil
	}
	draw.BiLinear.Scale(dst, dst.Rect, frame, src, draw.Src, nil)
	return nil
}

func (t *texture2D) Release(ctx *Context, _ *Node) {
	ctx.gpu.DestroyTexture(t.tex)
	t.tex = nil
}

func (t *texture2D) Uninit(_ *Context, _ *Node) {
	t.pixels = nil
}

func (t *texture2D) bindingKind() gpu.BindingKind { return gpu.BindingTexture }

func (t *texture2D) resource() (gpu.Resource, uint64) {
	return gpu.Resource{Texture: t.tex}, t.texGen
}
