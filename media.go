package ngl

import (
	"fmt"
	"image"
)

// MediaSource produces the frame to show at a time.
type MediaSource interface {
	Frame(t float64) (image.Image, error)
}

// ImageSource returns a source showing img at every time.
func ImageSource(img image.Image) MediaSource {
	return stillImage{img: img}
}

type stillImage struct {
	img image.Image
}

func (s stillImage) Frame(float64) (image.Image, error) {
	if s.img == nil {
		return nil, ErrNoImage
	}
	return s.img, nil
}

// media pulls frames from a MediaSource at every update.
type media struct {
	src   MediaSource
	frame image.Image
	gen   uint64
}

func (*media) ClassName() string { return "Media" }

// Media returns a node pulling frames from src, to be displayed by a
// Texture2D.
func Media(src MediaSource) *Node {
	return NewNode(&media{src: src})
}

func (m *media) Init(_ *Context, n *Node) error {
	if m.src == nil {
		return fmt.Errorf("%w: %s has no source", ErrInvalidArg, n)
	}
	return nil
}

func (m *media) Update(_ *Context, n *Node, t float64) error {
	if _, still := m.src.(stillImage); still && m.frame != nil {
		return nil
	}
	img, err := m.src.Frame(t)
	if err != nil {
		return fmt.Errorf("%w: %s at %v: %w", ErrExternal, n, t, err)
	}
	if img == nil {
		return fmt.Errorf("%w: %s returned no frame at %v", ErrExternal, n, t)
	}
	m.frame = img
	m.gen++
	return nil
}

func (m *media) Release(_ *Context, _ *Node) {
	m.frame = nil
}
