package ngl

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraOption configures a Camera.
type CameraOption func(*camera)

// WithClipping sets the near and far clipping planes.
func WithClipping(near, far float32) CameraOption {
	return func(c *camera) {
		c.near, c.far = near, far
	}
}

type camera struct {
	eye, center, up mgl32.Vec3
	fovy            float32
	near, far       float32
}

func (*camera) ClassName() string { return "Camera" }

// Camera draws child through a perspective projection of vertical field of
// view fovy degrees, looking from eye at center.
func Camera(child *Node, eye, center, up mgl32.Vec3, fovy float32, opts ...CameraOption) *Node {
	c := &camera{eye: eye, center: center, up: up, fovy: fovy, near: 0.1, far: 100}
	for _, opt := range opts {
		opt(c)
	}
	return NewNode(c).link(child)
}

func (c *camera) Init(_ *Context, n *Node) error {
	switch {
	case n.children.Count() != 1:
		return fmt.Errorf("%w: expects one child, got %d", ErrInvalidArg, n.children.Count())
	case c.fovy <= 0 || c.fovy >= 180:
		return fmt.Errorf("%w: field of view %v", ErrInvalidArg, c.fovy)
	case c.near <= 0 || c.far <= c.near:
		return fmt.Errorf("%w: clipping planes %v, %v", ErrInvalidArg, c.near, c.far)
	case c.eye.ApproxEqual(c.center) || c.up.Len() == 0:
		return fmt.Errorf("%w: degenerate view", ErrInvalidArg)
	}
	return nil
}

func (c *camera) Prepare(ctx *Context, n *Node) error {
	return ctx.PrepareNode(*n.children.Get(0))
}

func (c *camera) Draw(ctx *Context, n *Node) error {
	w, h := ctx.FrameSize()
	proj := mgl32.Perspective(mgl32.DegToRad(c.fovy), float32(w)/float32(h), c.near, c.far)
	if err := ctx.PushProjection(proj); err != nil {
		return err
	}
	defer ctx.PopProjection()
	if err := ctx.PushModelview(mgl32.LookAtV(c.eye, c.center, c.up)); err != nil {
		return err
	}
	defer ctx.PopModelview()
	return ctx.DrawNode(*n.children.Get(0))
}
