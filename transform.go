package ngl

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// transform multiplies the modelview matrix while its child is drawn.
type transform struct {
	name   string
	matrix func(n *Node) mgl32.Mat4
	check  func(n *Node) error
}

func (t *transform) ClassName() string { return t.name }

func newTransform(name string, child *Node, matrix func(*Node) mgl32.Mat4, extra ...*Node) *Node {
	n := NewNode(&transform{name: name, matrix: matrix})
	return n.link(append([]*Node{child}, extra...)...)
}

// Translate moves child by v.
func Translate(child *Node, v mgl32.Vec3) *Node {
	m := mgl32.Translate3D(v.X(), v.Y(), v.Z())
	return newTransform("Translate", child, func(*Node) mgl32.Mat4 { return m })
}

// Scale scales child by v around the origin.
func Scale(child *Node, v mgl32.Vec3) *Node {
	m := mgl32.Scale3D(v.X(), v.Y(), v.Z())
	return newTransform("Scale", child, func(*Node) mgl32.Mat4 { return m })
}

// Rotate rotates child by angle degrees around axis.
func Rotate(child *Node, angle float32, axis mgl32.Vec3) *Node {
	m := mgl32.HomogRotate3D(mgl32.DegToRad(angle), axis.Normalize())
	n := newTransform("Rotate", child, func(*Node) mgl32.Mat4 { return m })
	n.behavior.(*transform).check = func(*Node) error { return checkAxis(axis) }
	return n
}

// RotateBy rotates child around axis by the value in degrees of angle, a
// float variable such as UniformFloat or AnimatedFloat.
func RotateBy(child, angle *Node, axis mgl32.Vec3) *Node {
	axis = axis.Normalize()
	n := newTransform("Rotate", child, func(n *Node) mgl32.Mat4 {
		deg, _ := floatValue(*n.children.Get(1))
		return mgl32.HomogRotate3D(mgl32.DegToRad(deg), axis)
	}, angle)
	n.behavior.(*transform).check = func(n *Node) error {
		if _, ok := floatValue(*n.children.Get(1)); !ok {
			return fmt.Errorf("%w: angle of %s must be a float variable", ErrInvalidArg, n)
		}
		return checkAxis(axis)
	}
	return n
}

// Transform multiplies the modelview matrix of child by m.
func Transform(child *Node, m mgl32.Mat4) *Node {
	return newTransform("Transform", child, func(*Node) mgl32.Mat4 { return m })
}

func checkAxis(axis mgl32.Vec3) error {
	if axis.Len() == 0 || axis.X() != axis.X() {
		return fmt.Errorf("%w: rotation axis %v", ErrInvalidArg, axis)
	}
	return nil
}

func (t *transform) Init(_ *Context, n *Node) error {
	if n.children.Count() == 0 || *n.children.Get(0) == nil {
		return fmt.Errorf("%w: %s has no child", ErrInvalidArg, n)
	}
	if t.check != nil {
		return t.check(n)
	}
	return nil
}

func (t *transform) Prepare(ctx *Context, n *Node) error {
	return ctx.PrepareNode(*n.children.Get(0))
}

func (t *transform) Draw(ctx *Context, n *Node) error {
	if err := ctx.PushModelview(t.matrix(n)); err != nil {
		return err
	}
	defer ctx.PopModelview()
	return ctx.DrawNode(*n.children.Get(0))
}

// identity is a leaf drawing nothing.
type identity struct{}

func (identity) ClassName() string { return "Identity" }

// Identity returns an empty leaf, a placeholder child for transforms.
func Identity() *Node { return NewNode(identity{}) }
