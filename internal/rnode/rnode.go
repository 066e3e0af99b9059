// Package rnode implements the render tree: one node per occurrence of a
// drawing path in the scene graph.
//
// The scene graph shares nodes between parents, so a single graph node can be
// reached through several paths. Nodes that need per-path bookkeeping (a
// pipeline per occurrence, a graphics state override) attach it to the
// render-tree node of the current path instead of to the shared graph node.
// A cursor is moved down with AddChild during prepare and re-walked in the
// same order during draw.
package rnode

import (
	"github.com/gogpu/ngl/internal/darray"
)

// CullMode selects which faces are discarded.
type CullMode int

// Cull modes.
const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// State is the graphics state inherited by render-tree descendants.
type State struct {
	Blend      bool
	DepthTest  bool
	DepthWrite bool
	Cull       CullMode
	ColorWrite bool
}

// DefaultState returns the state of the render-tree root.
func DefaultState() State {
	return State{ColorWrite: true, DepthWrite: true}
}

// RNode is a render-tree node.
type RNode struct {
	// ID is assigned by the graph node owning the position: an occurrence
	// index for draws, the index of the pushed child for state changes.
	// -1 if unused.
	ID       int
	State    State
	Children darray.Array[RNode]
}

// Init resets r as a root with the default graphics state.
func (r *RNode) Init() {
	r.Reset()
	r.State = DefaultState()
}

// AddChild appends a child inheriting the graphics state of r.
// The returned pointer is invalidated by the next AddChild on r.
func (r *RNode) AddChild() (*RNode, error) {
	return r.Children.Push(RNode{ID: -1, State: r.State})
}

// Child returns the i-th child of r.
func (r *RNode) Child(i int) *RNode {
	return r.Children.Get(i)
}

// Reset releases the whole subtree.
func (r *RNode) Reset() {
	children := r.Children.Data()
	for i := range children {
		children[i].Reset()
	}
	r.Children.Reset()
	r.ID = -1
}

// Count returns the number of nodes in the subtree rooted at r, r included.
func (r *RNode) Count() int {
	n := 1
	children := r.Children.Data()
	for i := range children {
		n += children[i].Count()
	}
	return n
}
