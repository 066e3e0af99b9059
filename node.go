package ngl

import (
	"fmt"
	"math"

	"github.com/gogpu/ngl/internal/darray"
)

// State is the lifecycle state of a node.
type State int

// Lifecycle states.
const (
	// StateUninitialized is the state of a new or fully released node.
	StateUninitialized State = iota
	// StateInitialized means private, GPU-independent resources exist.
	StateInitialized
	// StateReady means GPU resources exist and the node can be drawn.
	StateReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Node is a vertex of the scene graph.
//
// A Node pairs the engine-owned bookkeeping (lifecycle state, activity,
// reference counts, children and parents) with a Behavior holding the class
// hooks and private data. A node added to several parents is shared, never
// copied.
//
// The graph may only be modified before it is handed to a Context with
// SetScene; from then on it is owned by the context worker.
type Node struct {
	behavior Behavior
	label    string

	state  State
	active bool

	visitTime      float64
	lastUpdateTime float64
	drawCount      int

	refcount    int // parent edges
	ctxRefcount int // attachments to ctx
	ctx         *Context

	children darray.Array[*Node]
	parents  darray.Array[*Node]

	// buildErr is a construction error reported by init.
	buildErr error
}

// NewNode returns an uninitialized node driven by b. It is the entry point
// for custom node classes; built-in classes have their own constructors.
func NewNode(b Behavior) *Node {
	return &Node{
		behavior:       b,
		visitTime:      math.NaN(),
		lastUpdateTime: math.NaN(),
	}
}

// Behavior returns the class behavior of n.
func (n *Node) Behavior() Behavior { return n.behavior }

// ClassName returns the name of the node class.
func (n *Node) ClassName() string { return n.behavior.ClassName() }

// Label returns the user label of n.
func (n *Node) Label() string { return n.label }

// SetLabel sets a label used in log messages.
func (n *Node) SetLabel(label string) *Node {
	n.label = label
	return n
}

// String returns the class name and label of n.
func (n *Node) String() string {
	if n.label == "" {
		return n.ClassName()
	}
	return n.ClassName() + "(" + n.label + ")"
}

// State returns the lifecycle state of n.
func (n *Node) State() State { return n.state }

// IsActive reports whether n was active at the last visited time.
func (n *Node) IsActive() bool { return n.active }

// Refcount returns the number of parent edges pointing at n.
func (n *Node) Refcount() int { return n.refcount }

// DrawCount returns how many times n was drawn.
func (n *Node) DrawCount() int { return n.drawCount }

// Children returns the children of n in declaration order.
// The slice must not be modified.
func (n *Node) Children() []*Node { return n.children.Data() }

// Parents returns the parents of n. The slice must not be modified.
func (n *Node) Parents() []*Node { return n.parents.Data() }

// Context returns the context n is attached to, nil if none.
func (n *Node) Context() *Context { return n.ctx }

// AddChild appends children to n. A child may already have other parents.
// It fails with ErrCycle if a child reaches n, and with ErrInvalidUsage if n
// is already attached to a context.
func (n *Node) AddChild(children ...*Node) error {
	if n.ctx != nil {
		return fmt.Errorf("%w: %s is attached to a context", ErrInvalidUsage, n)
	}
	for _, child := range children {
		if child == nil {
			return fmt.Errorf("%w: nil child of %s", ErrInvalidArg, n)
		}
		if child.reaches(n) {
			return fmt.Errorf("%w: adding %s to %s", ErrCycle, child, n)
		}
		if _, err := n.children.Push(child); err != nil {
			return fmt.Errorf("%w: %w", ErrMemory, err)
		}
		if _, err := child.parents.Push(n); err != nil {
			n.children.Pop()
			return fmt.Errorf("%w: %w", ErrMemory, err)
		}
		child.refcount++
	}
	return nil
}

// reaches reports whether target is n or a descendant of n.
func (n *Node) reaches(target *Node) bool {
	if n == target {
		return true
	}
	for _, c := range n.children.Data() {
		if c.reaches(target) {
			return true
		}
	}
	return false
}

// link adds children on behalf of a constructor. A failure is kept and
// reported when the node is initialized.
func (n *Node) link(children ...*Node) *Node {
	if err := n.AddChild(children...); err != nil && n.buildErr == nil {
		n.buildErr = err
	}
	return n
}
