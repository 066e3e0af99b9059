package ngl

import (
	"fmt"
	"math"
)

// Behavior is the class of a node: its hooks and private data.
//
// Every hook is optional and is detected by implementing one of the
// interfaces below. The engine enforces the order between hooks, so a class
// only implements what it needs:
//
//   - prefetch initializes the node first if needed
//   - release does nothing unless the node is ready
//   - uninit releases the node first if needed
//
// Missing prepare, visit, update and draw hooks recurse into the children;
// other missing hooks do nothing. A class implementing Preparer but not
// Drawer, or the reverse, must keep the render-tree positions of the two
// passes in step.
type Behavior interface {
	ClassName() string
}

// Initializer allocates private resources that do not depend on the GPU.
type Initializer interface {
	Init(ctx *Context, n *Node) error
}

// Preparer builds per-occurrence state, typically render-tree positions.
type Preparer interface {
	Prepare(ctx *Context, n *Node) error
}

// Visitor propagates activity at time t to the children.
type Visitor interface {
	Visit(ctx *Context, n *Node, active bool, t float64) error
}

// Prefetcher acquires GPU resources.
type Prefetcher interface {
	Prefetch(ctx *Context, n *Node) error
}

// Updater recomputes time-dependent state for time t.
type Updater interface {
	Update(ctx *Context, n *Node, t float64) error
}

// Drawer records GPU commands.
type Drawer interface {
	Draw(ctx *Context, n *Node) error
}

// Releaser releases GPU resources.
type Releaser interface {
	Release(ctx *Context, n *Node)
}

// Uninitializer frees private resources.
type Uninitializer interface {
	Uninit(ctx *Context, n *Node)
}

// nodeInit runs the init hook of an uninitialized node.
func nodeInit(n *Node) error {
	if n.state != StateUninitialized {
		return nil
	}
	if n.buildErr != nil {
		return n.buildErr
	}
	if h, ok := n.behavior.(Initializer); ok {
		if err := h.Init(n.ctx, n); err != nil {
			return fmt.Errorf("init %s: %w", n, err)
		}
	}
	n.state = StateInitialized
	Logger().Debug("ngl: node initialized", "node", n.String())
	return nil
}

// nodePrefetch makes n ready, initializing it first if needed.
// A failure leaves the state unchanged.
func nodePrefetch(n *Node) error {
	if n.state == StateReady {
		return nil
	}
	if err := nodeInit(n); err != nil {
		return err
	}
	if h, ok := n.behavior.(Prefetcher); ok {
		if err := h.Prefetch(n.ctx, n); err != nil {
			return fmt.Errorf("prefetch %s: %w", n, err)
		}
	}
	n.state = StateReady
	if n.ctx != nil {
		n.ctx.stats.Prefetches++
	}
	Logger().Debug("ngl: node prefetched", "node", n.String())
	return nil
}

// nodeRelease drops the GPU resources of a ready node.
func nodeRelease(n *Node) {
	if n.state != StateReady {
		return
	}
	if h, ok := n.behavior.(Releaser); ok {
		h.Release(n.ctx, n)
	}
	n.state = StateInitialized
	n.lastUpdateTime = math.NaN()
	if n.ctx != nil {
		n.ctx.stats.Releases++
	}
	Logger().Debug("ngl: node released", "node", n.String())
}

// nodeUninit frees every resource of n, releasing it first if needed.
func nodeUninit(n *Node) {
	if n.state == StateUninitialized {
		return
	}
	nodeRelease(n)
	if h, ok := n.behavior.(Uninitializer); ok {
		h.Uninit(n.ctx, n)
	}
	n.state = StateUninitialized
	n.active = false
	n.visitTime = math.NaN()
	Logger().Debug("ngl: node uninitialized", "node", n.String())
}

// attachCtx attaches the subtree rooted at n to ctx. Each path reaching a
// node counts as one attachment; the first one initializes it. On failure
// everything attached by this call is detached again.
func attachCtx(n *Node, ctx *Context) error {
	if n.ctx != nil && n.ctx != ctx {
		return fmt.Errorf("%w: %s", ErrContextMismatch, n)
	}
	n.ctx = ctx
	n.ctxRefcount++
	if n.ctxRefcount == 1 {
		if err := nodeInit(n); err != nil {
			n.ctxRefcount--
			n.ctx = nil
			return err
		}
	}

	children := n.children.Data()
	for i, child := range children {
		if err := attachCtx(child, ctx); err != nil {
			for _, c := range children[:i] {
				detachCtx(c, ctx)
			}
			detachNode(n)
			return err
		}
	}
	return nil
}

// detachCtx reverses one attachCtx of the subtree rooted at n.
func detachCtx(n *Node, ctx *Context) {
	if n.ctx != ctx || n.ctxRefcount == 0 {
		return
	}
	for _, child := range n.children.Data() {
		detachCtx(child, ctx)
	}
	detachNode(n)
}

// detachNode drops one attachment of n alone, uninitializing it with the last.
func detachNode(n *Node) {
	n.ctxRefcount--
	if n.ctxRefcount == 0 {
		nodeUninit(n)
		n.ctx = nil
	}
}
