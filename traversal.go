package ngl

import (
	"fmt"
	"math"
)

// PrepareNode runs the prepare hook of n, or prepares its children.
// It is called by Preparer implementations to descend into children.
func (c *Context) PrepareNode(n *Node) error {
	if h, ok := n.behavior.(Preparer); ok {
		if err := h.Prepare(c, n); err != nil {
			return fmt.Errorf("prepare %s: %w", n, err)
		}
		return nil
	}
	return c.PrepareChildren(n)
}

// PrepareChildren prepares every child of n in order, each under its own
// render-tree position. DrawChildren walks the same positions.
func (c *Context) PrepareChildren(n *Node) error {
	parent := c.rnodePos
	defer func() { c.rnodePos = parent }()
	for _, child := range n.children.Data() {
		pos, err := parent.AddChild()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMemory, err)
		}
		c.rnodePos = pos
		if err := c.PrepareNode(child); err != nil {
			return err
		}
	}
	return nil
}

// VisitNode marks n active or inactive at time t and records it for the
// release/prefetch reconciliation.
//
// A node reached through several paths is active if any path is active:
// a later active visit at the same t upgrades an inactive node and visits
// its children again, any other repeated visit is ignored. Nodes are
// recorded after their children, so the activity list runs bottom-up.
func (c *Context) VisitNode(n *Node, active bool, t float64) error {
	first := n.visitTime != t
	if !first {
		if n.active || !active {
			return nil
		}
		n.active = true
	} else {
		n.visitTime = t
		n.active = active
	}

	var err error
	if h, ok := n.behavior.(Visitor); ok {
		err = h.Visit(c, n, active, t)
	} else {
		err = c.VisitChildren(n, active, t)
	}
	if err == nil && first {
		if _, perr := c.activity.Push(n); perr != nil {
			err = fmt.Errorf("%w: %w", ErrMemory, perr)
		}
	}
	if err != nil && first {
		n.visitTime = math.NaN()
	}
	return err
}

// VisitChildren visits every child of n with the same activity.
func (c *Context) VisitChildren(n *Node, active bool, t float64) error {
	for _, child := range n.children.Data() {
		if err := c.VisitNode(child, active, t); err != nil {
			return err
		}
	}
	return nil
}

// honorReleasePrefetch walks the activity list: active nodes are prefetched,
// inactive ones released. Visit stamps are reset and the list emptied even on
// failure, so calling it again without a new visit does nothing.
func (c *Context) honorReleasePrefetch() error {
	var firstErr error
	active := 0
	for _, n := range c.activity.Data() {
		if n.active {
			active++
		}
		if firstErr == nil {
			if n.active {
				firstErr = nodePrefetch(n)
			} else {
				nodeRelease(n)
			}
		}
		n.visitTime = math.NaN()
	}
	c.activity.Clear()
	c.stats.ActiveNodes = active
	return firstErr
}

// UpdateNode updates an active node once per time t.
func (c *Context) UpdateNode(n *Node, t float64) error {
	if !n.active || n.lastUpdateTime == t {
		return nil
	}
	var err error
	if h, ok := n.behavior.(Updater); ok {
		err = h.Update(c, n, t)
	} else {
		err = c.UpdateChildren(n, t)
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", n, err)
	}
	n.lastUpdateTime = t
	return nil
}

// invalidateUpdates makes n and every node above it update again at the
// time they were last updated at.
func invalidateUpdates(n *Node, seen map[*Node]struct{}) {
	if _, ok := seen[n]; ok {
		return
	}
	seen[n] = struct{}{}
	n.lastUpdateTime = math.NaN()
	for _, p := range n.parents.Data() {
		invalidateUpdates(p, seen)
	}
}

// UpdateChildren updates every child of n.
func (c *Context) UpdateChildren(n *Node, t float64) error {
	for _, child := range n.children.Data() {
		if err := c.UpdateNode(child, t); err != nil {
			return err
		}
	}
	return nil
}

// DrawNode draws an active node at the current render-tree position.
// Drawing a node that is active but not ready is an invalid usage.
func (c *Context) DrawNode(n *Node) error {
	if !n.active {
		return nil
	}
	if n.state != StateReady {
		return fmt.Errorf("%w: drawing %s in state %s", ErrInvalidUsage, n, n.state)
	}
	if h, ok := n.behavior.(Drawer); ok {
		if err := h.Draw(c, n); err != nil {
			return fmt.Errorf("draw %s: %w", n, err)
		}
	} else if err := c.DrawChildren(n); err != nil {
		return err
	}
	n.drawCount++
	return nil
}

// DrawChildren draws the children of n at the render-tree positions
// created by PrepareChildren.
func (c *Context) DrawChildren(n *Node) error {
	parent := c.rnodePos
	defer func() { c.rnodePos = parent }()
	for i, child := range n.children.Data() {
		if i >= parent.Children.Count() {
			return fmt.Errorf("%w: %s was not prepared", ErrInvalidUsage, child)
		}
		c.rnodePos = parent.Child(i)
		if err := c.DrawNode(child); err != nil {
			return err
		}
	}
	return nil
}

// prepareDraw runs the visit, reconciliation and update passes for time t.
func (c *Context) prepareDraw(t float64) error {
	root := c.scene
	if err := c.VisitNode(root, true, t); err != nil {
		// Drop the partial list; stamps are reset so t can be retried.
		for _, n := range c.activity.Data() {
			n.visitTime = math.NaN()
		}
		c.activity.Clear()
		return err
	}
	if err := c.honorReleasePrefetch(); err != nil {
		return err
	}
	return c.UpdateNode(root, t)
}

// releaseAll releases every ready node of the subtree rooted at n, leaves
// first.
func releaseAll(n *Node, seen map[*Node]struct{}) {
	if _, ok := seen[n]; ok {
		return
	}
	seen[n] = struct{}{}
	for _, child := range n.children.Data() {
		releaseAll(child, seen)
	}
	nodeRelease(n)
}
