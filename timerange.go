package ngl

import (
	"fmt"
	"math"
)

// TimeRangeOption configures a TimeRangeFilter.
type TimeRangeOption func(*timeRange)

// WithPrefetchTime makes the child active d seconds before the range starts,
// so its resources are ready when it is first drawn.
func WithPrefetchTime(d float64) TimeRangeOption {
	return func(r *timeRange) {
		r.prefetch = d
	}
}

type timeRange struct {
	start, end float64
	prefetch   float64

	// inRange is computed by the last visit.
	inRange bool
}

func (*timeRange) ClassName() string { return "TimeRangeFilter" }

// TimeRangeFilter restricts child to the time range [start, end): outside of
// it the child is inactive, so its GPU resources are released, and it is
// neither updated nor drawn.
func TimeRangeFilter(child *Node, start, end float64, opts ...TimeRangeOption) *Node {
	r := &timeRange{start: start, end: end}
	for _, opt := range opts {
		opt(r)
	}
	return NewNode(r).link(child)
}

func (r *timeRange) Init(_ *Context, n *Node) error {
	switch {
	case n.children.Count() != 1:
		return fmt.Errorf("%w: expects one child, got %d", ErrInvalidArg, n.children.Count())
	case math.IsNaN(r.start) || math.IsNaN(r.end) || r.end < r.start:
		return fmt.Errorf("%w: time range [%v, %v)", ErrInvalidArg, r.start, r.end)
	case r.prefetch < 0:
		return fmt.Errorf("%w: prefetch time %v", ErrInvalidArg, r.prefetch)
	}
	return nil
}

func (r *timeRange) child(n *Node) *Node { return *n.children.Get(0) }

func (r *timeRange) Prepare(ctx *Context, n *Node) error {
	return ctx.PrepareNode(r.child(n))
}

func (r *timeRange) Visit(ctx *Context, n *Node, active bool, t float64) error {
	r.inRange = t >= r.start && t < r.end
	childActive := active && t >= r.start-r.prefetch && t < r.end
	return ctx.VisitNode(r.child(n), childActive, t)
}

func (r *timeRange) Update(ctx *Context, n *Node, t float64) error {
	if !r.inRange {
		return nil
	}
	return ctx.UpdateNode(r.child(n), t)
}

func (r *timeRange) Draw(ctx *Context, n *Node) error {
	if !r.inRange {
		return nil
	}
	return ctx.DrawNode(r.child(n))
}
