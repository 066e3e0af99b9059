package ngl

// group is the default container: every child is prepared under its own
// render-tree position, then updated and drawn in declaration order.
type group struct{}

func (group) ClassName() string { return "Group" }

// Group returns a node drawing children in order.
func Group(children ...*Node) *Node {
	return NewNode(group{}).link(children...)
}
