// Package tree holds the presentation tree of a filing.
//
// Nodes live in an arena owned by Tree and are addressed by NodeID. Parent
// and child links are ID lists rather than owning pointers, so a node that
// the linkbase places under several parents is represented once and shared.
package tree

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnordered is returned when siblings must be compared but one of them
// has no order.
var ErrUnordered = errors.New("sibling without order")

// ErrCycle is returned when a walk re-enters a node on its own ancestor path.
var ErrCycle = errors.New("cycle in presentation tree")

// NodeID addresses a node inside its Tree.
type NodeID int

// None is the NodeID of an absent node.
const None NodeID = -1

// Kind discriminates the three node roles.
type Kind int

const (
	// KindRoot is the single synthetic root.
	KindRoot Kind = iota
	// KindGroup is one top-level presentation section.
	KindGroup
	// KindContent is every node below a group.
	KindContent
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindGroup:
		return "document_group"
	case KindContent:
		return "content"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Order is an optional sibling position.
type Order struct {
	value float64
	set   bool
}

// At returns a present order.
func At(v float64) Order { return Order{value: v, set: true} }

// NoOrder is the absent order.
var NoOrder = Order{}

// Value returns the position and whether it is set.
func (o Order) Value() (float64, bool) { return o.value, o.set }

func (o Order) String() string {
	if !o.set {
		return "None"
	}
	return fmt.Sprintf("%g", o.value)
}

// Node is one entry of the presentation tree.
type Node struct {
	ID   NodeID
	Kind Kind

	// LinkbaseLabel is the xlink:label used to reach this node while the
	// linkbase is read. Unique within one presentation link.
	LinkbaseLabel string

	Order Order

	// PreferredLabel is the label role URI to prefer. Empty means unset.
	PreferredLabel string

	Href       string
	FragmentID string

	Usage Usage
	Name  string

	Label    string
	HasLabel bool

	Parent   NodeID
	Children []NodeID
}

// Tree is an arena of nodes with one synthetic root.
type Tree struct {
	nodes []*Node
	root  NodeID
}

// RootLabel is the linkbase label of the synthetic root.
const RootLabel = "document_root"

// New creates a tree holding only its root.
func New() *Tree {
	t := &Tree{}
	t.root = t.NewNode(RootLabel, KindRoot)
	t.SetHref(t.root, "root")
	return t
}

// Root returns the root's ID.
func (t *Tree) Root() NodeID { return t.root }

// Len returns the number of nodes in the arena, detached ones included.
func (t *Tree) Len() int { return len(t.nodes) }

// NewNode allocates a parentless node.
func (t *Tree) NewNode(label string, kind Kind) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, &Node{
		ID:            id,
		Kind:          kind,
		LinkbaseLabel: label,
		Parent:        None,
	})
	return id
}

// Node returns the node for id, or nil when id is out of range.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// AppendChild sets the child's order and appends it to the parent's
// children. The child's Parent is left alone; callers link it with
// SetParent.
func (t *Tree) AppendChild(parent, child NodeID, order Order) {
	t.nodes[child].Order = order
	p := t.nodes[parent]
	p.Children = append(p.Children, child)
}

// SetParent records the back-reference from child to parent.
func (t *Tree) SetParent(child, parent NodeID) {
	t.nodes[child].Parent = parent
}

// ReplaceChild puts child into the parent's slot at index.
func (t *Tree) ReplaceChild(parent NodeID, index int, child NodeID) error {
	p := t.nodes[parent]
	if index < 0 || index >= len(p.Children) {
		return fmt.Errorf("replace child %d of %q: index out of range", index, p.LinkbaseLabel)
	}
	p.Children[index] = child
	return nil
}

// SetHref stores the schema locator and derives the fragment identifier
// from the text after the last '#'.
func (t *Tree) SetHref(id NodeID, href string) {
	n := t.nodes[id]
	n.Href = href
	if i := strings.LastIndexByte(href, '#'); i >= 0 {
		n.FragmentID = href[i+1:]
	} else {
		n.FragmentID = href
	}
}

// SchemaLocator returns the node's href without its fragment.
func (t *Tree) SchemaLocator(id NodeID) string {
	href := t.nodes[id].Href
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}

// Compare orders two siblings by ascending order.
func (t *Tree) Compare(a, b NodeID) (int, error) {
	av, aok := t.nodes[a].Order.Value()
	bv, bok := t.nodes[b].Order.Value()
	if !aok || !bok {
		missing := a
		if aok {
			missing = b
		}
		return 0, fmt.Errorf("%w: %q", ErrUnordered, t.nodes[missing].LinkbaseLabel)
	}
	switch {
	case av < bv:
		return -1, nil
	case av > bv:
		return 1, nil
	default:
		return 0, nil
	}
}

// SortedChildren returns a copy of the node's children stably sorted by
// order. The stored child list keeps its arc order.
func (t *Tree) SortedChildren(id NodeID) ([]NodeID, error) {
	children := slices.Clone(t.nodes[id].Children)
	if len(children) < 2 {
		return children, nil
	}
	for _, c := range children {
		if _, ok := t.nodes[c].Order.Value(); !ok {
			return nil, fmt.Errorf("children of %q: %w: %q",
				t.nodes[id].LinkbaseLabel, ErrUnordered, t.nodes[c].LinkbaseLabel)
		}
	}
	slices.SortStableFunc(children, func(a, b NodeID) int {
		c, _ := t.Compare(a, b)
		return c
	})
	return children, nil
}

// Groups returns the group nodes under root in child order.
func (t *Tree) Groups() []NodeID {
	var groups []NodeID
	for _, c := range t.nodes[t.root].Children {
		if t.nodes[c].Kind == KindGroup {
			groups = append(groups, c)
		}
	}
	return groups
}

// FindGroup returns the group whose fragment identifier is name, e.g.
// "rol_BalanceSheet".
func (t *Tree) FindGroup(name string) (NodeID, bool) {
	for _, g := range t.Groups() {
		if t.nodes[g].FragmentID == name {
			return g, true
		}
	}
	return None, false
}

// CascadePreferredLabels gives every node without a preferred label role
// the role of its parent, in one pre-order sweep from root. A node reached
// through several parents keeps the first role it receives. A node is
// revisited only when the visit would give it a role, which bounds the
// sweep even on cyclic input.
func (t *Tree) CascadePreferredLabels() {
	type item struct {
		id        NodeID
		inherited string
	}
	visited := make(map[NodeID]bool, len(t.nodes))
	stack := []item{{id: t.root}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.nodes[it.id]
		if visited[it.id] && (n.PreferredLabel != "" || it.inherited == "") {
			continue
		}
		visited[it.id] = true

		if n.PreferredLabel == "" && it.inherited != "" {
			n.PreferredLabel = it.inherited
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{id: n.Children[i], inherited: n.PreferredLabel})
		}
	}
}
