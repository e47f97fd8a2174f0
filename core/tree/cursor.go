package tree

import (
	"fmt"
	"iter"
)

// frame is one level of an in-progress walk.
type frame struct {
	id       NodeID
	returned bool
	sorted   bool
	children []NodeID
	next     int
}

// Cursor walks a subtree in pre-order, visiting children in ascending
// order. All walk state lives in the cursor, so any number of cursors may
// walk the same tree independently.
//
//	c := t.Walk(group)
//	for c.Next() {
//		n := t.Node(c.Node())
//		...
//	}
//	if err := c.Err(); err != nil { ... }
//
// Once Next reports false the cursor rewinds to its start node, and a
// further loop reproduces the same sequence.
type Cursor struct {
	tree   *Tree
	start  NodeID
	stack  []frame
	onPath map[NodeID]bool
	cur    NodeID
	err    error
}

// Walk returns a cursor positioned before start.
func (t *Tree) Walk(start NodeID) *Cursor {
	c := &Cursor{tree: t, start: start}
	c.Reset()
	return c
}

// Reset rewinds the cursor to before its start node and clears any error.
func (c *Cursor) Reset() {
	c.stack = append(c.stack[:0], frame{id: c.start})
	c.onPath = map[NodeID]bool{c.start: true}
	c.cur = None
	c.err = nil
}

// Next advances to the next node. It returns false when the walk is done
// or has failed; Err tells the two apart.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}
	if c.tree.Node(c.start) == nil {
		c.err = fmt.Errorf("walk: no node %d", c.start)
		return false
	}

	for len(c.stack) > 0 {
		top := &c.stack[len(c.stack)-1]
		if !top.returned {
			top.returned = true
			c.cur = top.id
			return true
		}

		if !top.sorted {
			children, err := c.tree.SortedChildren(top.id)
			if err != nil {
				c.fail(err)
				return false
			}
			top.children = children
			top.sorted = true
		}

		if top.next >= len(top.children) {
			delete(c.onPath, top.id)
			c.stack = c.stack[:len(c.stack)-1]
			continue
		}

		child := top.children[top.next]
		top.next++
		if c.onPath[child] {
			c.fail(fmt.Errorf("%w: %q under %q", ErrCycle,
				c.tree.nodes[child].LinkbaseLabel, c.tree.nodes[top.id].LinkbaseLabel))
			return false
		}
		c.onPath[child] = true
		c.stack = append(c.stack, frame{id: child})
	}

	c.Reset()
	return false
}

func (c *Cursor) fail(err error) {
	c.err = err
	c.cur = None
	c.stack = c.stack[:0]
}

// Node returns the node the cursor is on, or None outside a walk.
func (c *Cursor) Node() NodeID { return c.cur }

// Depth returns how far the current node lies below the start node, which
// is at depth 0. Outside a walk it is -1.
func (c *Cursor) Depth() int {
	if c.cur == None {
		return -1
	}
	return len(c.stack) - 1
}

// Err returns the error that stopped the walk, if any.
func (c *Cursor) Err() error { return c.err }

// Collect walks the subtree at start and returns every visited node.
func (t *Tree) Collect(start NodeID) ([]NodeID, error) {
	var out []NodeID
	c := t.Walk(start)
	for c.Next() {
		out = append(out, c.Node())
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// All yields the subtree at start in walk order. A walk failure is yielded
// once with None and ends the sequence.
func (t *Tree) All(start NodeID) iter.Seq2[NodeID, error] {
	return func(yield func(NodeID, error) bool) {
		c := t.Walk(start)
		for c.Next() {
			if !yield(c.Node(), nil) {
				return
			}
		}
		if err := c.Err(); err != nil {
			yield(None, err)
		}
	}
}
