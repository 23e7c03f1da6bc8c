// Package containing the rooted tree model used by phyclust. Trees are read
// with gotree and converted into the immutable Tree defined here, which keeps
// the child order of the input file.
package graphs

import (
	"errors"

	"github.com/evolbioinfo/gotree/tree"
)

var ErrEmptyTree = errors.New("empty tree")

// Length given to edges that have none in the input file
const DefaultLength = 1.0

// Node of a rooted tree. Nodes are immutable once built.
type Node struct {
	label    string
	length   float64 // length of the edge to the parent
	children []*Node
}

// Makes a new node; children are copied so the caller keeps ownership of its
// slice.
func NewNode(label string, length float64, children ...*Node) *Node {
	return &Node{
		label:    label,
		length:   length,
		children: append([]*Node(nil), children...),
	}
}

func (n *Node) Label() string { return n.label }

// Length of the edge between n and its parent
func (n *Node) Length() float64 { return n.length }

// Children in input order. The returned slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

func (n *Node) NumChildren() int { return len(n.children) }

func (n *Node) Tip() bool { return len(n.children) == 0 }

// Rooted tree with precomputed traversal data
type Tree struct {
	root     *Node
	nodes    []*Node       // pre-order, children left to right
	tips     []*Node       // leaves in depth-first, left to right order
	tipIndex map[*Node]int // leaf -> index into tips
}

// Makes tree rooted at root
func NewTree(root *Node) *Tree {
	t := &Tree{root: root, tipIndex: make(map[*Node]int)}
	stack := []*Node{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t.nodes = append(t.nodes, cur)
		if cur.Tip() {
			t.tipIndex[cur] = len(t.tips)
			t.tips = append(t.tips, cur)
			continue
		}
		for i := len(cur.children) - 1; i >= 0; i-- {
			stack = append(stack, cur.children[i])
		}
	}
	return t
}

// Converts a gotree tree. Edge lengths that are not set in the input are
// DefaultLength; the root has no edge, so its length is 0.
func FromGotree(tre *tree.Tree) (*Tree, error) {
	if tre == nil || tre.Root() == nil {
		return nil, ErrEmptyTree
	}
	built := make(map[*tree.Node]*Node, len(tre.Nodes()))
	tre.PostOrder(func(cur, prev *tree.Node, e *tree.Edge) (keep bool) {
		length := 0.0
		if e != nil {
			if length = e.Length(); length == tree.NIL_LENGTH {
				length = DefaultLength
			}
		}
		children := make([]*Node, 0, len(cur.Neigh()))
		for _, u := range cur.Neigh() {
			if u != prev {
				children = append(children, built[u])
			}
		}
		built[cur] = &Node{label: cur.Name(), length: length, children: children}
		return true
	})
	return NewTree(built[tre.Root()]), nil
}

func (t *Tree) Root() *Node { return t.root }

// Leaves in depth-first, left to right order
func (t *Tree) Tips() []*Node { return t.tips }

func (t *Tree) NumTips() int { return len(t.tips) }

func (t *Tree) NumNodes() int { return len(t.nodes) }

// Position of leaf n in Tips()
func (t *Tree) TipIndex(n *Node) (int, bool) {
	i, ok := t.tipIndex[n]
	return i, ok
}

// Root has no children
func (t *Tree) Degenerate() bool { return t.root.Tip() }

// Calls f on every node, parents before children, siblings left to right.
// Stops early if f returns false.
func (t *Tree) PreOrder(f func(n *Node) (keep bool)) {
	for _, n := range t.nodes {
		if !f(n) {
			return
		}
	}
}

// Calls f on every node after all of its descendants
func (t *Tree) PostOrder(f func(n *Node)) {
	for i := len(t.nodes) - 1; i >= 0; i-- {
		f(t.nodes[i])
	}
}

// Calls f on every node except the root
func (t *Tree) Descendants(f func(n *Node)) {
	t.PreOrder(func(n *Node) bool {
		if n != t.root {
			f(n)
		}
		return true
	})
}
