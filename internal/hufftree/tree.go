// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package hufftree builds Huffman prefix-code trees and the code tables
// derived from them.
//
// Nodes live in a flat slice and refer to their children by index.
// Each node records its own path from the root, so a symbol's code
// is read straight off its leaf.
package hufftree

import (
	"cmp"
	"slices"

	"github.com/elliotnunn/huffbin/internal/freq"
)

const none = -1

type Node struct {
	Freq      int64
	Leaf      bool
	Symbol    byte // leaf only
	Zero, One int  // child indices, or -1
	Path      string
}

// Leaf describes one symbol's place in a tree.
type Leaf struct {
	Symbol byte
	Freq   int64
	Path   string
}

type Tree struct {
	nodes []Node
	root  int
}

func (t *Tree) Root() int        { return t.root }
func (t *Tree) Node(i int) *Node { return &t.nodes[i] }
func (t *Tree) Len() int         { return len(t.nodes) }

// Build seeds one leaf per table entry in ascending symbol order
// and merges them with BuildOrdered.
func Build(tab freq.Table) *Tree {
	return BuildOrdered(tab.Entries())
}

// BuildOrdered runs the greedy Huffman merge over leaves seeded in the given order.
//
// Every round the working list is stably sorted by frequency,
// the first two nodes become the zero and one children of a new node,
// and the new node goes on the end of the list.
// Equal frequencies therefore keep their list order,
// and the same entries in the same order always give the same tree.
//
// A single entry gets a root with only a zero child, so its code is "0".
func BuildOrdered(entries []freq.Entry) *Tree {
	t := &Tree{root: none}
	if len(entries) == 0 {
		return t
	}

	type item struct {
		node    int
		members []int // every node in the subtree, for path propagation
	}
	work := make([]item, 0, len(entries))
	for _, e := range entries {
		t.nodes = append(t.nodes, Node{Freq: e.Count, Leaf: true, Symbol: e.Symbol, Zero: none, One: none})
		work = append(work, item{len(t.nodes) - 1, []int{len(t.nodes) - 1}})
	}

	if len(work) == 1 {
		leaf := work[0].node
		t.nodes[leaf].Path = "0"
		t.nodes = append(t.nodes, Node{Freq: t.nodes[leaf].Freq, Zero: leaf, One: none})
		t.root = len(t.nodes) - 1
		return t
	}

	for len(work) > 1 {
		slices.SortStableFunc(work, func(a, b item) int {
			return cmp.Compare(t.nodes[a.node].Freq, t.nodes[b.node].Freq)
		})
		zero, one := work[0], work[1]
		work = work[2:]

		for _, m := range zero.members {
			t.nodes[m].Path = "0" + t.nodes[m].Path
		}
		for _, m := range one.members {
			t.nodes[m].Path = "1" + t.nodes[m].Path
		}

		t.nodes = append(t.nodes, Node{
			Freq: t.nodes[zero.node].Freq + t.nodes[one.node].Freq,
			Zero: zero.node,
			One:  one.node,
		})
		parent := len(t.nodes) - 1
		work = append(work, item{parent, slices.Concat(zero.members, one.members, []int{parent})})
	}
	t.root = work[0].node
	return t
}

// Leaves lists every leaf, sorted by symbol.
func (t *Tree) Leaves() []Leaf {
	var ret []Leaf
	for _, n := range t.nodes {
		if n.Leaf {
			ret = append(ret, Leaf{Symbol: n.Symbol, Freq: n.Freq, Path: n.Path})
		}
	}
	slices.SortFunc(ret, func(a, b Leaf) int { return cmp.Compare(a.Symbol, b.Symbol) })
	return ret
}

// Codes reads each leaf's path into a code table.
func (t *Tree) Codes() CodeTable {
	c := make(CodeTable)
	for _, n := range t.nodes {
		if n.Leaf {
			c[n.Symbol] = n.Path
		}
	}
	return c
}
