// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package hufftree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCollision  = errors.New("leaf path collides with the tree")
	ErrIncomplete = errors.New("tree has an internal node missing a child")
	ErrEmpty      = errors.New("tree has no leaves")
)

// Reconstruct grows a tree from explicit leaf paths,
// creating internal nodes on demand along each path.
// No frequencies are involved, so the result does not depend on
// how the original tree was built.
//
// Leaf order does not matter.
// Frequencies carried in the leaves are kept on the new leaf nodes.
func Reconstruct(leaves []Leaf) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmpty
	}

	t := &Tree{root: 0}
	t.nodes = append(t.nodes, Node{Zero: none, One: none})
	seen := make(map[byte]bool, len(leaves))

	for _, l := range leaves {
		if seen[l.Symbol] {
			return nil, fmt.Errorf("%w: symbol %d appears twice", ErrCollision, l.Symbol)
		}
		seen[l.Symbol] = true
		if l.Path == "" || strings.Trim(l.Path, "01") != "" {
			return nil, fmt.Errorf("%w: bad path %q for symbol %d", ErrCollision, l.Path, l.Symbol)
		}

		at := t.root
		for i := 0; i < len(l.Path); i++ {
			if t.nodes[at].Leaf {
				return nil, fmt.Errorf("%w: path %q runs through a leaf", ErrCollision, l.Path)
			}
			child := &t.nodes[at].Zero
			if l.Path[i] == '1' {
				child = &t.nodes[at].One
			}
			last := i == len(l.Path)-1

			if *child != none {
				if last {
					return nil, fmt.Errorf("%w: path %q is already taken", ErrCollision, l.Path)
				}
				at = *child
				continue
			}

			n := Node{Zero: none, One: none, Path: l.Path[:i+1]}
			if last {
				n.Leaf, n.Symbol, n.Freq = true, l.Symbol, l.Freq
			}
			*child = len(t.nodes)
			t.nodes = append(t.nodes, n) // child pointer is dead after this
			at = len(t.nodes) - 1
		}
	}

	// the single-leaf root with only a zero child is the one allowed gap
	if len(leaves) == 1 && leaves[0].Path == "0" {
		return t, nil
	}
	for _, n := range t.nodes {
		if !n.Leaf && (n.Zero == none || n.One == none) {
			return nil, fmt.Errorf("%w: at path %q", ErrIncomplete, n.Path)
		}
	}
	return t, nil
}
