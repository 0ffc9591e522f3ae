// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package decode walks a packed bit stream through a Huffman tree.
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/elliotnunn/huffbin/internal/bitpack"
	"github.com/elliotnunn/huffbin/internal/hufftree"
)

var ErrCorrupt = errors.New("bit stream does not match the code tree")

type State int

const (
	AtRoot State = iota
	AtInternal
	AtLeaf
)

func (s State) String() string {
	switch s {
	case AtRoot:
		return "at-root"
	case AtInternal:
		return "at-internal"
	case AtLeaf:
		return "at-leaf"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Engine is the decoding state machine.
// After a leaf is reached it is back at the root, ready for the next code.
type Engine struct {
	tree *hufftree.Tree
	node int
}

func New(t *hufftree.Tree) *Engine {
	return &Engine{tree: t, node: t.Root()}
}

func (e *Engine) State() State {
	if e.node == e.tree.Root() {
		return AtRoot
	}
	return AtInternal
}

// Step consumes one bit: 0 goes to the zero child, 1 to the one child.
// When that child is a leaf, Step returns AtLeaf and the leaf's symbol.
func (e *Engine) Step(bit uint8) (State, byte, error) {
	n := e.tree.Node(e.node)
	next := n.Zero
	if bit != 0 {
		next = n.One
	}
	if next < 0 {
		return e.State(), 0, fmt.Errorf("%w: no branch %d below %q", ErrCorrupt, bit, n.Path)
	}

	child := e.tree.Node(next)
	if child.Leaf {
		e.node = e.tree.Root()
		return AtLeaf, child.Symbol, nil
	}
	e.node = next
	return AtInternal, 0, nil
}

// Finish checks that the stream ended on a code boundary.
func (e *Engine) Finish() error {
	if e.State() != AtRoot {
		return fmt.Errorf("%w: stream ends partway through a code", ErrCorrupt)
	}
	return nil
}

// Decode recovers the symbols from a packed payload.
// The last byte's padding bits must be zero, and the meaningful bits
// must end exactly where a code ends.
func Decode(t *hufftree.Tree, payload []byte, padding int) ([]byte, error) {
	br, err := bitpack.NewReader(payload, padding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if !br.PaddingClean() {
		return nil, fmt.Errorf("%w: padding bits are not zero", ErrCorrupt)
	}

	e := New(t)
	out := make([]byte, 0, len(payload)*2)
	for {
		bit, err := br.ReadBit()
		if errors.Is(err, io.EOF) {
			break
		}
		state, sym, err := e.Step(bit)
		if err != nil {
			return nil, err
		}
		if state == AtLeaf {
			out = append(out, sym)
		}
	}
	if err := e.Finish(); err != nil {
		return nil, err
	}
	return out, nil
}
