// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package hufftree

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/elliotnunn/huffbin/internal/bitpack"
	"github.com/elliotnunn/huffbin/internal/freq"
)

var (
	ErrEncodingGap  = errors.New("symbol has no code and there is no fallback code")
	ErrInconsistent = errors.New("code table does not match its frequencies")
)

// A Coder supplies the code for a symbol.
// Derived and externally loaded tables are interchangeable behind it.
type Coder interface {
	Code(sym byte) (string, bool)
}

// CodeTable maps each symbol to its code, a string of '0' and '1'.
type CodeTable map[byte]string

// Check that implements
var _ Coder = CodeTable(nil)

func (c CodeTable) Code(sym byte) (string, bool) {
	s, ok := c[sym]
	return s, ok && s != ""
}

// PrefixFree reports whether no code is a prefix of another.
func (c CodeTable) PrefixFree() bool {
	codes := slices.Sorted(maps.Values(c))
	for i, s := range codes {
		if s == "" {
			return false
		}
		// after sorting, a prefix sorts immediately before something it prefixes
		if i > 0 && strings.HasPrefix(s, codes[i-1]) {
			return false
		}
	}
	return true
}

// Leaves pairs each code with its count in f (zero if absent), sorted by symbol.
func (c CodeTable) Leaves(f freq.Table) []Leaf {
	ret := make([]Leaf, 0, len(c))
	for sym, code := range c {
		ret = append(ret, Leaf{Symbol: sym, Freq: f[sym], Path: code})
	}
	slices.SortFunc(ret, func(a, b Leaf) int { return cmp.Compare(a.Symbol, b.Symbol) })
	return ret
}

// Encode appends the code for each symbol of data to w.
// A symbol missing from c is written with the fallback symbol's code instead,
// and the number of such substitutions is returned.
// It fails only when a substitution is needed and the fallback has no code.
func Encode(w *bitpack.Packer, data []byte, c Coder) (substituted int, err error) {
	fallback, haveFallback := c.Code(freq.Fallback)
	for _, sym := range data {
		code, ok := c.Code(sym)
		if !ok {
			if !haveFallback {
				return substituted, fmt.Errorf("%w: symbol %d", ErrEncodingGap, sym)
			}
			code = fallback
			substituted++
		}
		w.WriteCode(code)
	}
	return substituted, nil
}

// Book is a frequency table together with the code table built from it,
// kept so that one file's code can be reused for another.
type Book struct {
	Frequencies freq.Table
	Codes       CodeTable
}

func NewBook(f freq.Table) Book {
	return Book{Frequencies: f, Codes: Build(f).Codes()}
}

func (b Book) Leaves() []Leaf {
	return b.Codes.Leaves(b.Frequencies)
}

// Validate checks that the codes form a complete prefix-code tree
// and, when frequencies are present, that they rebuild the same codes.
func (b Book) Validate() error {
	if !b.Codes.PrefixFree() {
		return fmt.Errorf("%w: codes are not prefix-free", ErrCollision)
	}
	if _, err := Reconstruct(b.Leaves()); err != nil {
		return err
	}
	if len(b.Frequencies) == 0 {
		return nil
	}
	if !maps.Equal(Build(b.Frequencies).Codes(), b.Codes) {
		return ErrInconsistent
	}
	return nil
}
