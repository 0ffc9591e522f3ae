// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package freq counts symbol occurrences for building a Huffman code.
package freq

import (
	"bufio"
	"errors"
	"io"
	"slices"
)

// Fallback is the symbol whose code stands in for any symbol
// that a code table lacks. Every Table contains it.
const Fallback byte = '_'

// Table maps a symbol to the number of times it occurs.
type Table map[byte]int64

type Entry struct {
	Symbol byte
	Count  int64
}

// Analyze reads r to EOF and counts every byte.
// Read errors are returned unchanged.
func Analyze(r io.Reader) (Table, error) {
	var counts [256]int64
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
		counts[b]++
	}
	return fromArray(&counts), nil
}

// Count is Analyze for data already in memory.
func Count(data []byte) Table {
	var counts [256]int64
	for _, b := range data {
		counts[b]++
	}
	return fromArray(&counts)
}

func fromArray(counts *[256]int64) Table {
	t := make(Table)
	for sym, n := range counts {
		if n != 0 {
			t[byte(sym)] = n
		}
	}
	if _, ok := t[Fallback]; !ok {
		t[Fallback] = 0
	}
	return t
}

// Total is the sum of all counts, equal to the length of the analyzed input.
func (t Table) Total() int64 {
	var sum int64
	for _, n := range t {
		sum += n
	}
	return sum
}

func (t Table) Distinct() int {
	return len(t)
}

// Entries returns the table in ascending symbol order,
// which is the order trees are seeded in.
func (t Table) Entries() []Entry {
	ret := make([]Entry, 0, len(t))
	for sym, n := range t {
		ret = append(ret, Entry{sym, n})
	}
	slices.SortFunc(ret, func(a, b Entry) int { return int(a.Symbol) - int(b.Symbol) })
	return ret
}
