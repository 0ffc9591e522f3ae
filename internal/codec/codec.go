// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package codec ties the Huffman stages together:
// count, build, encode, pack and frame on the way in,
// then parse, rebuild and decode on the way out.
package codec

import (
	"bytes"
	"fmt"

	"github.com/elliotnunn/huffbin/internal/bitpack"
	"github.com/elliotnunn/huffbin/internal/container"
	"github.com/elliotnunn/huffbin/internal/decode"
	"github.com/elliotnunn/huffbin/internal/freq"
	"github.com/elliotnunn/huffbin/internal/hufftree"
)

var (
	ErrFormat      = container.ErrFormat
	ErrEncodingGap = hufftree.ErrEncodingGap
	ErrCorrupt     = decode.ErrCorrupt
)

type Options struct {
	Format container.Format

	// Book, if set, is used instead of a table derived from the input.
	// Symbols it lacks are encoded as the fallback symbol.
	Book *hufftree.Book

	Unwrap  bool // look through gzip, bzip2 and xz wrappers (files only)
	Replace bool // overwrite existing output files
}

type Stats struct {
	Book        hufftree.Book // the table actually used
	Bits        int64         // meaningful payload bits
	Padding     int
	Substituted int // symbols written as the fallback
}

// Compress encodes data into a complete container.
func Compress(data []byte, opt Options) ([]byte, Stats, error) {
	var book hufftree.Book
	if opt.Book != nil {
		book = *opt.Book
		if err := book.Validate(); err != nil {
			return nil, Stats{}, fmt.Errorf("%w: supplied table: %w", ErrFormat, err)
		}
	} else {
		book = hufftree.NewBook(freq.Count(data))
	}
	if opt.Format == container.Frequencies && len(book.Frequencies) == 0 {
		return nil, Stats{}, fmt.Errorf("%w: a frequency header needs a table with frequencies", ErrFormat)
	}

	var p bitpack.Packer
	n, err := hufftree.Encode(&p, data, book.Codes)
	if err != nil {
		return nil, Stats{}, err
	}
	bits := p.Bits()
	payload, padding := p.Flush()

	var buf bytes.Buffer
	buf.Grow(len(payload) + 16*len(book.Codes))
	h := container.Header{Format: opt.Format, Leaves: book.Leaves(), Padding: padding}
	if err := container.Write(&buf, h, payload); err != nil {
		return nil, Stats{}, err
	}
	return buf.Bytes(), Stats{Book: book, Bits: bits, Padding: padding, Substituted: n}, nil
}

// Decompress recovers the original bytes from a container.
// The header carries its own tree, so opt.Book is not consulted.
func Decompress(blob []byte, opt Options) ([]byte, error) {
	h, payload, err := container.Read(bytes.NewReader(blob), opt.Format)
	if err != nil {
		return nil, err
	}
	t, err := h.Tree()
	if err != nil {
		return nil, err
	}
	return decode.Decode(t, payload, h.Padding)
}
