// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package container

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/elliotnunn/huffbin/internal/freq"
	"github.com/elliotnunn/huffbin/internal/hufftree"
)

// MarshalBook writes a reusable code table as two token lines:
// the frequencies ("<symbol> <count>") and then the codes ("<path> <symbol>").
func MarshalBook(b hufftree.Book) []byte {
	var buf bytes.Buffer
	freqLeaves := make([]hufftree.Leaf, 0, len(b.Frequencies))
	for _, e := range b.Frequencies.Entries() {
		freqLeaves = append(freqLeaves, hufftree.Leaf{Symbol: e.Symbol, Freq: e.Count})
	}
	buf.WriteString(freqTokens(freqLeaves))
	buf.WriteByte('\n')
	buf.WriteString(pathTokens(b.Leaves()))
	buf.WriteByte('\n')
	return buf.Bytes()
}

// UnmarshalBook parses and validates the output of MarshalBook.
// An empty frequency line is allowed; the codes alone are enough to encode.
func UnmarshalBook(data []byte) (hufftree.Book, error) {
	br := bufio.NewReader(bytes.NewReader(data))
	lines := make([]string, 2)
	for i := range lines {
		line, err := readLine(br)
		if err != nil {
			return hufftree.Book{}, err
		}
		lines[i] = line
	}
	return parseBook(lines[0], lines[1])
}

func parseBook(freqLine, pathLine string) (hufftree.Book, error) {
	fl, err := parseFreqTokens(freqLine)
	if err != nil {
		return hufftree.Book{}, err
	}
	pl, err := parsePathTokens(pathLine)
	if err != nil {
		return hufftree.Book{}, err
	}

	b := hufftree.Book{Codes: make(hufftree.CodeTable, len(pl))}
	if len(fl) > 0 {
		b.Frequencies = make(freq.Table, len(fl))
		for _, l := range fl {
			b.Frequencies[l.Symbol] = l.Freq
		}
	}
	for _, l := range pl {
		if _, dup := b.Codes[l.Symbol]; dup {
			return hufftree.Book{}, fmt.Errorf("%w: symbol %d has two codes", ErrFormat, l.Symbol)
		}
		b.Codes[l.Symbol] = l.Path
	}
	if err := b.Validate(); err != nil {
		return hufftree.Book{}, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return b, nil
}
