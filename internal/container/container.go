// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package container reads and writes the compressed file layout:
//
//	line 1: tree description, space-separated decimal tokens
//	line 2: padding bit count, 0 to 7
//	rest:   packed payload, most significant bit first
//
// The tree description comes in two forms that cannot be told apart
// by looking at them, so the caller names the one in use.
package container

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/elliotnunn/huffbin/internal/freq"
	"github.com/elliotnunn/huffbin/internal/hufftree"
)

var ErrFormat = errors.New("malformed container header")

type Format int

const (
	// LeafPaths lists "<path> <symbol>" for every leaf.
	// The decoder rebuilds the tree directly from the paths.
	LeafPaths Format = iota

	// Frequencies lists "<symbol> <count>" in ascending symbol order.
	// The decoder replays the tree construction,
	// so both sides must merge ties identically.
	Frequencies
)

func (f Format) String() string {
	switch f {
	case LeafPaths:
		return "paths"
	case Frequencies:
		return "freqs"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

func ParseFormat(s string) (Format, error) {
	switch s {
	case "paths":
		return LeafPaths, nil
	case "freqs":
		return Frequencies, nil
	}
	return 0, fmt.Errorf("unknown header format %q (want paths or freqs)", s)
}

type Header struct {
	Format  Format
	Leaves  []hufftree.Leaf
	Padding int
}

// Tree rebuilds the code tree the header describes.
func (h Header) Tree() (*hufftree.Tree, error) {
	switch h.Format {
	case LeafPaths:
		t, err := hufftree.Reconstruct(h.Leaves)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		return t, nil
	case Frequencies:
		if len(h.Leaves) == 0 {
			return nil, fmt.Errorf("%w: %w", ErrFormat, hufftree.ErrEmpty)
		}
		entries := make([]freq.Entry, len(h.Leaves))
		for i, l := range h.Leaves {
			entries[i] = freq.Entry{Symbol: l.Symbol, Count: l.Freq}
		}
		return hufftree.BuildOrdered(entries), nil
	}
	return nil, fmt.Errorf("%w: unknown format %d", ErrFormat, h.Format)
}

// Write emits the two header lines and then the payload.
func Write(w io.Writer, h Header, payload []byte) error {
	if h.Padding < 0 || h.Padding > 7 {
		return fmt.Errorf("%w: padding %d", ErrFormat, h.Padding)
	}
	if len(h.Leaves) == 0 {
		return fmt.Errorf("%w: %w", ErrFormat, hufftree.ErrEmpty)
	}

	bw := bufio.NewWriter(w)
	switch h.Format {
	case LeafPaths:
		bw.WriteString(pathTokens(h.Leaves))
	case Frequencies:
		bw.WriteString(freqTokens(h.Leaves))
	default:
		return fmt.Errorf("%w: unknown format %d", ErrFormat, h.Format)
	}
	bw.WriteByte('\n')
	bw.WriteString(strconv.Itoa(h.Padding))
	bw.WriteByte('\n')
	bw.Write(payload)
	return bw.Flush()
}

func Marshal(h Header, payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, h, payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read parses the header lines and returns everything after them as the payload.
// Read errors from r come back unchanged; bad header content is ErrFormat.
func Read(r io.Reader, f Format) (Header, []byte, error) {
	br := bufio.NewReader(r)
	desc, err := readLine(br)
	if err != nil {
		return Header{}, nil, err
	}
	pad, err := readLine(br)
	if err != nil {
		return Header{}, nil, err
	}

	h := Header{Format: f}
	switch f {
	case LeafPaths:
		h.Leaves, err = parsePathTokens(desc)
	case Frequencies:
		h.Leaves, err = parseFreqTokens(desc)
	default:
		err = fmt.Errorf("%w: unknown format %d", ErrFormat, f)
	}
	if err != nil {
		return Header{}, nil, err
	}
	if len(h.Leaves) == 0 {
		return Header{}, nil, fmt.Errorf("%w: empty tree description", ErrFormat)
	}

	h.Padding, err = strconv.Atoi(strings.TrimSpace(pad))
	if err != nil || h.Padding < 0 || h.Padding > 7 {
		return Header{}, nil, fmt.Errorf("%w: padding %q", ErrFormat, pad)
	}

	payload, err := io.ReadAll(br)
	if err != nil {
		return Header{}, nil, err
	}
	return h, payload, nil
}

func readLine(br *bufio.Reader) (string, error) {
	s, err := br.ReadString('\n')
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: header line missing", ErrFormat)
	} else if err != nil {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func pathTokens(leaves []hufftree.Leaf) string {
	var sb strings.Builder
	for i, l := range leaves {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s %d", l.Path, l.Symbol)
	}
	return sb.String()
}

func freqTokens(leaves []hufftree.Leaf) string {
	sorted := slices.Clone(leaves)
	slices.SortFunc(sorted, func(a, b hufftree.Leaf) int { return int(a.Symbol) - int(b.Symbol) })
	var sb strings.Builder
	for i, l := range sorted {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d %d", l.Symbol, l.Freq)
	}
	return sb.String()
}

// pairs splits a line into whitespace-separated token pairs.
// Older files end the line with a space, which this tolerates.
func pairs(line string) ([][2]string, error) {
	fields := strings.Fields(line)
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("%w: odd token count %d", ErrFormat, len(fields))
	}
	ret := make([][2]string, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		ret = append(ret, [2]string{fields[i], fields[i+1]})
	}
	return ret, nil
}

func parseSymbol(tok string) (byte, error) {
	n, err := strconv.ParseUint(tok, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: bad symbol %q", ErrFormat, tok)
	}
	return byte(n), nil
}

func parsePathTokens(line string) ([]hufftree.Leaf, error) {
	ps, err := pairs(line)
	if err != nil {
		return nil, err
	}
	leaves := make([]hufftree.Leaf, 0, len(ps))
	for _, p := range ps {
		if strings.Trim(p[0], "01") != "" {
			return nil, fmt.Errorf("%w: bad path %q", ErrFormat, p[0])
		}
		sym, err := parseSymbol(p[1])
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, hufftree.Leaf{Symbol: sym, Path: p[0]})
	}
	return leaves, nil
}

func parseFreqTokens(line string) ([]hufftree.Leaf, error) {
	ps, err := pairs(line)
	if err != nil {
		return nil, err
	}
	leaves := make([]hufftree.Leaf, 0, len(ps))
	seen := make(map[byte]bool)
	for _, p := range ps {
		sym, err := parseSymbol(p[0])
		if err != nil {
			return nil, err
		}
		if seen[sym] {
			return nil, fmt.Errorf("%w: symbol %d counted twice", ErrFormat, sym)
		}
		seen[sym] = true
		n, err := strconv.ParseInt(p[1], 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad count %q", ErrFormat, p[1])
		}
		leaves = append(leaves, hufftree.Leaf{Symbol: sym, Freq: n})
	}
	return leaves, nil
}
