// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package source opens input files, optionally looking through
// a gzip, bzip2, xz or zstd wrapper to the bytes inside.
package source

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/therootcompany/xz"
)

type Kind int

const (
	Plain Kind = iota
	Gzip
	Bzip2
	Xz
	Zstd
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case Xz:
		return "xz"
	case Zstd:
		return "zstd"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// unwrapped closes the decompressor, when it has a Close method, and then the file.
type unwrapped struct {
	io.Reader
	f *os.File
}

func (u unwrapped) Close() error {
	if c, ok := u.Reader.(io.Closer); ok {
		c.Close()
	}
	return u.f.Close()
}

// Open opens name for reading.
// With unwrap set, a recognised compression wrapper is removed on the fly
// and its Kind is reported; otherwise the file is read as is.
func Open(name string, unwrap bool) (io.ReadCloser, Kind, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, Plain, err
	}
	if !unwrap {
		return f, Plain, nil
	}

	br := bufio.NewReader(f)
	r, k, err := probe(br)
	if err != nil {
		f.Close()
		return nil, Plain, fmt.Errorf("%s: %s: %w", name, k, err)
	}
	return unwrapped{r, f}, k, nil
}

func probe(br *bufio.Reader) (io.Reader, Kind, error) {
	header, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return nil, Plain, err
	}
	matchAt := func(s string, offset int) bool {
		return len(header) >= offset+len(s) && string(header[offset:][:len(s)]) == s
	}

	switch {
	case matchAt("\x1f\x8b", 0):
		r, err := gzip.NewReader(br)
		return r, Gzip, err
	case matchAt("BZh", 0):
		return bzip2.NewReader(br), Bzip2, nil
	case matchAt("\xfd7zXZ\x00", 0):
		r, err := xz.NewReader(br, xz.DefaultDictMax)
		return r, Xz, err
	case matchAt("\x28\xb5\x2f\xfd", 0):
		d, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, Zstd, err
		}
		return d.IOReadCloser(), Zstd, nil
	}
	return br, Plain, nil
}

// ReadAll reads the whole of name, unwrapping it as Open does.
func ReadAll(name string, unwrap bool) ([]byte, Kind, error) {
	r, k, err := Open(name, unwrap)
	if err != nil {
		return nil, k, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, k, fmt.Errorf("%s: %s: %w", name, k, err)
	}
	return data, k, nil
}

// TrimSuffix removes a compression suffix from a file name,
// turning the tarball shorthands back into ".tar".
func TrimSuffix(name string) string {
	return changeSuffix(name, ".gz .gzip .tgz=.tar .bz .bz2 .bzip2 .tbz=.tar .tb2=.tar .xz .txz=.tar .zst .zstd .tzst=.tar")
}

func changeSuffix(s string, suffixes string) string {
	for _, rule := range strings.Split(suffixes, " ") {
		from, to, _ := strings.Cut(rule, "=")
		if strings.HasSuffix(s, from) && len(s) > len(from) {
			return s[:len(s)-len(from)] + to
		}
	}
	return s
}
