// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package codec

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/elliotnunn/huffbin/internal/atomicfile"
	"github.com/elliotnunn/huffbin/internal/container"
	"github.com/elliotnunn/huffbin/internal/hufftree"
	"github.com/elliotnunn/huffbin/internal/source"
)

const (
	CompressedSuffix   = "-compressed.bin"
	UncompressedSuffix = "-uncompressed.txt"
	TableSuffix        = "-encoder.tbl"
	compressedTag      = "-compressed"
)

type Result struct {
	Input, Output         string
	SizeBefore, SizeAfter int64
	Stats
}

// Ratio is the percentage of the input saved, negative when the output grew.
func (r Result) Ratio() float64 {
	if r.SizeBefore == 0 {
		return 0
	}
	return float64(r.SizeBefore-r.SizeAfter) / float64(r.SizeBefore) * 100
}

// BaseName derives the stem used for output files:
// the directory, any compression suffix, the extension
// and a trailing "-compressed" are all removed.
func BaseName(name string) string {
	base := source.TrimSuffix(filepath.Base(name))
	if ext := filepath.Ext(base); len(ext) < len(base) {
		base = base[:len(base)-len(ext)]
	}
	if s := strings.TrimSuffix(base, compressedTag); s != "" {
		base = s
	}
	return base
}

func outputPath(src, destDir, base, suffix string) string {
	if destDir == "" {
		destDir = filepath.Dir(src)
	}
	if base == "" {
		base = BaseName(src)
	}
	return filepath.Join(destDir, base+suffix)
}

// CompressFile compresses src into destDir/base-compressed.bin.
// An empty destDir means the directory of src, and an empty base means BaseName(src).
// Nothing is written unless the whole operation succeeds.
func CompressFile(src, destDir, base string, opt Options) (Result, error) {
	data, kind, err := source.ReadAll(src, opt.Unwrap)
	if err != nil {
		return Result{}, err
	}
	if kind != source.Plain {
		slog.Debug("inputUnwrapped", "input", src, "kind", kind, "size", len(data))
	}

	out, stats, err := Compress(data, opt)
	if err != nil {
		return Result{}, err
	}
	if stats.Substituted > 0 {
		slog.Warn("fallbackSubstituted", "input", src, "count", stats.Substituted)
	}

	r := Result{
		Input:      src,
		Output:     outputPath(src, destDir, base, CompressedSuffix),
		SizeBefore: int64(len(data)),
		SizeAfter:  int64(len(out)),
		Stats:      stats,
	}
	if err := atomicfile.WriteFile(r.Output, out, 0o644, opt.Replace); err != nil {
		return Result{}, err
	}
	slog.Debug("compressDone", "input", src, "output", r.Output,
		"symbols", len(stats.Book.Codes), "bits", stats.Bits, "padding", stats.Padding)
	return r, nil
}

// DecompressFile restores src into destDir/base-uncompressed.txt.
func DecompressFile(src, destDir, base string, opt Options) (Result, error) {
	blob, err := os.ReadFile(src)
	if err != nil {
		return Result{}, err
	}
	out, err := Decompress(blob, opt)
	if err != nil {
		return Result{}, err
	}

	r := Result{
		Input:      src,
		Output:     outputPath(src, destDir, base, UncompressedSuffix),
		SizeBefore: int64(len(blob)),
		SizeAfter:  int64(len(out)),
	}
	if err := atomicfile.WriteFile(r.Output, out, 0o644, opt.Replace); err != nil {
		return Result{}, err
	}
	slog.Debug("decompressDone", "input", src, "output", r.Output, "size", len(out))
	return r, nil
}

// SaveBook writes a table file that LoadBook can read back.
func SaveBook(name string, b hufftree.Book, replace bool) error {
	return atomicfile.WriteFile(name, container.MarshalBook(b), 0o644, replace)
}

func LoadBook(name string) (hufftree.Book, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return hufftree.Book{}, err
	}
	return container.UnmarshalBook(data)
}
