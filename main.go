// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Command huffbin compresses files with a static Huffman code
// and restores them again.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/elliotnunn/huffbin/internal/codec"
	"github.com/elliotnunn/huffbin/internal/container"
	"github.com/elliotnunn/huffbin/internal/hufftree"
	"github.com/elliotnunn/huffbin/internal/tablestore"
)

const usage = `usage:
  huffbin compress [flags] FILE|GLOB...
  huffbin decompress [flags] FILE|GLOB...
  huffbin tables list|show NAME|rm NAME|import NAME FILE|export NAME FILE

Run "huffbin COMMAND -h" for the flags of each command.
Environment: HUFFBIN_STORE (table store directory), HUFFBIN_JOBS (files at once).
`

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	switch args[0] {
	case "compress":
		return cmdCompress(args[1:], cfg, stdout, stderr)
	case "decompress":
		return cmdDecompress(args[1:], cfg, stdout, stderr)
	case "tables":
		return cmdTables(args[1:], cfg, stdout, stderr)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return exitOK
	}
	fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
	return exitUsage
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// lazyStore opens the table store on first use.
type lazyStore struct {
	dir string
	s   *tablestore.Store
}

func (l *lazyStore) get() (*tablestore.Store, error) {
	if l.s != nil {
		return l.s, nil
	}
	if l.dir == "" {
		return nil, errors.New("no table store directory: set HUFFBIN_STORE")
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, err
	}
	s, err := tablestore.Open(l.dir)
	if err != nil {
		return nil, err
	}
	l.s = s
	return s, nil
}

func (l *lazyStore) Close() {
	if l.s != nil {
		l.s.Close()
	}
}

// loadTable reads a table file if one exists at arg, or else a stored table of that name.
func loadTable(arg string, st *lazyStore) (hufftree.Book, error) {
	if _, err := os.Stat(arg); err == nil {
		return codec.LoadBook(arg)
	}
	s, err := st.get()
	if err != nil {
		return hufftree.Book{}, err
	}
	return s.Get(arg)
}

func cmdCompress(args []string, cfg config, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("compress", flag.ContinueOnError)
	fset.SetOutput(stderr)
	outDir := fset.String("o", "", "output directory (default: beside each input)")
	table := fset.String("table", "", "encode with this table file or stored table instead of deriving one")
	saveTable := fset.String("save-table", "", "store the table used under this name")
	writeTable := fset.Bool("write-table", false, "also write BASE"+codec.TableSuffix+" beside the output")
	header := fset.String("header", "paths", "tree description in the header: paths or freqs")
	unwrap := fset.Bool("unwrap", false, "compress the contents of gzip, bzip2, xz and zstd files")
	force := fset.Bool("f", false, "overwrite existing output files")
	jobs := fset.Int("j", cfg.jobs, "files to compress at once")
	verbose := fset.Bool("v", false, "debug logging")
	if err := fset.Parse(args); err != nil {
		return parseStatus(err)
	}
	setupLogging(stderr, *verbose)

	format, err := container.ParseFormat(*header)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	files, err := expand(fset.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if len(files) == 0 {
		fmt.Fprintln(stderr, "compress: no input files")
		return exitUsage
	}
	if *saveTable != "" && *table == "" && len(files) > 1 {
		fmt.Fprintln(stderr, "compress: -save-table with several inputs needs -table, since each file would derive its own table")
		return exitUsage
	}

	if err := makeOutDir(*outDir); err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}

	st := &lazyStore{dir: cfg.store}
	defer st.Close()

	opt := codec.Options{Format: format, Unwrap: *unwrap, Replace: *force}
	if *table != "" {
		b, err := loadTable(*table, st)
		if err != nil {
			fmt.Fprintf(stderr, "loading table %s: %v\n", *table, err)
			return exitFail
		}
		opt.Book = &b
	}

	results := runBatch(files, *jobs, func(name string) (codec.Result, error) {
		r, err := codec.CompressFile(name, *outDir, "", opt)
		if err != nil || !*writeTable {
			return r, err
		}
		tbl := filepath.Join(filepath.Dir(r.Output), codec.BaseName(name)+codec.TableSuffix)
		return r, codec.SaveBook(tbl, r.Book, *force)
	})

	status := exitOK
	for i, r := range results {
		if r.err != nil {
			fmt.Fprintf(stderr, "Failed to compress %s: %v\n", files[i], describe(r.err))
			status = exitFail
			continue
		}
		fmt.Fprintf(stdout, "Successfully compressed %s by %.2f%%\n", r.Input, r.Ratio())
	}

	if *saveTable != "" {
		for _, r := range results {
			if r.err != nil {
				continue
			}
			if err := storeTable(st, *saveTable, r.Book, stdout); err != nil {
				fmt.Fprintf(stderr, "saving table %s: %v\n", *saveTable, err)
				status = exitFail
			}
			break
		}
	}
	return status
}

func storeTable(st *lazyStore, name string, b hufftree.Book, stdout io.Writer) error {
	s, err := st.get()
	if err != nil {
		return err
	}
	sum, err := s.Put(name, b)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Saved table %s (%016x)\n", name, sum)
	return nil
}

func cmdDecompress(args []string, cfg config, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("decompress", flag.ContinueOnError)
	fset.SetOutput(stderr)
	outDir := fset.String("o", "", "output directory (default: beside each input)")
	header := fset.String("header", "paths", "tree description in the header: paths or freqs")
	force := fset.Bool("f", false, "overwrite existing output files")
	jobs := fset.Int("j", cfg.jobs, "files to decompress at once")
	verbose := fset.Bool("v", false, "debug logging")
	if err := fset.Parse(args); err != nil {
		return parseStatus(err)
	}
	setupLogging(stderr, *verbose)

	format, err := container.ParseFormat(*header)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	files, err := expand(fset.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if len(files) == 0 {
		fmt.Fprintln(stderr, "decompress: no input files")
		return exitUsage
	}

	if err := makeOutDir(*outDir); err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}

	opt := codec.Options{Format: format, Replace: *force}
	results := runBatch(files, *jobs, func(name string) (codec.Result, error) {
		return codec.DecompressFile(name, *outDir, "", opt)
	})

	status := exitOK
	for i, r := range results {
		if r.err != nil {
			fmt.Fprintf(stderr, "Failed to decompress %s: %v\n", files[i], describe(r.err))
			status = exitFail
			continue
		}
		fmt.Fprintf(stdout, "Successfully decompressed %s to %s\n", r.Input, r.Output)
	}
	return status
}

func makeOutDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseStatus(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	return exitUsage
}

// describe adds a hint for the errors a user is likely to misread.
func describe(err error) string {
	switch {
	case errors.Is(err, codec.ErrFormat):
		return err.Error() + " (not a huffbin file, or written with a different -header?)"
	case errors.Is(err, fs.ErrExist):
		return err.Error() + " (use -f to overwrite)"
	}
	return err.Error()
}
