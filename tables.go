// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"cmp"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/elliotnunn/huffbin/internal/codec"
	"github.com/elliotnunn/huffbin/internal/hufftree"
	"github.com/elliotnunn/huffbin/internal/tablestore"
)

func cmdTables(args []string, cfg config, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("tables", flag.ContinueOnError)
	fset.SetOutput(stderr)
	force := fset.Bool("f", false, "export: overwrite an existing file")
	verbose := fset.Bool("v", false, "debug logging")
	if err := fset.Parse(args); err != nil {
		return parseStatus(err)
	}
	setupLogging(stderr, *verbose)

	args = fset.Args()
	want := map[string]int{"list": 1, "show": 2, "rm": 2, "import": 3, "export": 3}
	if len(args) == 0 || want[args[0]] != len(args) {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	st := &lazyStore{dir: cfg.store}
	defer st.Close()
	s, err := st.get()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}

	switch args[0] {
	case "list":
		err = listTables(s, stdout)
	case "show":
		var b hufftree.Book
		if b, err = s.Get(args[1]); err == nil {
			showTable(b, stdout)
		}
	case "rm":
		err = s.Delete(args[1])
	case "import":
		var b hufftree.Book
		if b, err = codec.LoadBook(args[2]); err == nil {
			var sum uint64
			if sum, err = s.Put(args[1], b); err == nil {
				fmt.Fprintf(stdout, "Saved table %s (%016x)\n", args[1], sum)
			}
		}
	case "export":
		var b hufftree.Book
		if b, err = s.Get(args[1]); err == nil {
			err = codec.SaveBook(args[2], b, *force)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "tables %s: %v\n", args[0], describe(err))
		return exitFail
	}
	return exitOK
}

func listTables(s *tablestore.Store, stdout io.Writer) error {
	list, err := s.List()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSYMBOLS\tFINGERPRINT")
	for _, e := range list {
		fmt.Fprintf(tw, "%s\t%d\t%016x\n", e.Name, e.Symbols, e.Sum)
	}
	return tw.Flush()
}

// showTable prints the codes shortest first, as a reader would look for the common symbols.
func showTable(b hufftree.Book, stdout io.Writer) {
	leaves := b.Leaves()
	slices.SortStableFunc(leaves, func(x, y hufftree.Leaf) int {
		return cmp.Or(cmp.Compare(len(x.Path), len(y.Path)), cmp.Compare(x.Path, y.Path))
	})
	tw := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tCOUNT\tCODE")
	for _, l := range leaves {
		count := "-"
		if b.Frequencies != nil {
			count = strconv.FormatInt(l.Freq, 10)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", strconv.QuoteRune(rune(l.Symbol)), count, l.Path)
	}
	tw.Flush()
}
