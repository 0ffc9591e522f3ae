// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package walk lists the regular files below a directory
// in an order suited to reading all of them.
package walk

import (
	"cmp"
	"io/fs"
	"path/filepath"
	"slices"
)

type file struct {
	path string
	key  uint64
}

// Files returns every regular file below root, joined onto root.
// The order is by inode number where the platform has them,
// and otherwise the lexical order of a directory walk.
// The first return value names the order used.
func Files(root string) (string, []string, error) {
	var (
		list    []file
		waysort = "walk-order"
		cansort = true
	)
	err := filepath.WalkDir(root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		el := file{path: name}
		if cansort {
			info, err := d.Info()
			if err != nil {
				return err
			}
			var how string
			el.key, how, cansort = getkey(info)
			if cansort {
				waysort = how
			}
		}
		list = append(list, el)
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	if cansort {
		slices.SortStableFunc(list, func(a, b file) int { return cmp.Compare(a.key, b.key) })
	} else {
		waysort = "walk-order"
	}
	ret := make([]string, len(list))
	for i, f := range list {
		ret[i] = f.path
	}
	return waysort, ret, nil
}

func getkey(i fs.FileInfo) (uint64, string, bool) {
	if ino, ok := tryInode(i); ok { // intended as a vague proxy for "order on disk"
		return ino, "inode-number", true
	}
	return 0, "", false
}

var tryInode = func(i fs.FileInfo) (uint64, bool) { return 0, false }
