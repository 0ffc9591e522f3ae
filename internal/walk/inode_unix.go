// Copyright (c) Elliot Nunn
// Licensed under the MIT license

//go:build unix

package walk

import (
	"io/fs"
	"syscall"
)

func init() { tryInode = unixInode }

func unixInode(i fs.FileInfo) (uint64, bool) {
	if t, ok := i.Sys().(*syscall.Stat_t); ok {
		return uint64(t.Ino), true
	}
	return 0, false
}
