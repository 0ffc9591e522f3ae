// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package atomicfile publishes a file only once its contents are complete,
// so a failed write never leaves a partial file under the final name.
package atomicfile

import (
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFile writes data to a temporary file beside name and then moves it into place.
// Unless replace is set, an existing file at name is left alone
// and the returned error matches fs.ErrExist.
func WriteFile(name string, data []byte, perm fs.FileMode, replace bool) (err error) {
	dir, base := filepath.Split(name)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err = f.Chmod(perm); err != nil {
		f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}

	if replace {
		return os.Rename(tmp, name)
	}
	return renameNoReplace(tmp, name)
}

// linkNoReplace gets the no-clobber behaviour from link(2), which refuses an existing target.
func linkNoReplace(tmp, name string) error {
	if err := os.Link(tmp, name); err != nil {
		return err
	}
	return os.Remove(tmp)
}
