// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package atomicfile

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func renameNoReplace(tmp, name string) error {
	err := unix.Renameat2(unix.AT_FDCWD, tmp, unix.AT_FDCWD, name, unix.RENAME_NOREPLACE)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.ENOSYS), errors.Is(err, unix.EINVAL):
		// old kernel, or a filesystem without renameat2 flags
		return linkNoReplace(tmp, name)
	}
	return &os.LinkError{Op: "renameat2", Old: tmp, New: name, Err: err}
}
