// Copyright (c) Elliot Nunn
// Licensed under the MIT license

//go:build !linux

package atomicfile

func renameNoReplace(tmp, name string) error {
	return linkNoReplace(tmp, name)
}
