// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

type config struct {
	store string // table store directory, empty if none could be worked out
	jobs  int    // files handled at once
}

func loadConfig() (config, error) {
	c := config{jobs: runtime.NumCPU()}

	if e := os.Getenv("HUFFBIN_STORE"); e != "" {
		c.store = e
	} else if dir, err := os.UserCacheDir(); err == nil {
		c.store = filepath.Join(dir, "huffbin")
	}

	if e := os.Getenv("HUFFBIN_JOBS"); e != "" {
		n, err := strconv.Atoi(e)
		if err != nil || n < 1 {
			return config{}, fmt.Errorf("malformed HUFFBIN_JOBS environment variable, should be a positive number of files: %s", e)
		}
		c.jobs = n
	}
	return c, nil
}
