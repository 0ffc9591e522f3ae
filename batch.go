// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/elliotnunn/huffbin/internal/codec"
	"github.com/elliotnunn/huffbin/internal/walk"
)

// expand replaces each glob argument with the files it matches, in order,
// and each directory with the regular files below it.
// Other arguments are kept as they are, even if they do not exist,
// so that the failure is reported against the file.
func expand(args []string) ([]string, error) {
	var files []string
	for _, a := range args {
		if !strings.ContainsAny(a, "*?[{") {
			if st, err := os.Stat(a); err == nil && st.IsDir() {
				waysort, list, err := walk.Files(a)
				if err != nil {
					return nil, err
				}
				slog.Debug("walkDir", "path", a, "files", len(list), "sortorder", waysort)
				files = append(files, list...)
			} else {
				files = append(files, a)
			}
			continue
		}
		matches, err := doublestar.FilepathGlob(a, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%s: no files match", a)
		}
		files = append(files, matches...)
	}
	return files, nil
}

type outcome struct {
	codec.Result
	err error
}

// runBatch applies work to every file, at most concurrency at a time.
// Each call gets its own tree and buffers; nothing is shared between files.
func runBatch(files []string, concurrency int, work func(name string) (codec.Result, error)) []outcome {
	slog.Debug("batchStart", "files", len(files), "concurrency", concurrency)
	t := time.Now()

	out := make([]outcome, len(files))
	next := make(chan int)
	go func() {
		for i := range files {
			next <- i
		}
		close(next)
	}()

	concurrency = max(1, min(concurrency, len(files)))
	wg := new(sync.WaitGroup)
	wg.Add(concurrency)
	for range concurrency {
		go func() {
			for i := range next {
				out[i].Result, out[i].err = work(files[i])
			}
			wg.Done()
		}()
	}
	wg.Wait()

	slog.Debug("batchStop", "duration", time.Since(t).String())
	return out
}
