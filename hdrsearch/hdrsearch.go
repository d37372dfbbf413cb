// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package hdrsearch finds headers in include directories, in the same
// order the compiler searches them for `#include <...>`.
package hdrsearch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Find returns the path of name in the first dir of dirs where it is
// a regular file. Symlinks are followed.
// It returns an error wrapping fs.ErrNotExist if not found.
func Find(dirs []string, name string) (string, error) {
	for _, dir := range dirs {
		fname := filepath.Join(dir, name)
		fi, err := os.Stat(fname)
		if err != nil {
			continue
		}
		if !fi.Mode().IsRegular() {
			continue
		}
		return fname, nil
	}
	return "", fmt.Errorf("could not find header %s in %d dirs: %w", name, len(dirs), fs.ErrNotExist)
}

// FindAll finds each of names in dirs and returns the paths in the
// order of names. It fails on the first header not found.
func FindAll(dirs []string, names []string) ([]string, error) {
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p, err := Find(dirs, name)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
