// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.chromium.org/infra/build/ndkgen/o11y/clog"
	"go.chromium.org/infra/build/ndkgen/toolsupport/gccutil"
	"go.chromium.org/infra/build/ndkgen/toolsupport/makeutil"
)

// RerunHints returns cargo directives to rerun the generation when
// the sources, the headers in dirs or the generated files change.
// outDir is included so deleted generated files are regenerated.
func RerunHints(srcDir string, dirs []string, outDir string) []string {
	hints := make([]string, 0, len(dirs)+2)
	hints = append(hints, "cargo:rerun-if-changed="+srcDir)
	for _, dir := range dirs {
		hints = append(hints, "cargo:rerun-if-changed="+dir)
	}
	return append(hints, "cargo:rerun-if-changed="+outDir)
}

// WriteRerunHints writes hints to w, one per line.
func WriteRerunHints(w io.Writer, hints []string) error {
	for _, h := range hints {
		_, err := fmt.Fprintln(w, h)
		if err != nil {
			return err
		}
	}
	return nil
}

// writeDepfile writes the depfile of the bindings, and returns its inputs.
func (b *Builder) writeDepfile(ctx context.Context, compiler []string, result *Result, extra []string) ([]string, error) {
	args := gccutil.HeaderDepsArgs(compiler, result.Headers[0], result.IncludeDirs, result.Headers[1:])
	args = append(args, extra...)
	deps, err := gccutil.Deps(ctx, b.exec, args, b.environ, "")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var inputs []string
	add := func(in string) {
		if seen[in] {
			return
		}
		seen[in] = true
		inputs = append(inputs, in)
	}
	for _, dep := range deps {
		add(dep)
	}
	for _, rel := range result.Interfaces {
		add(filepath.Join(b.cfg.SrcDir, filepath.FromSlash(rel)))
	}
	err = os.MkdirAll(filepath.Dir(b.opts.Depfile), 0755)
	if err != nil {
		return nil, err
	}
	err = os.WriteFile(b.opts.Depfile, makeutil.FormatDeps(result.Bindings, inputs), 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to write depfile: %w", err)
	}
	clog.Infof(ctx, "depfile %s: %d inputs", b.opts.Depfile, len(inputs))
	return inputs, nil
}
