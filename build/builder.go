// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package build generates native bindings and interface code for an
// Android target.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.chromium.org/infra/build/ndkgen/build/buildconfig"
	"go.chromium.org/infra/build/ndkgen/execute"
	"go.chromium.org/infra/build/ndkgen/execute/localexec"
	"go.chromium.org/infra/build/ndkgen/hdrsearch"
	"go.chromium.org/infra/build/ndkgen/o11y/clog"
	"go.chromium.org/infra/build/ndkgen/toolsupport/gccutil"
	"go.chromium.org/infra/build/ndkgen/ui"
)

// logLabelKeyStep is a key of logging label for the generation step.
const logLabelKeyStep = "step"

// Options is builder options.
type Options struct {
	// Config is the generation config. Default config if nil.
	Config *buildconfig.Config

	// Target is the target triple.
	Target string

	// OutDir is the dir for generated files.
	OutDir string

	// Linker is the compiler command line that overrides "<target>-gcc".
	Linker string

	// AppID is the android application id (package name).
	AppID string

	// Depfile is the path of make depfile to write, if not empty.
	Depfile string

	// Environ is the environment of subprocesses. os.Environ() if nil.
	Environ []string

	// Executor runs the compiler and the generators.
	// localexec.LocalExec if nil.
	Executor execute.Executor

	// UI reports progress. ui.Default if nil.
	UI ui.UI

	// RerunOut receives build rerun hints. os.Stdout if nil.
	RerunOut io.Writer
}

// Result is the result of a build.
type Result struct {
	// Skipped is true when the target is not an Android target.
	Skipped bool

	// IncludeDirs are the system include dirs of the compiler.
	IncludeDirs []string

	// Headers are the located headers.
	Headers []string

	// Bindings is the generated bindings file.
	Bindings string

	// Interfaces are the interface specification files,
	// relative to the source dir.
	Interfaces []string

	// Expanded are the expanded files in the out dir.
	Expanded []string

	// Stubs are the include stubs written.
	Stubs []string

	// SkippedStubs are the include stubs that already existed.
	SkippedStubs []string

	// DepfileInputs are the inputs written in the depfile.
	DepfileInputs []string
}

// Builder is a builder.
type Builder struct {
	opts    Options
	cfg     *buildconfig.Config
	environ []string
	exec    execute.Executor
	ui      ui.UI
	out     io.Writer
}

// New creates a new builder.
func New(ctx context.Context, opts Options) (*Builder, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = buildconfig.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("bad config: %w", err)
	}
	if opts.Target == "" {
		return nil, errors.New("no target")
	}
	if opts.OutDir == "" {
		return nil, errors.New("no out dir")
	}
	b := &Builder{
		opts:    opts,
		cfg:     cfg,
		environ: opts.Environ,
		exec:    opts.Executor,
		ui:      opts.UI,
		out:     opts.RerunOut,
	}
	if b.environ == nil {
		b.environ = os.Environ()
	}
	if b.exec == nil {
		b.exec = localexec.LocalExec{}
	}
	if b.ui == nil {
		b.ui = ui.Default
	}
	if b.out == nil {
		b.out = os.Stdout
	}
	return b, nil
}

// Build runs the generation for the target.
// Each step runs sequentially and the first failure aborts the build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	if !isTarget(b.cfg.AndroidTargets, b.opts.Target) {
		clog.Infof(ctx, "%s is not an android target. skip generation", b.opts.Target)
		return &Result{Skipped: true}, nil
	}
	result := &Result{}
	compiler, err := gccutil.CompilerArgs(b.opts.Target, b.opts.Linker)
	if err != nil {
		return nil, err
	}

	err = b.step(ctx, "sysinclude", func(ctx context.Context) error {
		result.IncludeDirs, err = gccutil.SystemIncludeDirs(ctx, b.exec, compiler, b.environ)
		if err != nil {
			return fmt.Errorf("can't get NDK's system include dirs: %w", err)
		}
		return nil
	}, "discovering system include dirs of %s", b.opts.Target)
	if err != nil {
		return nil, err
	}

	result.Headers, err = hdrsearch.FindAll(result.IncludeDirs, b.cfg.Headers)
	if err != nil {
		return nil, err
	}
	extra, err := extraClangArgs(b.getenv)
	if err != nil {
		return nil, err
	}

	err = b.step(ctx, "bindgen", func(ctx context.Context) error {
		result.Bindings, err = b.genBindings(ctx, result.IncludeDirs, result.Headers, extra)
		return err
	}, "generating bindings for %s", filepath.Base(result.Headers[0]))
	if err != nil {
		return nil, err
	}

	result.Interfaces, err = Discover(ctx, b.cfg.SrcDir, b.cfg.InterfaceSuffix)
	if err != nil {
		return nil, err
	}
	for _, rel := range result.Interfaces {
		var expanded string
		err = b.step(ctx, "expand", func(ctx context.Context) error {
			expanded, err = b.expand(ctx, rel)
			return err
		}, "expanding %s", rel)
		if err != nil {
			return nil, err
		}
		result.Expanded = append(result.Expanded, expanded)

		written, err := WriteStub(ctx, b.cfg.SrcDir, rel)
		if err != nil {
			return nil, err
		}
		if written {
			result.Stubs = append(result.Stubs, StubPath(b.cfg.SrcDir, rel))
		} else {
			result.SkippedStubs = append(result.SkippedStubs, StubPath(b.cfg.SrcDir, rel))
		}
	}

	if b.opts.Depfile != "" {
		err = b.step(ctx, "depfile", func(ctx context.Context) error {
			result.DepfileInputs, err = b.writeDepfile(ctx, compiler, result, extra)
			return err
		}, "writing %s", b.opts.Depfile)
		if err != nil {
			return nil, err
		}
	}

	params := gccutil.ParseClangParams(extra)
	dirs := make([]string, 0, len(result.IncludeDirs)+len(params.Dirs)+len(params.Sysroots))
	dirs = append(dirs, result.IncludeDirs...)
	dirs = append(dirs, params.Dirs...)
	dirs = append(dirs, params.Sysroots...)
	err = WriteRerunHints(b.out, RerunHints(b.cfg.SrcDir, dirs, b.opts.OutDir))
	if err != nil {
		return nil, fmt.Errorf("failed to write rerun hints: %w", err)
	}
	return result, nil
}

// step runs fn in a log span named name, with a spinner.
func (b *Builder) step(ctx context.Context, name string, fn func(context.Context) error, format string, args ...any) error {
	ctx = clog.NewSpan(ctx, "", "", map[string]string{logLabelKeyStep: name})
	spin := b.ui.NewSpinner()
	spin.Start(format, args...)
	err := fn(ctx)
	spin.Stop(err)
	return err
}

// getenv returns the value of key in the builder's environment.
func (b *Builder) getenv(key string) string {
	for i := len(b.environ) - 1; i >= 0; i-- {
		k, v, ok := strings.Cut(b.environ[i], "=")
		if ok && k == key {
			return v
		}
	}
	return ""
}
