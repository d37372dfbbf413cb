// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package gccutil provides utilities of gcc compatible compilers.
package gccutil

import (
	"context"
	"fmt"
	"time"

	"go.chromium.org/infra/build/ndkgen/execute"
	"go.chromium.org/infra/build/ndkgen/o11y/clog"
	"go.chromium.org/infra/build/ndkgen/toolsupport/makeutil"
)

// HeaderDepsArgs returns command line args to get the headers that
// header transitively includes, with include dirs and forced includes
// in the same order as used for bindings generation.
func HeaderDepsArgs(compiler []string, header string, dirs, includes []string) []string {
	args := make([]string, 0, len(compiler)+len(dirs)+2*len(includes)+5)
	args = append(args, compiler...)
	args = append(args, "-M", "-x", "c")
	for _, dir := range dirs {
		args = append(args, "-I"+dir)
	}
	for _, inc := range includes {
		args = append(args, "-include", inc)
	}
	return append(args, header)
}

// Deps runs command specified by args, env, cwd with ex and returns deps.
func Deps(ctx context.Context, ex execute.Executor, args []string, env []string, cwd string) ([]string, error) {
	s := time.Now()
	cmd := &execute.Cmd{
		Desc: "deps",
		Args: args,
		Env:  env,
		Dir:  cwd,
	}
	err := ex.Run(ctx, cmd)
	if err != nil {
		clog.Warningf(ctx, "failed to run %q: %v\n%s\n%s", args, err, cmd.Stdout(), cmd.Stderr())
		return nil, fmt.Errorf("failed to get deps: %w\n%s", err, cmd.Stderr())
	}
	stdout := cmd.Stdout()
	if len(stdout) == 0 {
		clog.Warningf(ctx, "failed to run gcc deps? stdout:0 args:%q\nstderr:%s", cmd.Args, cmd.Stderr())
	}
	deps := makeutil.ParseDeps(stdout)
	clog.Infof(ctx, "gcc deps stdout:%d -> deps:%d: %s", len(stdout), len(deps), time.Since(s))
	return deps, nil
}
