// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.chromium.org/infra/build/ndkgen/build/buildconfig"
	"go.chromium.org/infra/build/ndkgen/execute"
	"go.chromium.org/infra/build/ndkgen/o11y/clog"
	"go.chromium.org/infra/build/ndkgen/toolsupport/cmdutil"
)

// ExtraClangArgsEnv is the environment variable for extra clang args
// of the binding generator.
const ExtraClangArgsEnv = "BINDGEN_EXTRA_CLANG_ARGS"

// BindgenArgs returns the command line to generate bindings into out.
// headers[0] is the primary header, and the other headers are
// force-included into it.
func BindgenArgs(cfg *buildconfig.Config, target string, dirs, headers []string, out string, extra []string) ([]string, error) {
	if len(headers) == 0 {
		return nil, errors.New("no headers to generate bindings")
	}
	args := slices.Clone(cfg.Bindgen)
	args = append(args, headers[0], "-o", out, "--rust-target", cfg.RustTarget)
	for _, t := range cfg.BlocklistTypes {
		args = append(args, "--blocklist-type", t)
	}
	if strings.Contains(target, "windows") {
		// clang mangling is wrong for windows targets.
		args = append(args, "--distrust-clang-mangling")
	}
	args = append(args, "--")
	for _, dir := range dirs {
		args = append(args, "-I"+dir)
	}
	for _, h := range headers[1:] {
		args = append(args, "-include", h)
	}
	return append(args, extra...), nil
}

func extraClangArgs(getenv func(string) string) ([]string, error) {
	v := getenv(ExtraClangArgsEnv)
	if v == "" {
		return nil, nil
	}
	args, err := cmdutil.Args(v)
	if err != nil {
		return nil, fmt.Errorf("bad %s=%q: %w", ExtraClangArgsEnv, v, err)
	}
	return args, nil
}

func (b *Builder) genBindings(ctx context.Context, dirs, headers, extra []string) (string, error) {
	out := filepath.Join(b.opts.OutDir, b.cfg.BindingsFile)
	args, err := BindgenArgs(b.cfg, b.opts.Target, dirs, headers, out, extra)
	if err != nil {
		return "", err
	}
	err = os.MkdirAll(filepath.Dir(out), 0755)
	if err != nil {
		return "", err
	}
	clog.Infof(ctx, "Generate binding for %q", headers)
	cmd := &execute.Cmd{
		Desc: "bindgen " + filepath.Base(headers[0]),
		Args: args,
		Env:  b.environ,
	}
	cmd.SetStderrWriter(clog.DebugWriter(ctx, cmd.Desc+" stderr"))
	err = b.exec.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("failed to generate bindings: %w\n%s", err, cmd.Stderr())
	}
	return out, nil
}
