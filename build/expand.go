// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.chromium.org/infra/build/ndkgen/build/buildconfig"
	"go.chromium.org/infra/build/ndkgen/execute"
	"go.chromium.org/infra/build/ndkgen/o11y/clog"
)

// AppIDEnv is the environment variable for the android application id.
const AppIDEnv = "ANDROID_APPLICATION_ID"

// ErrNoAppID is returned when an interface needs to be expanded
// without the application id.
var ErrNoAppID = errors.New("You must set ANDROID_APPLICATION_ID to the package name of your android application.")

// stem strips the last extension of rel.
func stem(rel string) string {
	return strings.TrimSuffix(rel, path.Ext(rel))
}

// ExpandedPath returns the output path in outDir for interface file rel.
// e.g. "foo/bar.rs.in" -> "<outDir>/foo/bar.rs".
func ExpandedPath(outDir, rel string) string {
	return filepath.Join(outDir, filepath.FromSlash(stem(rel)))
}

// JavaDir returns the java source dir of the application appID.
func JavaDir(baseDir, appID string) string {
	return filepath.Join(baseDir, "src", "main", "java", filepath.FromSlash(strings.ReplaceAll(appID, ".", "/")))
}

// ExpanderArgs returns the command line of the expander.
func ExpanderArgs(cfg *buildconfig.Config, appID, input, output string) []string {
	args := slices.Clone(cfg.Expander)
	return append(args,
		"--java-dir", JavaDir(cfg.AndroidBaseDir, appID),
		"--package", appID,
		"--null-annotation", cfg.NullAnnotation,
		"--input", input,
		"--output", output)
}

func (b *Builder) expand(ctx context.Context, rel string) (string, error) {
	if b.opts.AppID == "" {
		return "", ErrNoAppID
	}
	input := filepath.Join(b.cfg.SrcDir, filepath.FromSlash(rel))
	output := ExpandedPath(b.opts.OutDir, rel)
	err := os.MkdirAll(filepath.Dir(output), 0755)
	if err != nil {
		return "", fmt.Errorf("Rust-SWIG expansion failed: %w", err)
	}
	err = os.MkdirAll(JavaDir(b.cfg.AndroidBaseDir, b.opts.AppID), 0755)
	if err != nil {
		return "", fmt.Errorf("Rust-SWIG expansion failed: %w", err)
	}
	cmd := &execute.Cmd{
		Desc: "expand " + rel,
		Args: ExpanderArgs(b.cfg, b.opts.AppID, input, output),
		Env:  b.environ,
	}
	cmd.SetStderrWriter(clog.DebugWriter(ctx, cmd.Desc+" stderr"))
	err = b.exec.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("Rust-SWIG expansion failed: %w\n%s", err, cmd.Stderr())
	}
	clog.Infof(ctx, "expanded %s -> %s", input, output)
	return output, nil
}
