// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package gccutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.chromium.org/infra/build/ndkgen/execute"
	"go.chromium.org/infra/build/ndkgen/o11y/clog"
	"go.chromium.org/infra/build/ndkgen/toolsupport/cmdutil"
)

const (
	// SearchStartMarker starts the list of system include dirs
	// in the output of `gcc -v -E`.
	SearchStartMarker = "#include <...> search starts here:"
	// SearchEndMarker ends the list of system include dirs.
	SearchEndMarker = "End of search list."

	frameworkSuffix = " (framework directory)"
)

// LinkerEnv is the env var that overrides the compiler used to query
// system include dirs. The host build sets it to the target linker,
// which is the NDK compiler driver.
const LinkerEnv = "RUSTC_LINKER"

// MarkerError is an error when the compiler output doesn't have the
// expected marker. It usually means a compiler version or locale that
// prints the search list differently.
type MarkerError struct {
	Marker   string
	Compiler string
}

func (e *MarkerError) Error() string {
	return fmt.Sprintf("no %q in output from %s", e.Marker, e.Compiler)
}

// CompilerArgs returns the compiler command line for the target.
// If override is set, it is split as a host command line and used as is.
// Otherwise, it is "<target>-gcc".
func CompilerArgs(target, override string) ([]string, error) {
	if override == "" {
		if target == "" {
			return nil, errors.New("no target to choose compiler")
		}
		return []string{target + "-gcc"}, nil
	}
	args, err := cmdutil.Args(override)
	if err != nil {
		return nil, fmt.Errorf("failed to parse compiler %q: %w", override, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty compiler %q", override)
	}
	return args, nil
}

// LookCompiler returns the path of the compiler executable.
// A name without path separator is searched in PATH.
func LookCompiler(compiler string) (string, error) {
	if !strings.ContainsAny(compiler, `/\`) {
		p, err := exec.LookPath(compiler)
		if err != nil {
			return "", fmt.Errorf("compiler %q not found (set %s to the NDK compiler): %w", compiler, LinkerEnv, err)
		}
		return p, nil
	}
	fi, err := os.Stat(compiler)
	if err != nil {
		return "", fmt.Errorf("compiler %q not found (set %s to the NDK compiler): %w", compiler, LinkerEnv, err)
	}
	if fi.IsDir() {
		return "", fmt.Errorf("compiler %q is a directory", compiler)
	}
	return compiler, nil
}

// SystemIncludeArgs returns args to print the system include dirs
// of the compiler. It reads C source from stdin.
func SystemIncludeArgs(compiler []string) []string {
	args := make([]string, 0, len(compiler)+5)
	args = append(args, compiler...)
	return append(args, "-v", "-x", "c", "-E", "-")
}

// SystemIncludeDirs runs the compiler in preprocessor-diagnostic mode
// and returns its system include dirs in search order.
// The compiler runs with ex, and its stdout goes to the debug log.
// It doesn't retry nor cache.
func SystemIncludeDirs(ctx context.Context, ex execute.Executor, compiler []string, env []string) ([]string, error) {
	if len(compiler) == 0 {
		return nil, errors.New("no compiler")
	}
	// With a wrapper (e.g. ccache), the wrapper is what will be executed.
	if _, err := LookCompiler(compiler[0]); err != nil {
		return nil, err
	}
	clog.Infof(ctx, "Using Android gcc from %q", compiler[0])
	cmd := &execute.Cmd{
		Desc:  "sysinclude " + filepath.Base(compiler[0]),
		Args:  SystemIncludeArgs(compiler),
		Env:   env,
		Stdin: []byte("\n"),
	}
	cmd.SetStdoutWriter(clog.DebugWriter(ctx, cmd.Desc+" stdout"))
	runErr := ex.Run(ctx, cmd)
	var eerr execute.ExitError
	if runErr != nil && !errors.As(runErr, &eerr) {
		return nil, fmt.Errorf("failed to run %s: %w", cmd.Command(), runErr)
	}
	dirs, err := ParseSystemIncludeDirs(compiler[0], cmd.Stderr())
	if err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("%w: %w\n%s", err, runErr, cmd.Stderr())
		}
		return nil, err
	}
	if runErr != nil {
		clog.Warningf(ctx, "%s: %v, but search list is found", cmd.Command(), runErr)
	}
	clog.Infof(ctx, "system include dirs: %q", dirs)
	return dirs, nil
}

// ParseSystemIncludeDirs extracts include dirs between SearchStartMarker
// and SearchEndMarker lines in out, the stderr of `gcc -v -E`.
// compiler is used for error message.
func ParseSystemIncludeDirs(compiler string, out []byte) ([]string, error) {
	b := bytes.ReplaceAll(out, []byte("\r\n"), []byte("\n"))
	// markers are full lines.
	b = append(append([]byte("\n"), b...), '\n')
	beginPat := []byte("\n" + SearchStartMarker + "\n")
	endPat := []byte("\n" + SearchEndMarker + "\n")
	start := bytes.Index(b, beginPat)
	if start < 0 {
		return nil, &MarkerError{Marker: SearchStartMarker, Compiler: compiler}
	}
	// keep the newline before the first dir line out of the list.
	start += len(beginPat) - 1
	end := bytes.Index(b[start:], endPat)
	if end < 0 {
		return nil, &MarkerError{Marker: SearchEndMarker, Compiler: compiler}
	}
	var dirs []string
	for _, line := range strings.Split(string(b[start:start+end]), "\n") {
		dir := strings.TrimSpace(line)
		dir = strings.TrimSuffix(dir, frameworkSuffix)
		if dir == "" {
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}
