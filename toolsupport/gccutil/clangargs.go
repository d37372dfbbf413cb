// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package gccutil

import (
	"strings"
)

// ClangParams are include related params in clang args.
type ClangParams struct {
	// Dirs are include dirs given by -I, -isystem, -iquote etc.
	Dirs []string
	// Sysroots are given by --sysroot or -isysroot.
	Sysroots []string
}

// ParseClangParams parses args (e.g. extra clang args for bindgen) and
// returns include related params.
// It only parses major command line flags.
// full set of command line flags for include dirs can be found in
// https://clang.llvm.org/docs/ClangCommandLineReference.html#include-path-management
func ParseClangParams(args []string) ClangParams {
	var p ClangParams
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-I", "--include-directory", "-isystem", "-iquote", "-idirafter":
			i++
			if i < len(args) {
				p.Dirs = append(p.Dirs, args[i])
			}
			continue
		case "--sysroot", "-isysroot":
			i++
			if i < len(args) {
				p.Sysroots = append(p.Sysroots, args[i])
			}
			continue
		case "-include", "-D", "-U", "-target", "-x":
			// skip the value.
			i++
			continue
		}
		switch {
		case strings.HasPrefix(arg, "-I"):
			p.Dirs = append(p.Dirs, strings.TrimPrefix(arg, "-I"))
		case strings.HasPrefix(arg, "--include-directory="):
			p.Dirs = append(p.Dirs, strings.TrimPrefix(arg, "--include-directory="))
		case strings.HasPrefix(arg, "-iquote"):
			p.Dirs = append(p.Dirs, strings.TrimPrefix(arg, "-iquote"))
		case strings.HasPrefix(arg, "-isystem"):
			p.Dirs = append(p.Dirs, strings.TrimPrefix(arg, "-isystem"))
		case strings.HasPrefix(arg, "-idirafter"):
			p.Dirs = append(p.Dirs, strings.TrimPrefix(arg, "-idirafter"))
		case strings.HasPrefix(arg, "--sysroot="):
			p.Sysroots = append(p.Sysroots, strings.TrimPrefix(arg, "--sysroot="))
		case strings.HasPrefix(arg, "-isysroot"):
			p.Sysroots = append(p.Sysroots, strings.TrimPrefix(arg, "-isysroot"))
		}
	}
	return p
}
