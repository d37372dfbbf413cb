// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package sysinclude is sysinclude subcommand to print the system
// include dirs of the target's compiler.
package sysinclude

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/ndkgen/build"
	"go.chromium.org/infra/build/ndkgen/execute/localexec"
	"go.chromium.org/infra/build/ndkgen/hdrsearch"
	"go.chromium.org/infra/build/ndkgen/o11y/clog"
	"go.chromium.org/infra/build/ndkgen/toolsupport/gccutil"
)

const usage = `print system include dirs of the compiler.

 $ ndkgen sysinclude -target <triple> [-linker <compiler>] [<header>...]

It prints the dirs in search order.
If headers are given, it prints the path of each header instead.
It warns if the target is not an android target, as gen generates
nothing for such target.
`

// Cmd returns the Command for the `sysinclude` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "sysinclude <args>...",
		ShortDesc: "print system include dirs of the compiler",
		LongDesc:  usage,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	target string
	linker string
}

func (c *run) init() {
	c.Flags.StringVar(&c.target, "target", os.Getenv("TARGET"), "target triple. default $TARGET")
	c.Flags.StringVar(&c.linker, "linker", os.Getenv(gccutil.LinkerEnv), "compiler command line to use instead of <target>-gcc. default $"+gccutil.LinkerEnv)
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, os.Stdout, args)
	if err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context, w io.Writer, headers []string) error {
	if c.target == "" && c.linker == "" {
		return fmt.Errorf("target is not specified: %w", flag.ErrHelp)
	}
	if c.target != "" && !build.IsAndroid(c.target) {
		clog.Warningf(ctx, "%s: not an android target. gen would skip it", c.target)
	}
	compiler, err := gccutil.CompilerArgs(c.target, c.linker)
	if err != nil {
		return err
	}
	dirs, err := gccutil.SystemIncludeDirs(ctx, localexec.LocalExec{}, compiler, nil)
	if err != nil {
		return err
	}
	if len(headers) == 0 {
		for _, dir := range dirs {
			fmt.Fprintln(w, dir)
		}
		return nil
	}
	paths, err := hdrsearch.FindAll(dirs, headers)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
	return nil
}
