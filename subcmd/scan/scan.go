// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scan is scan subcommand to list interface specification files.
package scan

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
	"go.chromium.org/infra/build/ndkgen/build/buildconfig"
)

const usage = `list interface specification files.

 $ ndkgen scan [-config <file>] [-src <dir>] [-suffix <suffix>] [-stubs]

The source dir and the suffix are read from ndkgen.star, if exists.
-src and -suffix override them.
It prints paths relative to the source dir in lexical order.
With -stubs, it also prints the include stub of each file
and whether the stub exists.
`

// Cmd returns the Command for the `scan` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "scan <args>...",
		ShortDesc: "list interface specification files",
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

	configFile string
	srcDir     string
	suffix     string
	stubs      bool
}

func (c *run) init() {
	cfg := buildconfig.Default()
	c.Flags.StringVar(&c.configFile, "config", buildconfig.DefaultFile, "config file. ignored if default file doesn't exist")
	c.Flags.StringVar(&c.srcDir, "src", cfg.SrcDir, "source dir. overrides config")
	c.Flags.StringVar(&c.suffix, "suffix", cfg.InterfaceSuffix, "filename suffix of interface specification files. overrides config")
	c.Flags.BoolVar(&c.stubs, "stubs", false, "print include stubs")
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

func (c *run) run(ctx context.Context, w io.Writer, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("position arguments not expected: %w", flag.ErrHelp)
	}
	srcDir, suffix, err := c.settings(ctx)
	if err != nil {
		return err
	}
	if suffix == "" {
		return fmt.Errorf("empty suffix: %w", flag.ErrHelp)
	}
	files, err := build.Discover(ctx, srcDir, suffix)
	if err != nil {
		return err
	}
	for _, f := range files {
		if !c.stubs {
			fmt.Fprintln(w, f)
			continue
		}
		stub := build.StubPath(srcDir, f)
		state := "missing"
		if _, err := os.Stat(stub); err == nil {
			state = "exists"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", f, stub, state)
	}
	return nil
}

// settings returns the source dir and the suffix from the config,
// overridden by flags explicitly set.
func (c *run) settings(ctx context.Context) (srcDir, suffix string, err error) {
	set := make(map[string]bool)
	c.Flags.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	cfg, err := buildconfig.LoadFile(ctx, c.configFile, !set["config"], map[string]string{
		"target": os.Getenv("TARGET"),
		"app_id": os.Getenv(build.AppIDEnv),
	})
	if err != nil {
		return "", "", err
	}
	srcDir, suffix = cfg.SrcDir, cfg.InterfaceSuffix
	if set["src"] {
		srcDir = c.srcDir
	}
	if set["suffix"] {
		suffix = c.suffix
	}
	return srcDir, suffix, nil
}
