// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package gen is gen subcommand to generate android bindings.
package gen

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"go.chromium.org/infra/build/ndkgen/build"
	"go.chromium.org/infra/build/ndkgen/build/buildconfig"
	"go.chromium.org/infra/build/ndkgen/o11y/clog"
	"go.chromium.org/infra/build/ndkgen/toolsupport/gccutil"
	"go.chromium.org/infra/build/ndkgen/ui"
)

const usage = `generate android bindings.

 $ ndkgen gen [-target <triple>] [-out_dir <dir>] [-app_id <id>]

It is meant to run from a cargo build script, so flags default to
the environment cargo sets: TARGET, OUT_DIR, RUSTC_LINKER.
ANDROID_APPLICATION_ID is needed when the source dir has
interface specification files.

Settings are read from ndkgen.star, if exists.
See -config.

cargo rerun hints are printed to stdout.
`

// Cmd returns the Command for the `gen` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "gen <args>...",
		ShortDesc: "generate android bindings",
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

	target     string
	outDir     string
	linker     string
	appID      string
	configFile string
	srcDir     string
	depfile    string
}

func (c *run) init() {
	c.Flags.StringVar(&c.target, "target", os.Getenv("TARGET"), "target triple. default $TARGET")
	c.Flags.StringVar(&c.outDir, "out_dir", os.Getenv("OUT_DIR"), "output dir of generated files. default $OUT_DIR")
	c.Flags.StringVar(&c.linker, "linker", os.Getenv(gccutil.LinkerEnv), "compiler command line to use instead of <target>-gcc. default $"+gccutil.LinkerEnv)
	c.Flags.StringVar(&c.appID, "app_id", os.Getenv(build.AppIDEnv), "android application id. default $"+build.AppIDEnv)
	c.Flags.StringVar(&c.configFile, "config", buildconfig.DefaultFile, "config file. ignored if default file doesn't exist")
	c.Flags.StringVar(&c.srcDir, "src", "", "source dir to scan for interface specification files. overrides config")
	c.Flags.StringVar(&c.depfile, "depfile", "", "write make depfile of the bindings")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args)
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

func (c *run) run(ctx context.Context, args []string) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer signals.HandleInterrupt(func() {
		cancel(errors.New("interrupted"))
	})()

	if len(args) != 0 {
		return fmt.Errorf("position arguments not expected: %w", flag.ErrHelp)
	}
	if c.target == "" {
		return fmt.Errorf("target is not specified: %w", flag.ErrHelp)
	}
	if c.outDir == "" {
		return fmt.Errorf("out_dir is not specified: %w", flag.ErrHelp)
	}
	buildID := uuid.New().String()
	ctx = clog.NewSpan(ctx, buildID, "", map[string]string{
		"target": c.target,
	})
	clog.Infof(ctx, "build id: %s", buildID)

	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return err
	}
	if c.srcDir != "" {
		cfg.SrcDir = c.srcDir
	}
	b, err := build.New(ctx, build.Options{
		Config:  cfg,
		Target:  c.target,
		OutDir:  c.outDir,
		Linker:  c.linker,
		AppID:   c.appID,
		Depfile: c.depfile,
	})
	if err != nil {
		return err
	}
	result, err := b.Build(ctx)
	if err != nil {
		return err
	}
	if result.Skipped {
		ui.Default.Infof("%s: not an android target. nothing generated", c.target)
		return nil
	}
	msgs := summary(c.target, result, ui.IsTerminal())
	if len(msgs) == 1 {
		ui.Default.Infof("%s", msgs[0])
		return nil
	}
	ui.Default.PrintLines(msgs...)
	return nil
}

// summary returns the message lines for result.
// With detail, it also lists each include stub.
func summary(target string, result *build.Result, detail bool) []string {
	msgs := []string{fmt.Sprintf("%s: generated %s, expanded %d interfaces (stubs: %d written, %d kept)",
		target, result.Bindings, len(result.Expanded), len(result.Stubs), len(result.SkippedStubs))}
	if !detail {
		return msgs
	}
	for _, s := range result.Stubs {
		msgs = append(msgs, " wrote "+s)
	}
	for _, s := range result.SkippedStubs {
		msgs = append(msgs, " kept  "+s)
	}
	return msgs
}

func (c *run) loadConfig(ctx context.Context) (*buildconfig.Config, error) {
	explicit := false
	c.Flags.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	return buildconfig.LoadFile(ctx, c.configFile, !explicit, map[string]string{
		"target": c.target,
		"app_id": c.appID,
	})
}
