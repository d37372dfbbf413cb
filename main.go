// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// ndkgen generates native bindings and interface code for Android
// targets from a cargo build script.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/ndkgen/subcmd/gen"
	"go.chromium.org/infra/build/ndkgen/subcmd/help"
	"go.chromium.org/infra/build/ndkgen/subcmd/scan"
	"go.chromium.org/infra/build/ndkgen/subcmd/sysinclude"
	"go.chromium.org/infra/build/ndkgen/subcmd/version"
	"go.chromium.org/infra/build/ndkgen/ui"
)

const ndkgenVersion = "ndkgen v0.1.0"

var verbose bool

func init() {
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(out, "global flags:\n")
		flag.PrintDefaults()
	}
}

func getApplication() *cli.Application {
	return &cli.Application{
		Name:  "ndkgen",
		Title: "Android native binding generator",
		Context: func(ctx context.Context) context.Context {
			return ctx
		},
		Commands: []*subcommands.Command{
			gen.Cmd(),
			sysinclude.Cmd(),
			scan.Cmd(),

			help.Cmd(),
			version.Cmd(ndkgenVersion),
		},
	}
}

func main() {
	os.Exit(ndkgenMain(os.Args[1:]))
}

func ndkgenMain(args []string) int {
	if err := flag.CommandLine.Parse(args); err != nil {
		return 2
	}
	if flag.NArg() == 0 {
		flag.Usage()
		return 2
	}

	log.SetReportTimestamp(true)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	ui.Init()
	defer ui.Restore()

	// Print a stack trace when a panic occurs.
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Fatalf("panic: %v\n%s", r, buf)
		}
	}()

	// Print build information to the log.
	buildinfo, ok := debug.ReadBuildInfo()
	if ok {
		log.Debugf("main module: %s %s", moduleInfo(&buildinfo.Main), vcsInfo(buildinfo))
	}
	return subcommands.Run(getApplication(), flag.Args())
}

func moduleInfo(m *debug.Module) string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("path:%s version:%s sum:%s replace:%s", m.Path, m.Version, m.Sum, moduleInfo(m.Replace))
}

func vcsInfo(buildinfo *debug.BuildInfo) string {
	m := make(map[string]string)
	for _, bs := range buildinfo.Settings {
		if strings.HasPrefix(bs.Key, "vcs.") {
			m[bs.Key] = bs.Value
		}
	}
	return fmt.Sprintf("vcs[revision=%s time=%s modified=%s]", m["vcs.revision"], m["vcs.time"], m["vcs.modified"])
}
