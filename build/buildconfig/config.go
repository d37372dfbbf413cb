// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package buildconfig provides the generation config for `ndkgen gen`.
//
// The config is a Starlark file that defines `init(ctx)` returning
// a module (or struct) of settings, e.g.
//
//	def init(ctx):
//	    return module(
//	        "config",
//	        headers = ["jni.h", "android/log.h"],
//	        src_dir = "src",
//	    )
//
// Fields not set by the config keep their default values.
package buildconfig

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"go.chromium.org/infra/build/ndkgen/o11y/clog"
)

const configEntryPoint = "init"

// DefaultFile is the config filename looked up in the working directory.
const DefaultFile = "ndkgen.star"

// LoadFile loads the config file fname in the local filesystem.
// If fname doesn't exist and optional is true, it returns the default
// config.
func LoadFile(ctx context.Context, fname string, optional bool, flags map[string]string) (*Config, error) {
	_, err := os.Stat(fname)
	if errors.Is(err, fs.ErrNotExist) && optional {
		clog.Infof(ctx, "no %s. use default config", fname)
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", fname, err)
	}
	dir, base := filepath.Split(fname)
	if dir == "" {
		dir = "."
	}
	return Load(ctx, os.DirFS(dir), base, flags)
}

// Config is a generation config.
type Config struct {
	// Headers are system headers to generate bindings for.
	// The first one is the primary header; the others are force-included.
	Headers []string

	// SrcDir is the source dir to scan for interface specification files.
	SrcDir string

	// AndroidBaseDir is the android application project dir.
	AndroidBaseDir string

	// AndroidTargets are target triples that receive JNI generation.
	AndroidTargets []string

	// InterfaceSuffix is the filename suffix of interface specification files.
	InterfaceSuffix string

	// BindingsFile is the filename of generated bindings in the out dir.
	BindingsFile string

	// RustTarget is the language version the bindings are generated for.
	RustTarget string

	// BlocklistTypes are types excluded from the bindings.
	BlocklistTypes []string

	// NullAnnotation is the java annotation for non-null values.
	NullAnnotation string

	// Bindgen is the command line of the header-binding generator.
	Bindgen []string

	// Expander is the command line of the interface-definition expander.
	Expander []string
}

// Default returns the default config.
func Default() *Config {
	return &Config{
		Headers:        []string{"jni.h"},
		SrcDir:         "src",
		AndroidBaseDir: "app",
		AndroidTargets: []string{
			"aarch64-linux-android",
			"arm-linux-androideabi",
			"i686-linux-android",
			"x86_64-linux-android",
		},
		InterfaceSuffix: ".rs.in",
		BindingsFile:    "android_c_headers.rs",
		RustTarget:      "1.19",
		// long double is not supported by the generator.
		BlocklistTypes: []string{"max_align_t"},
		NullAnnotation: "android.support.annotation.NonNull",
		Bindgen:        []string{"bindgen"},
		Expander:       []string{"rust_swig_expand"},
	}
}

// HandlerError is an error in a Starlark function of the config.
type HandlerError struct {
	entry string
	fn    starlark.Value
	err   *starlark.EvalError
}

func (e HandlerError) Error() string {
	if fn, ok := e.fn.(*starlark.Function); ok {
		return fmt.Sprintf("failed to run %s[%s:%s]: %v", e.entry, fn.Position(), fn.Name(), e.err)
	}
	return fmt.Sprintf("failed to run %s[%s]: %v", e.entry, e.fn, e.err)
}

// Backtrace returns the Starlark call stack of the error.
func (e HandlerError) Backtrace() string {
	return e.err.CallStack.String()
}

func (e HandlerError) Unwrap() error {
	return e.err
}

// Load loads fname in fsys, runs its `init(ctx)` with flags and
// returns the config. ctx.flags in Starlark is a dict of flags.
func Load(ctx context.Context, fsys fs.FS, fname string, flags map[string]string) (*Config, error) {
	loader := &repoLoader{
		ctx:         ctx,
		fsys:        fsys,
		predeclared: builtinModule(),
	}
	thread := &starlark.Thread{
		Name: "load",
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: loader.Load,
	}
	// relative loads are resolved from the dir of the module.
	thread.SetLocal("modulename", path.Join(".", "_"))
	globals, err := loader.Load(thread, fname)
	if err != nil {
		log.Warnf("thread:%s failed to exec file %s: %v", thread.Name, fname, err)
		var eerr *starlark.EvalError
		if errors.As(err, &eerr) {
			log.Warnf("stacktrace:\n%s", eerr.Backtrace())
		}
		return nil, err
	}
	fun, ok := globals[configEntryPoint]
	if !ok {
		return nil, fmt.Errorf("%s is not defined in %s", configEntryPoint, fname)
	}
	if _, ok := fun.(starlark.Callable); !ok {
		return nil, fmt.Errorf("%s %s is not callable in %s", configEntryPoint, fun.Type(), fname)
	}

	thread = &starlark.Thread{
		Name: configEntryPoint,
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: func(*starlark.Thread, string) (starlark.StringDict, error) {
			return nil, fmt.Errorf("load is not allowed in %s", configEntryPoint)
		},
	}
	hctx := starlarkstruct.FromStringDict(starlark.String("ctx"), map[string]starlark.Value{
		"flags": starFlags(flags),
	})
	ret, err := starlark.Call(thread, fun, []starlark.Value{hctx}, nil)
	if err != nil {
		log.Warnf("thread:%s failed to run %s: %v", thread.Name, configEntryPoint, err)
		var eerr *starlark.EvalError
		if errors.As(err, &eerr) {
			log.Warnf("stacktrace:\n%s", eerr.Backtrace())
			return nil, HandlerError{entry: configEntryPoint, fn: fun, err: eerr}
		}
		return nil, fmt.Errorf("failed to run %s: %w", configEntryPoint, err)
	}
	attrs, ok := ret.(starlark.HasAttrs)
	if !ok {
		return nil, fmt.Errorf("%s returned %s, want module or struct", configEntryPoint, ret.Type())
	}
	cfg := Default()
	if err := cfg.apply(attrs); err != nil {
		return nil, fmt.Errorf("bad config in %s: %w", fname, err)
	}
	log.Debugf("config %s: %+v", fname, cfg)
	return cfg, nil
}

func (cfg *Config) apply(attrs starlark.HasAttrs) error {
	strings := map[string]*string{
		"src_dir":          &cfg.SrcDir,
		"android_base_dir": &cfg.AndroidBaseDir,
		"interface_suffix": &cfg.InterfaceSuffix,
		"bindings_file":    &cfg.BindingsFile,
		"rust_target":      &cfg.RustTarget,
		"null_annotation":  &cfg.NullAnnotation,
	}
	lists := map[string]*[]string{
		"headers":         &cfg.Headers,
		"android_targets": &cfg.AndroidTargets,
		"blocklist_types": &cfg.BlocklistTypes,
		"bindgen":         &cfg.Bindgen,
		"expander":        &cfg.Expander,
	}
	names := attrs.AttrNames()
	sort.Strings(names)
	for _, name := range names {
		v, err := attrs.Attr(name)
		if err != nil {
			return err
		}
		if v == starlark.None {
			continue
		}
		if p, ok := strings[name]; ok {
			s, ok := starlark.AsString(v)
			if !ok {
				return fmt.Errorf("%s: got %s; want string", name, v.Type())
			}
			*p = s
			continue
		}
		if p, ok := lists[name]; ok {
			l, err := unpackStringOrList(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*p = l
			continue
		}
		return fmt.Errorf("unknown config field %q", name)
	}
	return cfg.Validate()
}

// Validate checks the config is usable.
func (cfg *Config) Validate() error {
	if len(cfg.Headers) == 0 {
		return errors.New("no headers")
	}
	if cfg.SrcDir == "" {
		return errors.New("empty src_dir")
	}
	if cfg.InterfaceSuffix == "" {
		return errors.New("empty interface_suffix")
	}
	if cfg.BindingsFile == "" {
		return errors.New("empty bindings_file")
	}
	if len(cfg.Bindgen) == 0 {
		return errors.New("empty bindgen")
	}
	if len(cfg.Expander) == 0 {
		return errors.New("empty expander")
	}
	return nil
}
