// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"context"
	"fmt"
	"io/fs"
	"path"

	"github.com/charmbracelet/log"
	"go.starlark.net/starlark"
)

// repoLoader is a Starlark module loader on a filesystem.
type repoLoader struct {
	ctx         context.Context
	fsys        fs.FS
	predeclared starlark.StringDict

	// loaded caches loaded modules by name.
	loaded map[string]starlark.StringDict
}

// Load loads a Starlark module.
// A relative module name is resolved from the dir of the loading module.
func (r *repoLoader) Load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	curname, _ := thread.Local("modulename").(string)
	fname := module
	if !path.IsAbs(fname) {
		fname = path.Join(path.Dir(curname), module)
	}
	fname = path.Clean(fname)
	log.Debugf("load %s from %s: %s", module, curname, fname)
	if globals, ok := r.loaded[fname]; ok {
		return globals, nil
	}
	if !fs.ValidPath(fname) {
		return nil, fmt.Errorf("invalid module path %q", module)
	}
	buf, err := fs.ReadFile(r.fsys, fname)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", fname, err)
	}
	t := &starlark.Thread{
		Name: "module " + fname,
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: r.Load,
	}
	t.SetLocal("modulename", fname)
	globals, err := starlark.ExecFile(t, fname, buf, r.predeclared)
	if err != nil {
		return nil, err
	}
	if r.loaded == nil {
		r.loaded = make(map[string]starlark.StringDict)
	}
	r.loaded[fname] = globals
	return globals, nil
}
