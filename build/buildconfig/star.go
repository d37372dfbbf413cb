// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"
)

// starFlags packs flags into a frozen Starlark dict.
func starFlags(flags map[string]string) starlark.Value {
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d := starlark.NewDict(len(flags))
	for _, k := range keys {
		// SetKey on a new unfrozen dict with string keys doesn't fail.
		_ = d.SetKey(starlark.String(k), starlark.String(flags[k]))
	}
	d.Freeze()
	return d
}

func unpackList(v starlark.Value) ([]string, error) {
	iterator := starlark.Iterate(v)
	if iterator == nil {
		return nil, fmt.Errorf("got %v; want iterator", v.Type())
	}
	defer iterator.Done()
	var elem starlark.Value
	var list []string
	for iterator.Next(&elem) {
		s, ok := starlark.AsString(elem)
		if !ok {
			return nil, fmt.Errorf("got %v in %v; want string", elem.Type(), v.Type())
		}
		list = append(list, s)
	}
	return list, nil
}

// unpackStringOrList unpacks a string as a one element list,
// or a list/tuple of strings.
func unpackStringOrList(v starlark.Value) ([]string, error) {
	if s, ok := starlark.AsString(v); ok {
		return []string{s}, nil
	}
	return unpackList(v)
}
