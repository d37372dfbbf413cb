// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"slices"

	"go.chromium.org/infra/build/ndkgen/build/buildconfig"
)

// IsAndroid reports whether triple is one of the default Android
// target triples. It doesn't check substring "android".
// Builder checks the config's AndroidTargets instead, which may differ.
func IsAndroid(triple string) bool {
	return isTarget(buildconfig.Default().AndroidTargets, triple)
}

func isTarget(targets []string, triple string) bool {
	return slices.Contains(targets, triple)
}
