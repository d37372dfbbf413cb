// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.chromium.org/infra/build/ndkgen/o11y/clog"
)

// StubPath returns the include stub path in srcDir for interface file rel.
func StubPath(srcDir, rel string) string {
	return filepath.Join(srcDir, filepath.FromSlash(stem(rel)))
}

// StubContent returns the include stub that includes the expanded
// file of rel from the out dir.
func StubContent(rel string) []byte {
	return fmt.Appendf(nil, "include!(concat!(env!(\"OUT_DIR\"), \"/%s\"));\n", stem(rel))
}

// WriteStub writes the include stub for rel unless it exists.
// It reports whether the stub was written.
func WriteStub(ctx context.Context, srcDir, rel string) (bool, error) {
	fname := StubPath(srcDir, rel)
	f, err := os.OpenFile(fname, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		clog.Infof(ctx, "Not writing %s because it exists", fname)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to write include file: %w", err)
	}
	_, err = f.Write(StubContent(rel))
	cerr := f.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		return false, fmt.Errorf("failed to write include file %s: %w", fname, err)
	}
	clog.Infof(ctx, "wrote %s", fname)
	return true, nil
}
