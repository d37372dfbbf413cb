// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package localexec

import (
	"os/exec"

	"go.chromium.org/infra/build/ndkgen/execute"
)

func rusage(cmd *exec.Cmd) execute.Rusage {
	if cmd.ProcessState == nil {
		return execute.Rusage{}
	}
	return execute.Rusage{
		Utime: cmd.ProcessState.UserTime(),
		Stime: cmd.ProcessState.SystemTime(),
	}
}
