// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package localexec implements local command execution.
package localexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"go.chromium.org/infra/build/ndkgen/execute"
	"go.chromium.org/infra/build/ndkgen/o11y/clog"
)

// LocalExec implements execute.Executor interface that runs commands locally.
type LocalExec struct{}

// Run runs cmd with LocalExec.
func Run(ctx context.Context, cmd *execute.Cmd) error {
	return LocalExec{}.Run(ctx, cmd)
}

// Run runs a cmd and waits for it to finish.
// It returns execute.ExitError if the process exits with non-zero status,
// and other errors if the process could not be started.
func (LocalExec) Run(ctx context.Context, cmd *execute.Cmd) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("no arguments in the command. ID: %s", cmd)
	}
	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	c.Env = cmd.Env
	c.Dir = cmd.Dir
	if cmd.Stdin != nil {
		c.Stdin = bytes.NewReader(cmd.Stdin)
	}
	c.Stdout = cmd.StdoutWriter()
	c.Stderr = cmd.StderrWriter()

	s := time.Now()
	err := c.Start()
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Args[0], err)
	}
	err = c.Wait()
	cmd.Usage = rusage(c)
	cmd.Usage.Wall = time.Since(s)
	code := exitCode(err)
	clog.Debugf(ctx, "%s exit=%d stdout=%d stderr=%d wall=%s utime=%s stime=%s", cmd, code, len(cmd.Stdout()), len(cmd.Stderr()), cmd.Usage.Wall, cmd.Usage.Utime, cmd.Usage.Stime)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", cmd.Args[0], context.Cause(ctx))
		}
		var eerr *exec.ExitError
		if !errors.As(err, &eerr) {
			return fmt.Errorf("failed to run %s: %w", cmd.Args[0], err)
		}
		return execute.ExitError{ExitCode: code}
	}
	return nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var eerr *exec.ExitError
	if !errors.As(err, &eerr) {
		return 1
	}
	if w, ok := eerr.ProcessState.Sys().(syscall.WaitStatus); ok {
		return w.ExitStatus()
	}
	return eerr.ExitCode()
}
