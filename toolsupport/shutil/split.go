// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package shutil provides POSIX shell command line utilities.
package shutil

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnterminated is returned when a quote or an escape is not closed.
var ErrUnterminated = errors.New("unterminated quote or escape")

// Split splits a command line into args, following POSIX shell quoting
// rules for '...', "..." and backslash escapes.
// It returns an error for command lines that need a real shell,
// i.e. pipelines, redirections, variable expansion or env assignments.
func Split(cmdline string) ([]string, error) {
	var args []string
	var sb strings.Builder
	inarg := false
	const (
		plain = iota
		single
		double
	)
	state := plain
	for i := 0; i < len(cmdline); i++ {
		ch := cmdline[i]
		switch state {
		case single:
			if ch == '\'' {
				state = plain
				continue
			}
			sb.WriteByte(ch)
			continue
		case double:
			switch ch {
			case '"':
				state = plain
			case '\\':
				if i+1 >= len(cmdline) {
					return nil, ErrUnterminated
				}
				switch next := cmdline[i+1]; next {
				case '"', '\\', '$', '`':
					sb.WriteByte(next)
					i++
				case '\n':
					i++
				default:
					sb.WriteByte(ch)
				}
			case '$', '`':
				return nil, fmt.Errorf("failed to split: cmdline contains shell metachar %c in double quote", ch)
			default:
				sb.WriteByte(ch)
			}
			continue
		}
		switch ch {
		case ' ', '\t', '\n':
			if inarg {
				args = append(args, sb.String())
				sb.Reset()
				inarg = false
			}
		case '\\':
			if i+1 >= len(cmdline) {
				return nil, ErrUnterminated
			}
			i++
			if cmdline[i] != '\n' {
				sb.WriteByte(cmdline[i])
				inarg = true
			}
		case '\'':
			state = single
			inarg = true
		case '"':
			state = double
			inarg = true
		case ';', '&', '|', '<', '>', '$', '#', '`', '(', ')':
			return nil, fmt.Errorf("failed to split: cmdline contains shell metachar %c", ch)
		default:
			sb.WriteByte(ch)
			inarg = true
		}
	}
	if state != plain {
		return nil, ErrUnterminated
	}
	if inarg {
		args = append(args, sb.String())
	}
	if len(args) >= 1 && isEnvAssign(args[0]) {
		// an initial `NAME=value` sets an env var and needs to be invoked via sh.
		return nil, fmt.Errorf("argv[0] is env set %q", args[0])
	}
	return args, nil
}

// isEnvAssign reports whether arg has the form NAME=value.
func isEnvAssign(arg string) bool {
	name, _, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return false
	}
	for i, ch := range name {
		switch {
		case ch == '_', 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z':
		case i > 0 && '0' <= ch && ch <= '9':
		default:
			return false
		}
	}
	return true
}
