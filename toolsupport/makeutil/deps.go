// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package makeutil provides utilities for make format depfiles.
package makeutil

import (
	"bytes"
	"strings"
)

// ParseDeps parses deps and returns a list of inputs of the first rule.
func ParseDeps(b []byte) []string {
	// deps contents
	// <output>: <input> ...
	// <input> is space separated
	// '\'+newline is space
	// '\'+space is escaped space (not separator)
	// 2n+1 '\'s before space, tab or '#' are n '\'s and the char
	// 2n '\'s before space or tab are n '\'s and a separator
	// 2n+1 '\'s before newline are n '\'s and a space
	// '$$' is '$'
	// unescaped newline ends the rule.
	i := ruleColon(b)
	if i < 0 {
		return nil
	}
	var inputs []string
	var token string
	for s := b[i+1:]; len(s) > 0; {
		token, s = nextToken(s)
		if token != "" {
			inputs = append(inputs, token)
		}
	}
	return inputs
}

// ruleColon returns the index of the colon that separates targets
// from inputs. A colon in a windows drive letter is not a separator.
func ruleColon(b []byte) int {
	for i := 0; i < len(b); i++ {
		if b[i] != ':' {
			continue
		}
		if i+1 == len(b) {
			return i
		}
		switch b[i+1] {
		case ' ', '\t', '\r', '\n':
			return i
		}
	}
	return -1
}

// nextToken returns the next input token and the rest.
// It returns nil rest at the end of the rule.
func nextToken(s []byte) (string, []byte) {
	var sb strings.Builder
	// skip spaces
skipSpaces:
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == '\n' {
			i++
			continue
		}
		if s[i] == '\\' && i+2 < len(s) && s[i+1] == '\r' && s[i+2] == '\n' {
			i += 2
			continue
		}
		switch s[i] {
		case ' ', '\t', '\r':
			continue
		case '\n':
			return "", nil
		default:
			s = s[i:]
			break skipSpaces
		}
	}
	// extract next space not escaped
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			n := 1
			for i+n < len(s) && s[i+n] == '\\' {
				n++
			}
			j := i + n
			if j == len(s) {
				sb.Write(s[i:j])
				return sb.String(), nil
			}
			switch s[j] {
			case ' ', '\t', '#':
				sb.Write(s[i : i+n/2])
				if n%2 == 1 || s[j] == '#' {
					sb.WriteByte(s[j])
					i = j
					continue
				}
				return sb.String(), s[j+1:]
			case '\r', '\n':
				rest := s[j+1:]
				if s[j] == '\r' {
					if len(rest) == 0 || rest[0] != '\n' {
						break
					}
					rest = rest[1:]
				}
				sb.Write(s[i : i+n/2])
				if n%2 == 0 {
					// escaped '\' ends the rule.
					return sb.String(), nil
				}
				// '\'+newline is space
				return sb.String(), rest
			}
			sb.Write(s[i:j])
			i = j - 1
			continue
		}
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '$' {
			sb.WriteByte('$')
			i++
			continue
		}
		switch s[i] {
		case ' ', '\t', '\r':
			return sb.String(), s[i+1:]
		case '\n':
			return sb.String(), nil
		}
		sb.WriteByte(s[i])
	}
	return sb.String(), nil
}

// FormatDeps formats a make rule of target depending on inputs,
// one input per line. ParseDeps parses it back to inputs.
func FormatDeps(target string, inputs []string) []byte {
	var buf bytes.Buffer
	buf.WriteString(escape(target))
	buf.WriteString(":")
	for _, in := range inputs {
		buf.WriteString(" \\\n  ")
		buf.WriteString(escape(in))
	}
	buf.WriteString("\n")
	return buf.Bytes()
}

// escape escapes s as a make target or prerequisite.
// '\'s before space, tab or '#' are doubled, as are trailing '\'s
// since a separator follows.
func escape(s string) string {
	var sb strings.Builder
	backslashes := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			backslashes++
			sb.WriteByte(c)
			continue
		case ' ', '\t', '#':
			sb.WriteString(strings.Repeat(`\`, backslashes))
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '$':
			sb.WriteString("$$")
		default:
			sb.WriteByte(c)
		}
		backslashes = 0
	}
	sb.WriteString(strings.Repeat(`\`, backslashes))
	return sb.String()
}
