// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// DurationThreshold is the minimum duration of a spinner step
// to be reported on success.
const DurationThreshold = 100 * time.Millisecond

type termSpinner struct {
	out        io.Writer
	mu         *sync.Mutex
	quit, done chan struct{}
	started    time.Time
	n          int
	msg        string
}

// Start starts the spinner.
func (s *termSpinner) Start(format string, args ...any) {
	s.started = time.Now()
	s.msg = fmt.Sprintf(format, args...)
	s.mu.Lock()
	fmt.Fprintf(s.out, "%s... ", s.msg)
	s.mu.Unlock()
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		for {
			select {
			case <-s.quit:
				return
			case <-time.After(1 * time.Second):
				const chars = `/-\|`
				s.mu.Lock()
				fmt.Fprintf(s.out, "\b%c", chars[s.n])
				s.mu.Unlock()
				s.n++
				if s.n >= len(chars) {
					s.n = 0
				}
			}
		}
	}()
}

func (s *termSpinner) stop() time.Duration {
	if s.quit != nil {
		close(s.quit)
		<-s.done
		s.quit = nil
	}
	return time.Since(s.started)
}

// Stop stops the spinner.
func (s *termSpinner) Stop(err error) {
	d := s.stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		fmt.Fprintf(s.out, "\r\033[K%6s %s %s %v\n", FormatDuration(d), s.msg, SGR(Red, "failed"), err)
		return
	}
	if d < DurationThreshold {
		// omit if duration is too short
		fmt.Fprintf(s.out, "\r\033[K")
		return
	}
	fmt.Fprintf(s.out, "\r\033[K%6s %s\n", FormatDuration(d), s.msg)
}

// Done finishes the spinner with message.
func (s *termSpinner) Done(format string, args ...any) {
	d := s.stop()
	msg := fmt.Sprintf(format, args...)
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r\033[K%6s %s %s\n", FormatDuration(d), s.msg, msg)
}

// TermUI is a terminal-based UI.
type TermUI struct {
	out   io.Writer
	mu    sync.Mutex
	width int
}

func (t *TermUI) init() {
	t.width, _, _ = term.GetSize(int(os.Stdout.Fd()))
}

// PrintLines prints msgs, eliding each line to the terminal width.
func (t *TermUI) PrintLines(msgs ...string) {
	var buf bytes.Buffer
	writeLinesMaxWidth(&buf, msgs, t.width)
	buf.WriteByte('\n')
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.Write(buf.Bytes())
}

// NewSpinner returns a terminal-based spinner.
func (t *TermUI) NewSpinner() Spinner {
	return &termSpinner{out: t.out, mu: &t.mu}
}

// Infof prints a message.
func (t *TermUI) Infof(format string, args ...any) {
	t.PrintLines(fmt.Sprintf(format, args...))
}

// Warningf prints a warning message in yellow.
func (t *TermUI) Warningf(format string, args ...any) {
	t.PrintLines(SGR(Yellow, fmt.Sprintf(format, args...)))
}

// Errorf prints an error message in red.
func (t *TermUI) Errorf(format string, args ...any) {
	t.PrintLines(SGR(Red, fmt.Sprintf(format, args...)))
}
