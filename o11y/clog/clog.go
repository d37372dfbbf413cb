// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clog provides context aware logging.
// It can store trace, spanID, arbitrary labels to each context.
// The main use case is to add the generation step (target triple, run id,
// interface file) to each log entry automatically.
package clog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"
)

type contextKeyType int

var contextKey contextKeyType

// defaultFormatter doesn't set any context to the log content.
// Labels are emitted as structured key-values instead.
var defaultFormatter = func(labels map[string]string, msg string) string {
	return msg
}

// New creates a new Logger that writes to base.
// If base is nil, it uses the process default logger.
func New(ctx context.Context, base *log.Logger) *Logger {
	return &Logger{
		Formatter: defaultFormatter,
		base:      base,
	}
}

// NewContext sets the given logger to the context.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey, logger)
}

// NewSpan sets a new logger.Span with the given labels to the context.
func NewSpan(ctx context.Context, trace, spanID string, labels map[string]string) context.Context {
	return NewContext(ctx, logger(ctx).Span(trace, spanID, labels))
}

// FromContext returns a logger in the context, or nil if it's not set.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey).(*Logger)
	if !ok {
		return nil
	}
	return logger
}

// logger returns a logger in the context, or a logger on the
// default logger if it's not set.
func logger(ctx context.Context) *Logger {
	l := FromContext(ctx)
	if l == nil {
		return New(ctx, nil)
	}
	return l
}

// Logger holds the trace, spanID, arbitrary labels of the context.
// It also can have custom formatter to generate a log content.
type Logger struct {
	// Formatter formats a message with labels.
	// Default returns the message as is.
	Formatter func(labels map[string]string, msg string) string

	base *log.Logger

	trace  string
	spanID string
	labels map[string]string
}

// Span returns a sub logger for the trace span.
// Labels of l are inherited unless overridden by labels.
func (l *Logger) Span(trace, spanID string, labels map[string]string) *Logger {
	merged := make(map[string]string, len(l.labels)+len(labels))
	for k, v := range l.labels {
		merged[k] = v
	}
	for k, v := range labels {
		merged[k] = v
	}
	return &Logger{
		Formatter: l.Formatter,
		base:      l.base,
		trace:     trace,
		spanID:    spanID,
		labels:    merged,
	}
}

// Labels returns a copy of the labels of the logger.
func (l *Logger) Labels() map[string]string {
	m := make(map[string]string, len(l.labels))
	for k, v := range l.labels {
		m[k] = v
	}
	return m
}

func (l *Logger) baseLogger() *log.Logger {
	if l.base == nil {
		return log.Default()
	}
	return l.base
}

func (l *Logger) keyvals() []any {
	keys := make([]string, 0, len(l.labels))
	for k := range l.labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]any, 0, 2*len(keys)+4)
	if l.trace != "" {
		kv = append(kv, "trace", l.trace)
	}
	if l.spanID != "" {
		kv = append(kv, "span", l.spanID)
	}
	for _, k := range keys {
		kv = append(kv, k, l.labels[k])
	}
	return kv
}

func (l *Logger) log(level log.Level, msg string) {
	formatter := l.Formatter
	if formatter == nil {
		formatter = defaultFormatter
	}
	l.baseLogger().Log(level, formatter(l.labels, msg), l.keyvals()...)
}

// Debugf logs at debug log level in the manner of fmt.Printf.
func (l *Logger) Debugf(format string, args ...any) {
	l.log(log.DebugLevel, fmt.Sprintf(format, args...))
}

// Debugf logs at debug log level in the manner of fmt.Printf.
func Debugf(ctx context.Context, format string, args ...any) {
	logger(ctx).log(log.DebugLevel, fmt.Sprintf(format, args...))
}

// Info logs at info log level in the manner of fmt.Print.
func (l *Logger) Info(args ...any) {
	l.log(log.InfoLevel, fmt.Sprint(args...))
}

// Infof logs at info log level in the manner of fmt.Printf.
func (l *Logger) Infof(format string, args ...any) {
	l.log(log.InfoLevel, fmt.Sprintf(format, args...))
}

// Infof logs at info log level in the manner of fmt.Printf.
func Infof(ctx context.Context, format string, args ...any) {
	logger(ctx).log(log.InfoLevel, fmt.Sprintf(format, args...))
}

// Warning logs at warning log level in the manner of fmt.Print.
func (l *Logger) Warning(args ...any) {
	l.log(log.WarnLevel, fmt.Sprint(args...))
}

// Warningf logs at warning log level in the manner of fmt.Printf.
func (l *Logger) Warningf(format string, args ...any) {
	l.log(log.WarnLevel, fmt.Sprintf(format, args...))
}

// Warningf logs at warning log level in the manner of fmt.Printf.
func Warningf(ctx context.Context, format string, args ...any) {
	logger(ctx).log(log.WarnLevel, fmt.Sprintf(format, args...))
}

// Error logs at error log level in the manner of fmt.Print.
func (l *Logger) Error(args ...any) {
	l.log(log.ErrorLevel, fmt.Sprint(args...))
}

// Errorf logs at error log level in the manner of fmt.Printf.
func (l *Logger) Errorf(format string, args ...any) {
	l.log(log.ErrorLevel, fmt.Sprintf(format, args...))
}

// Errorf logs at error log level in the manner of fmt.Printf.
func Errorf(ctx context.Context, format string, args ...any) {
	logger(ctx).log(log.ErrorLevel, fmt.Sprintf(format, args...))
}

// V checks at verbose log level.
// Level 1 and above are enabled when debug logging is on.
func (l *Logger) V(level int) bool {
	if level <= 0 {
		return true
	}
	return l.baseLogger().GetLevel() <= log.DebugLevel
}

// V checks at verbose log level for the logger in the context.
func V(ctx context.Context, level int) bool {
	return logger(ctx).V(level)
}

type debugWriter struct {
	ctx    context.Context
	prefix string
}

// DebugWriter returns a writer that logs each write at debug level,
// prefixed with prefix. Nothing is logged unless V(ctx, 1).
func DebugWriter(ctx context.Context, prefix string) io.Writer {
	return debugWriter{ctx: ctx, prefix: prefix}
}

func (w debugWriter) Write(p []byte) (int, error) {
	if !V(w.ctx, 1) {
		return len(p), nil
	}
	for _, line := range bytes.Split(bytes.TrimRight(p, "\r\n"), []byte("\n")) {
		Debugf(w.ctx, "%s: %s", w.prefix, bytes.TrimRight(line, "\r"))
	}
	return len(p), nil
}
