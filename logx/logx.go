// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logx provides a [slog.Handler] that prints one
// `LEVEL message key=value` line per record, with the level
// colored for the terminal, plus the user verbosity level.
package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
)

// UserLevel is the verbosity [slog.Level] that the user has selected for
// what logging and printing messages should be shown. Messages at
// levels at or above this level will be shown.
var UserLevel = slog.LevelInfo

// LevelFromFlags returns the [slog.Level] corresponding to the given
// user flag options. The flags correspond to the following values:
//   - vv: [slog.LevelDebug]
//   - v: [slog.LevelInfo]
//   - q: [slog.LevelError]
//   - (default: [slog.LevelWarn])
//
// The flags are evaluated in that order.
func LevelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Handler is a [slog.Handler] that writes colored single-line records.
type Handler struct {
	out   io.Writer
	mu    *sync.Mutex
	level slog.Leveler
	color *termenv.Output
	attrs []slog.Attr
	group string
}

// NewHandler returns a new [Handler] writing to the given writer, showing
// records at or above the given level. Colors are only used when the
// writer is a terminal that supports them.
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	return &Handler{
		out:   w,
		mu:    &sync.Mutex{},
		level: level,
		color: termenv.NewOutput(w),
	}
}

// SetDefault sets the default [slog] logger to a [Handler] on
// [os.Stderr] at the given level, and records that level in [UserLevel].
func SetDefault(level slog.Level) {
	UserLevel = level
	slog.SetDefault(slog.New(NewHandler(os.Stderr, level)))
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(h.levelString(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.group, a)
		return true
	})
	b.WriteByte('\n')
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(nh.attrs[:len(nh.attrs):len(nh.attrs)], h.qualify(attrs)...)
	return &nh
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	if nh.group != "" {
		nh.group += "." + name
	} else {
		nh.group = name
	}
	return &nh
}

// qualify prefixes the keys of the given attributes with the current group.
func (h *Handler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	res := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		res[i] = slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
	}
	return res
}

// levelString returns the colored name of the given level.
func (h *Handler) levelString(l slog.Level) string {
	s := h.color.String(l.String())
	switch {
	case l >= slog.LevelError:
		s = s.Foreground(h.color.Color("9")).Bold()
	case l >= slog.LevelWarn:
		s = s.Foreground(h.color.Color("11"))
	case l >= slog.LevelInfo:
		s = s.Foreground(h.color.Color("12"))
	default:
		s = s.Faint()
	}
	return s.String()
}

func writeAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, key, ga)
		}
		return
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\"=") {
		val = fmt.Sprintf("%q", val)
	}
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(val)
}
