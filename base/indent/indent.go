// Copyright (c) 2018, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package indent provides indentation strings for nested output.
package indent

import "strings"

// Tabs returns a string of n tabs.
func Tabs(n int) string {
	return strings.Repeat("\t", n)
}

// Spaces returns a string of n*width spaces.
func Spaces(n, width int) string {
	return strings.Repeat(" ", n*width)
}

// Indent generates the indentation of each nesting level: one tab per
// level, or Width spaces per level when Width is positive. Strings are
// built once per level.
type Indent struct {
	Width int

	levels []string
}

// String returns the indentation of level n.
func (in *Indent) String(n int) string {
	if n <= 0 {
		return ""
	}
	for len(in.levels) <= n {
		l := len(in.levels)
		if in.Width > 0 {
			in.levels = append(in.levels, Spaces(l, in.Width))
		} else {
			in.levels = append(in.levels, Tabs(l))
		}
	}
	return in.levels[n]
}
