// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package indent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndent(t *testing.T) {
	var tabs Indent
	assert.Equal(t, "", tabs.String(0))
	assert.Equal(t, "\t\t\t", tabs.String(3))
	assert.Equal(t, "\t", tabs.String(1))

	spaces := Indent{Width: 2}
	assert.Equal(t, "    ", spaces.String(2))
	assert.Equal(t, "", spaces.String(-1))

	assert.Equal(t, "\t\t", Tabs(2))
	assert.Equal(t, "      ", Spaces(3, 2))
}
