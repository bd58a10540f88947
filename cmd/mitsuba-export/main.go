// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command mitsuba-export exports host scene descriptions
// to renderer XML scene files.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := NewRoot().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
