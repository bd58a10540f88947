// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fsx provides various filesystem helper functions
// for the asset layout written next to a scene file.
package fsx

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/errors"
)

// FileExists checks whether given file exists, returning true if so,
// false if not, and error if there is an error in accessing the file.
func FileExists(filePath string) (bool, error) {
	fileInfo, err := os.Stat(filePath)
	if err == nil {
		return !fileInfo.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// RelWithin returns the slash-separated path of target relative to dir
// when target lies inside dir (both are made absolute first).
// It returns false when target is outside of dir or equal to it.
func RelWithin(dir, target string) (string, bool) {
	adir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	atarg, err := filepath.Abs(target)
	if err != nil {
		return "", false
	}
	prefix := adir + string(filepath.Separator)
	if !strings.HasPrefix(atarg, prefix) {
		return "", false
	}
	return filepath.ToSlash(atarg[len(prefix):]), true
}

// CopyFile copies the contents of src into dst, creating
// the destination directory as needed and replacing dst.
func CopyFile(dst, src string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ExtSplit returns the base name of the file without extension,
// and the extension including the leading dot.
func ExtSplit(file string) (base, ext string) {
	ext = filepath.Ext(file)
	base = strings.TrimSuffix(filepath.Base(file), ext)
	return
}
