// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package assets copies the files referenced by a scene (textures,
// meshes and spectra) into the asset folders next to the scene file,
// giving each source a single stable name and copying it at most once.
package assets

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/h2non/filetype"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/fsx"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/host"
)

// Category is the kind of asset, which selects its folder.
type Category int32

const (
	Texture Category = iota
	Emitter
	Shape
	Spectrum
)

var categoryNames = [...]string{"Texture", "Emitter", "Shape", "Spectrum"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", c)
	}
	return categoryNames[c]
}

// Folder returns the asset folder of the category,
// relative to the scene directory.
func (c Category) Folder() string {
	switch c {
	case Shape:
		return "meshes"
	case Spectrum:
		return "spectra"
	}
	return "textures"
}

// Prefix returns the file name prefix of copied assets.
func (c Category) Prefix() string {
	switch c {
	case Shape:
		return "mesh"
	case Spectrum:
		return "spectrum"
	}
	return "tex"
}

// Cache assigns output names to asset files. It is created for
// one export and must not be used concurrently.
type Cache struct {
	dir string
	log *slog.Logger

	// paths maps a category folder and absolute source path
	// to the relative output path.
	paths map[string]string

	// images maps the id of packed images to the relative output path.
	images map[string]string

	// counters holds the next number of each file name prefix.
	counters map[string]int

	copies int
}

// New returns a new cache writing into the given scene directory.
func New(dir string, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		dir:      dir,
		log:      log,
		paths:    map[string]string{},
		images:   map[string]string{},
		counters: map[string]int{},
	}
}

// Dir returns the scene directory.
func (c *Cache) Dir() string { return c.dir }

// Copies returns the number of files written so far.
func (c *Cache) Copies() int { return c.copies }

// folder returns the absolute folder of the given category.
func (c *Cache) folder(cat Category) string {
	return filepath.Join(c.dir, cat.Folder())
}

// within returns the output path of source when it already lies in the
// folder of the category. Relative sources are taken relative to the
// scene directory, so that output paths map to themselves.
func (c *Cache) within(source string, cat Category) (string, bool) {
	folder := c.folder(cat)
	if !filepath.IsAbs(source) {
		if rel, ok := fsx.RelWithin(folder, filepath.Join(c.dir, source)); ok {
			return cat.Folder() + "/" + rel, true
		}
	}
	if rel, ok := fsx.RelWithin(folder, source); ok {
		return cat.Folder() + "/" + rel, true
	}
	return "", false
}

// nextName returns the next output file name for the category.
func (c *Cache) nextName(cat Category, ext string) string {
	p := cat.Prefix()
	n := c.counters[p]
	c.counters[p] = n + 1
	return fmt.Sprintf("%s-%d%s", p, n, ext)
}

// FormatPath returns the path, relative to the scene directory, under
// which the given source file is found by the scene. Sources already in
// the category folder are used in place; others are copied there once.
func (c *Cache) FormatPath(source string, cat Category) (string, error) {
	if rel, ok := c.within(source, cat); ok {
		return rel, nil
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", err
	}
	key := cat.Folder() + "|" + abs
	if rel, ok := c.paths[key]; ok {
		return rel, nil
	}
	ext := filepath.Ext(abs)
	if ext == "" {
		ext = sniffExt(abs)
	}
	name := c.nextName(cat, ext)
	if err := fsx.CopyFile(filepath.Join(c.folder(cat), name), abs); err != nil {
		return "", fmt.Errorf("assets: copying %s: %w", source, err)
	}
	c.copies++
	rel := cat.Folder() + "/" + name
	c.paths[key] = rel
	c.log.Debug("copied asset", "source", source, "path", rel)
	return rel, nil
}

// ExportTexture returns the output path of the given image. Packed
// images are saved through the host, keyed by their id. Images in a
// format the renderer cannot load are converted, with a warning.
func (c *Cache) ExportTexture(img host.Image) (string, error) {
	from := img.Format()
	to := from.Target()
	if !img.Packed() && to == from {
		return c.FormatPath(img.Filepath(), Texture)
	}

	var key string
	if img.Packed() {
		if rel, ok := c.images[img.ID()]; ok {
			return rel, nil
		}
	} else {
		abs, err := filepath.Abs(img.Filepath())
		if err != nil {
			return "", err
		}
		key = Texture.Folder() + "|" + abs
		if rel, ok := c.paths[key]; ok {
			return rel, nil
		}
	}
	if to != from {
		c.log.Warn("unsupported texture format, converting", "image", img.Name(), "from", from, "to", to)
	}
	name := c.nextName(Texture, to.Ext())
	if err := img.Save(filepath.Join(c.folder(Texture), name), to); err != nil {
		return "", fmt.Errorf("assets: saving image %s: %w", img.Name(), err)
	}
	c.copies++
	rel := Texture.Folder() + "/" + name
	if img.Packed() {
		c.images[img.ID()] = rel
	} else {
		c.paths[key] = rel
	}
	return rel, nil
}

// sniffExt returns the extension matching the contents of the
// given file, or "" if it cannot be determined.
func sniffExt(filename string) string {
	kind, err := filetype.MatchFile(filename)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return "." + kind.Extension
}
