// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package imagex knows the image file formats a host application can
// hand to the exporter, which of them the renderer can load directly,
// and how to convert the ones that can be decoded in-process.
package imagex

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Formats are the image file formats known to the exporter.
type Formats int32

// The known image formats
const (
	None Formats = iota
	PNG
	JPEG
	BMP
	TIFF
	WebP
	EXR
	HDR
	TGA
	IRIS
	CINEON
	DPX
)

var formatNames = [...]string{"None", "PNG", "JPEG", "BMP", "TIFF", "WEBP", "OPEN_EXR", "HDR", "TARGA", "IRIS", "CINEON", "DPX"}

var formatExts = [...]string{"", ".png", ".jpg", ".bmp", ".tif", ".webp", ".exr", ".hdr", ".tga", ".rgb", ".cin", ".dpx"}

// String returns the host name of the format, e.g. OPEN_EXR.
func (f Formats) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Formats(%d)", f)
	}
	return formatNames[f]
}

// Ext returns the canonical file extension of the format, with the dot.
func (f Formats) Ext() string {
	if f < 0 || int(f) >= len(formatExts) {
		return ""
	}
	return formatExts[f]
}

// ParseFormat returns the format with the given host name (case insensitive).
// A few common aliases (JPG, EXR, TGA, TIF) are accepted as well.
func ParseFormat(s string) (Formats, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "JPG":
		return JPEG, nil
	case "EXR":
		return EXR, nil
	case "TGA":
		return TGA, nil
	case "TIF":
		return TIFF, nil
	}
	for i, nm := range formatNames {
		if i > 0 && nm == s {
			return Formats(i), nil
		}
	}
	return None, fmt.Errorf("imagex.ParseFormat: format %q not recognized", s)
}

// ExtToFormat returns a Format based on a filename extension,
// which can start with a . or not
func ExtToFormat(ext string) (Formats, error) {
	if len(ext) == 0 {
		return None, errors.New("ExtToFormat: ext is empty")
	}
	if ext[0] == '.' {
		ext = ext[1:]
	}
	ext = strings.ToLower(ext)
	switch ext {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	case "webp":
		return WebP, nil
	case "exr":
		return EXR, nil
	case "hdr":
		return HDR, nil
	case "tga":
		return TGA, nil
	case "rgb", "sgi", "bw":
		return IRIS, nil
	case "cin":
		return CINEON, nil
	case "dpx":
		return DPX, nil
	}
	return None, fmt.Errorf("ExtToFormat: extension %q not recognized", ext)
}

// Target returns the format an image must be written in for the renderer
// to load it: CINEON and DPX become EXR, TIFF and IRIS become PNG,
// everything else is kept.
func (f Formats) Target() Formats {
	switch f {
	case CINEON, DPX:
		return EXR
	case TIFF, IRIS:
		return PNG
	}
	return f
}

// NeedsConversion returns whether the format differs from its [Formats.Target].
func (f Formats) NeedsConversion() bool {
	return f.Target() != f
}

// CanDecode returns whether images of this format can be read in-process.
func (f Formats) CanDecode() bool {
	switch f {
	case PNG, JPEG, BMP, TIFF, WebP:
		return true
	}
	return false
}

// Open opens an image from the given filename.
// The format is inferred automatically,
// and is returned using the Formats enum.
// png, jpeg, tiff, bmp, and webp are supported.
func Open(filename string) (image.Image, Formats, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, None, err
	}
	defer file.Close()
	return Read(file)
}

// Read reads an image from the given reader,
// The format is inferred automatically,
// and is returned using the Formats enum.
func Read(r io.Reader) (image.Image, Formats, error) {
	im, ext, err := image.Decode(r)
	if err != nil {
		return im, None, err
	}
	f, err := ExtToFormat(ext)
	return im, f, err
}

// Save saves the image to the given filename,
// with the format inferred from the filename.
// png, jpeg, tiff, and bmp are supported.
func Save(im image.Image, filename string) error {
	ext := filepath.Ext(filename)
	f, err := ExtToFormat(ext)
	if err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	bw := bufio.NewWriter(file)
	if err := Write(im, bw, f); err != nil {
		return err
	}
	return bw.Flush()
}

// Write writes the image to the given writer using the given format.
// png, jpeg, tiff, and bmp are supported.
func Write(im image.Image, w io.Writer, f Formats) error {
	switch f {
	case PNG:
		return png.Encode(w, im)
	case JPEG:
		return jpeg.Encode(w, im, &jpeg.Options{Quality: 90})
	case TIFF:
		return tiff.Encode(w, im, nil)
	case BMP:
		return bmp.Encode(w, im)
	default:
		return fmt.Errorf("iox/imagex.Write: format %q not valid", f)
	}
}

// Convert decodes src and saves it as dst, whose extension selects
// the output format.
func Convert(dst, src string) error {
	im, _, err := Open(src)
	if err != nil {
		return fmt.Errorf("imagex.Convert: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return Save(im, dst)
}
