// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/fsx"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/iox/imagex"
)

// FileImage is an [Image] backed by a file on disk, or by
// data read from one when packed.
type FileImage struct {
	ImageName string

	// Path is the absolute path of the source file.
	Path string

	FileFormat imagex.Formats
	ColorSpace string

	// Data holds the image file contents of a packed image.
	Data []byte
}

var _ Image = (*FileImage)(nil)

func (im *FileImage) ID() string { return "image:" + im.ImageName }

func (im *FileImage) Name() string { return im.ImageName }

func (im *FileImage) Filepath() string {
	if im.Packed() {
		return ""
	}
	return im.Path
}

func (im *FileImage) Packed() bool { return im.Data != nil }

func (im *FileImage) Format() imagex.Formats { return im.FileFormat }

func (im *FileImage) Colorspace() string { return im.ColorSpace }

// Save writes the image in the given format, copying the data when
// the format is unchanged and re-encoding it otherwise. Only formats
// that [imagex] can decode can be converted.
func (im *FileImage) Save(filename string, format imagex.Formats) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	if format == im.FileFormat {
		if im.Packed() {
			return os.WriteFile(filename, im.Data, 0o666)
		}
		return fsx.CopyFile(filename, im.Path)
	}
	if !im.FileFormat.CanDecode() {
		return fmt.Errorf("host.FileImage.Save: %s: cannot convert %s to %s", im.ImageName, im.FileFormat, format)
	}
	if !im.Packed() {
		return imagex.Convert(filename, im.Path)
	}
	img, _, err := imagex.Read(bytes.NewReader(im.Data))
	if err != nil {
		return fmt.Errorf("host.FileImage.Save: %s: %w", im.ImageName, err)
	}
	return imagex.Save(img, filename)
}
