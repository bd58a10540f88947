// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package writer writes a preprocessed scene as renderer XML, either to
// a single file or to a main file that includes one fragment file per
// section. Every element is written straight to its file, so that a
// failed export leaves a readable prefix.
package writer

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/assets"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/errors"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/indent"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/preprocess"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/scene"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/transform"
)

var (
	// ErrDuplicateID is returned when two plugins are written with the same id.
	ErrDuplicateID = errors.New("writer: duplicate id")

	// ErrUnknownRef is returned for a reference to an id that has
	// not been written yet.
	ErrUnknownRef = errors.New("writer: reference to unknown id")

	// ErrNoFile is returned when writing without an open output file.
	ErrNoFile = errors.New("writer: no output file")

	// ErrValue is returned for a value that has no XML form.
	ErrValue = errors.New("writer: unsupported value")
)

// Header is the first line of every output file.
const Header = `<?xml version="1.0" encoding="utf-8"?>`

// Options control the output.
type Options struct {

	// ExportIDs writes the id of every top-level plugin. When false,
	// only ids that are referenced are written.
	ExportIDs bool

	// SceneVersion is the version attribute of the scene element.
	SceneVersion string

	// SensorScale keeps the scale when sensor transforms are decomposed.
	SensorScale bool

	// IndentWidth is the number of spaces per nesting level;
	// zero indents with tabs.
	IndentWidth int
}

// file is one output file with its own indentation state.
type file struct {
	path  string
	f     *os.File
	depth int
	stack []string
}

// Writer writes scenes to XML files.
type Writer struct {
	Assets  *assets.Cache
	Options Options
	Log     *slog.Logger

	name      string
	main      *file
	fragments map[string]*file
	cur       *file
	indent    indent.Indent
	ids       map[string]bool
	refs      map[string]bool
}

// New returns a new writer resolving file names through the given cache.
func New(a *assets.Cache, opts Options) *Writer {
	if opts.SceneVersion == "" {
		opts.SceneVersion = "2.0.0"
	}
	return &Writer{Assets: a, Options: opts, Log: slog.Default(),
		indent: indent.Indent{Width: opts.IndentWidth}, ids: map[string]bool{}}
}

// Name returns the base name of the main file, without extension.
func (w *Writer) Name() string { return w.name }

// SetFilename opens the main file, and with split the fragment files
// next to it. Any files open from before are closed first.
func (w *Writer) SetFilename(path string, split bool) error {
	if err := w.Close(); err != nil {
		return err
	}
	w.name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	w.ids = map[string]bool{}
	var err error
	w.main, err = create(path)
	if err != nil {
		return err
	}
	if !split {
		return nil
	}
	w.fragments = map[string]*file{}
	dir := filepath.Dir(path)
	for _, f := range preprocess.Fragments {
		fn := filepath.Join(dir, filepath.FromSlash(preprocess.FragmentFilename(w.name, f)))
		fl, err := create(fn)
		if err != nil {
			return errors.Join(err, w.Close())
		}
		w.fragments[f] = fl
	}
	return nil
}

func create(path string) (*file, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &file{path: path, f: f}, nil
}

// Close closes every open file. It is safe to call more than once.
func (w *Writer) Close() error {
	var errs []error
	closeFile := func(fl *file) {
		if fl == nil || fl.f == nil {
			return
		}
		errs = append(errs, fl.f.Close())
		fl.f = nil
	}
	closeFile(w.main)
	for _, f := range preprocess.Fragments {
		closeFile(w.fragments[f])
	}
	w.main, w.fragments, w.cur = nil, nil, nil
	return errors.Join(errs...)
}

// Configure writes the preprocessed scene to the open files and closes them.
func (w *Writer) Configure(r *preprocess.Result) (err error) {
	defer func() {
		err = errors.Join(err, w.Close())
	}()
	if w.main == nil {
		return ErrNoFile
	}
	w.refs = r.Referenced
	sections := map[string]*preprocess.Section{}
	for _, s := range r.Fragments {
		if w.fragments[s.Name] == nil {
			return fmt.Errorf("%w for fragment %q", ErrNoFile, s.Name)
		}
		sections[s.Filename] = s
	}

	w.cur = w.main
	if err := w.open(""); err != nil {
		return err
	}
	for key, d := range r.Main.Entries.All() {
		if err := w.top(key, d); err != nil {
			return fmt.Errorf("writer: %s: %w", key, err)
		}
		if d.Type() != plugin.Include {
			continue
		}
		fn, _ := d.Get("filename").(string)
		s := sections[fn]
		if s == nil {
			continue
		}
		if err := w.fragment(s); err != nil {
			return err
		}
		w.cur = w.main
	}
	return w.closeScene()
}

// fragment writes a complete fragment document.
func (w *Writer) fragment(s *preprocess.Section) error {
	w.cur = w.fragments[s.Name]
	if err := w.open(fmt.Sprintf("%s of %s.xml", s.Name, w.name)); err != nil {
		return err
	}
	for key, d := range s.Entries.All() {
		if err := w.top(key, d); err != nil {
			return fmt.Errorf("writer: %s: %s: %w", s.Filename, key, err)
		}
	}
	return w.closeScene()
}

// open writes the header, the optional banner and opens the scene element.
func (w *Writer) open(banner string) error {
	if err := w.line(Header); err != nil {
		return err
	}
	if banner != "" {
		if err := w.line("<!-- " + comment(banner) + " -->"); err != nil {
			return err
		}
	}
	return w.start("scene", []xml.Attr{attr("version", w.Options.SceneVersion)}, false)
}

func (w *Writer) closeScene() error {
	return w.end()
}

// top writes a scene level entry.
func (w *Writer) top(key string, d *plugin.Dict) error {
	if plugin.IsLeaf(d.Type()) {
		return w.leaf("", d)
	}
	return w.plugin(key, d, true)
}

// plugin writes a plugin element and its parameters. Scene level plugins
// carry their key as id, nested ones as name.
func (w *Writer) plugin(key string, d *plugin.Dict, top bool) error {
	typ := d.Type()
	if typ == "" {
		return plugin.ErrMissingType
	}
	tag, err := plugin.TagOf(typ)
	if err != nil {
		return err
	}
	attrs := []xml.Attr{attr("type", typ)}
	switch {
	case top && scene.IsPluginKey(key):
		if w.ids[key] {
			return fmt.Errorf("%w %q", ErrDuplicateID, key)
		}
		w.ids[key] = true
		if w.Options.ExportIDs || w.refs[key] {
			attrs = append(attrs, attr("id", key))
		}
	case !top:
		attrs = append(attrs, attr("name", key))
	}
	empty := d.Len() == 1
	if err := w.start(string(tag), attrs, empty); err != nil {
		return err
	}
	if empty {
		return nil
	}
	for k, v := range d.All() {
		if k == plugin.TypeKey {
			continue
		}
		if err := w.value(k, v, tag, typ); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	return w.end()
}

// value writes a parameter of a plugin with the given tag and type.
func (w *Writer) value(key string, v any, parent plugin.Tag, typ string) error {
	switch x := v.(type) {
	case *plugin.Dict:
		if plugin.IsLeaf(x.Type()) {
			return w.leaf(key, x)
		}
		return w.plugin(key, x, false)
	case math32.Matrix4:
		return w.transform(key, x, parent, typ)
	case math32.Vector3:
		return w.start("point", []xml.Attr{attr("name", key), attr("value", x.String())}, true)
	case []float32:
		if len(x) != 3 {
			return fmt.Errorf("%w: %d floats", ErrValue, len(x))
		}
		return w.start("point", []xml.Attr{attr("name", key), attr("value", math32.Vec3(x[0], x[1], x[2]).String())}, true)
	case string:
		if key == "filename" {
			p, err := w.filename(x, parent)
			if err != nil {
				return err
			}
			x = p
		}
		return w.start(plugin.String, []xml.Attr{attr("name", key), attr("value", x)}, true)
	}
	typ, s, err := scalar(v)
	if err != nil {
		return err
	}
	return w.start(typ, []xml.Attr{attr("name", key), attr("value", s)}, true)
}

// filename returns the output path of a file parameter.
func (w *Writer) filename(p string, parent plugin.Tag) (string, error) {
	if w.Assets == nil {
		return p, nil
	}
	var cat assets.Category
	switch parent {
	case plugin.TagTexture:
		cat = assets.Texture
	case plugin.TagShape:
		cat = assets.Shape
	case plugin.TagEmitter:
		cat = assets.Emitter
	case plugin.TagSpectrum:
		cat = assets.Spectrum
	default:
		return p, nil
	}
	return w.Assets.FormatPath(p, cat)
}

// transform writes a matrix as a transform element. Sensor transforms
// are decomposed so that the orientation can be edited by hand.
// Orthographic sensors always keep their scale, which holds the view size.
func (w *Writer) transform(key string, m math32.Matrix4, parent plugin.Tag, typ string) error {
	if err := w.start("transform", []xml.Attr{attr("name", key)}, false); err != nil {
		return err
	}
	ops := []*plugin.Dict{transform.Matrix(m)}
	if parent == plugin.TagSensor {
		ops = transform.Sensor(m, w.Options.SensorScale || typ == "orthographic")
	}
	for _, op := range ops {
		if err := w.leaf("", op); err != nil {
			return err
		}
	}
	return w.end()
}

// leaf writes a self-closing value element bearing its own attributes.
// A non-empty key is the name of the element in its parent.
func (w *Writer) leaf(key string, d *plugin.Dict) error {
	typ := d.Type()
	if typ == plugin.Comment {
		s, _ := d.Get("value").(string)
		return w.line("<!-- " + comment(s) + " -->")
	}
	var attrs []xml.Attr
	if key != "" && !d.Has("name") {
		attrs = append(attrs, attr("name", key))
	}
	for k, v := range d.All() {
		if k == plugin.TypeKey {
			continue
		}
		s, err := attrValue(v)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		attrs = append(attrs, attr(k, s))
	}
	if typ == plugin.Ref {
		id, _ := d.Get("id").(string)
		if !w.ids[id] {
			return fmt.Errorf("%w %q", ErrUnknownRef, id)
		}
	}
	return w.start(typ, attrs, true)
}

// scalar returns the element type and value of a scalar parameter.
func scalar(v any) (string, string, error) {
	switch x := v.(type) {
	case bool:
		return plugin.Boolean, strconv.FormatBool(x), nil
	case int:
		return plugin.Integer, strconv.Itoa(x), nil
	case int32:
		return plugin.Integer, strconv.Itoa(int(x)), nil
	case int64:
		return plugin.Integer, strconv.FormatInt(x, 10), nil
	case uint32:
		return plugin.Integer, strconv.FormatUint(uint64(x), 10), nil
	case float32:
		return plugin.Float, math32.ToString(x), nil
	case float64:
		return plugin.Float, math32.ToString(float32(x)), nil
	case string:
		return plugin.String, x, nil
	}
	return "", "", fmt.Errorf("%w of type %T", ErrValue, v)
}

// attrValue returns the attribute form of a leaf value.
func attrValue(v any) (string, error) {
	switch x := v.(type) {
	case math32.Vector3:
		return x.String(), nil
	case math32.Matrix4:
		return x.String(), nil
	}
	_, s, err := scalar(v)
	return s, err
}

func attr(name, val string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: val}
}

// comment makes s safe to use inside an XML comment.
func comment(s string) string {
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "- -")
	}
	return s
}

// start writes an element start tag at the current depth,
// self-closing if empty.
func (w *Writer) start(tag string, attrs []xml.Attr, empty bool) error {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tag)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name.Local)
		b.WriteString(`="`)
		xml.EscapeText(&b, []byte(a.Value))
		b.WriteByte('"')
	}
	if empty {
		b.WriteString("/>")
		return w.line(b.String())
	}
	b.WriteByte('>')
	if err := w.line(b.String()); err != nil {
		return err
	}
	w.cur.stack = append(w.cur.stack, tag)
	w.cur.depth++
	return nil
}

// end closes the innermost open element of the current file.
func (w *Writer) end() error {
	fl := w.cur
	n := len(fl.stack)
	if n == 0 {
		return fmt.Errorf("writer: no open element in %s", fl.path)
	}
	tag := fl.stack[n-1]
	fl.stack = fl.stack[:n-1]
	fl.depth--
	return w.line("</" + tag + ">")
}

// line writes s indented to the current depth of the current file.
func (w *Writer) line(s string) error {
	fl := w.cur
	if fl == nil || fl.f == nil {
		return ErrNoFile
	}
	_, err := fl.f.WriteString(w.indent.String(fl.depth) + s + "\n")
	return err
}
