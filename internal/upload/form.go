// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"reflect"
	"strings"
)

// Multipart part names expected by the conversion endpoint.
const (
	FieldPDF  = "pdf"
	FieldXLSX = "xlsx"
)

const (
	contentTypePDF    = "application/pdf"
	contentTypeXLSX   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeBinary = "application/octet-stream"
)

// knownTypes covers the extensions the label server accepts; minimal
// systems often ship a mime table without them.
var knownTypes = map[string]string{
	".pdf":  contentTypePDF,
	".xlsx": contentTypeXLSX,
}

// FileHandle is a selected input file. The controller only reads it.
type FileHandle interface {
	// Name is the original file name sent as the part's filename.
	Name() string
	// ContentType is the MIME type sent as the part's Content-Type.
	ContentType() string
	// Open returns a reader over the file's bytes.
	Open() (io.ReadCloser, error)
}

// Form is the pair of inputs for one submission. A nil field means no file
// has been selected for that input.
type Form struct {
	PDF  FileHandle
	XLSX FileHandle
}

// Complete reports whether both inputs are selected. A handle holding a
// nil pointer counts as unselected.
func (f Form) Complete() bool {
	return selected(f.PDF) && selected(f.XLSX)
}

func selected(h FileHandle) bool {
	if h == nil {
		return false
	}
	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !v.IsNil()
	}
	return true
}

// LocalFile is a FileHandle backed by a path on disk.
type LocalFile struct {
	path        string
	contentType string
}

// OpenFile returns a handle for the regular file at path. The content type
// is derived from the extension.
func OpenFile(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("opening %s: is a directory", path)
	}
	return &LocalFile{path: path, contentType: contentTypeFor(path)}, nil
}

func (f *LocalFile) Name() string        { return filepath.Base(f.path) }
func (f *LocalFile) ContentType() string { return f.contentType }
func (f *LocalFile) Path() string        { return f.path }

func (f *LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// MemoryFile is a FileHandle over bytes already in memory.
type MemoryFile struct {
	name        string
	contentType string
	data        []byte
}

// NewMemoryFile wraps data as a FileHandle. An empty contentType is derived
// from name.
func NewMemoryFile(name, contentType string, data []byte) *MemoryFile {
	if contentType == "" {
		contentType = contentTypeFor(name)
	}
	return &MemoryFile{name: name, contentType: contentType, data: data}
}

func (f *MemoryFile) Name() string        { return f.name }
func (f *MemoryFile) ContentType() string { return f.contentType }

func (f *MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := knownTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return contentTypeBinary
}
