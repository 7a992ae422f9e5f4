// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdiddy/label-convert/internal/blobstore"
)

// User-facing messages.
const (
	MsgSelectBoth       = "Select both files!"
	MsgConversionFailed = "Conversion failed!"
	StatusConverting    = "Converting..."
	StatusDone          = "Conversion complete!"
)

// ErrNoDownload is returned by TerminalView.Save when no download is shown.
var ErrNoDownload = errors.New("no download available")

// View is the surface the controller reports to: a status line, a download
// link that can be shown or hidden, and a blocking alert.
type View interface {
	SetStatus(text string)
	HideDownload()
	ShowDownload(url string)
	Alert(msg string)
}

// ErrorStatus is the status text shown for a failed submission.
func ErrorStatus(err error) string {
	return "Error: " + err.Error()
}

// TerminalView renders View updates as lines on a writer and keeps the
// current state so the download can be saved afterwards.
type TerminalView struct {
	mu      sync.Mutex
	w       io.Writer
	status  string
	href    string
	visible bool
	alerts  []string
}

// NewTerminalView creates a view that prints to w.
func NewTerminalView(w io.Writer) *TerminalView {
	return &TerminalView{w: w}
}

func (v *TerminalView) SetStatus(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = text
	fmt.Fprintln(v.w, text)
}

func (v *TerminalView) HideDownload() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = false
}

func (v *TerminalView) ShowDownload(url string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.href = url
	v.visible = true
	fmt.Fprintf(v.w, "download: %s\n", url)
}

func (v *TerminalView) Alert(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts = append(v.alerts, msg)
	fmt.Fprintf(v.w, "alert: %s\n", msg)
}

// Status returns the current status text.
func (v *TerminalView) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Download returns the link target and whether the link is visible.
func (v *TerminalView) Download() (href string, visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.href, v.visible
}

// Alerts returns every alert shown so far.
func (v *TerminalView) Alerts() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.alerts...)
}

// Save follows the visible download link through reg and writes the blob to
// path. The file is written to a temporary name and renamed on success.
func (v *TerminalView) Save(reg *blobstore.Registry, path string) (blobstore.Blob, error) {
	href, visible := v.Download()
	if !visible {
		return blobstore.Blob{}, ErrNoDownload
	}
	blob, err := reg.Resolve(href)
	if err != nil {
		return blobstore.Blob{}, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return blobstore.Blob{}, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".label-convert-*.tmp")
	if err != nil {
		return blobstore.Blob{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, blob.Reader())
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return blobstore.Blob{}, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return blobstore.Blob{}, fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return blobstore.Blob{}, fmt.Errorf("renaming temp file: %w", err)
	}

	fmt.Fprintf(v.w, "saved: %s (%d bytes)\n", path, blob.Size())
	return blob, nil
}
