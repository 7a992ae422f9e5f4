// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/label-convert/internal/blobstore"
	"github.com/pdiddy/label-convert/internal/httputil"
	"github.com/pdiddy/label-convert/internal/testutil"
	"github.com/pdiddy/label-convert/pkg/types"
)

// event is one call made on a recordingView.
type event struct {
	kind string
	arg  string
}

// recordingView implements View and keeps every call in order.
type recordingView struct {
	mu     sync.Mutex
	events []event
}

func (v *recordingView) record(kind, arg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, event{kind, arg})
}

func (v *recordingView) SetStatus(text string)   { v.record("status", text) }
func (v *recordingView) HideDownload()           { v.record("hide", "") }
func (v *recordingView) ShowDownload(url string) { v.record("show", url) }
func (v *recordingView) Alert(msg string)        { v.record("alert", msg) }

func (v *recordingView) Events() []event {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]event(nil), v.events...)
}

var (
	pdfBytes  = []byte("%PDF-1.4\n1 0 obj<<>>endobj\ntrailer<<>>\n%%EOF")
	xlsxBytes = []byte("PK\x03\x04 fake workbook \x00\x01\x02")
)

func testForm() Form {
	return Form{
		PDF:  NewMemoryFile("pedidos.pdf", "", pdfBytes),
		XLSX: NewMemoryFile("planilha.xlsx", "", xlsxBytes),
	}
}

func newTestController(t *testing.T, endpoint string, view View) (*Controller, *blobstore.Registry) {
	t.Helper()
	reg := blobstore.NewRegistry(Origin(endpoint))
	cfg := types.UploadConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "label-convert/test"},
		Endpoint:   endpoint,
	}
	c, err := NewController(nil, cfg, reg, view)
	require.NoError(t, err)
	return c, reg
}

func TestSubmit_MissingInput(t *testing.T) {
	tests := []struct {
		name string
		form Form
	}{
		{name: "no files", form: Form{}},
		{name: "pdf only", form: Form{PDF: NewMemoryFile("a.pdf", "", pdfBytes)}},
		{name: "xlsx only", form: Form{XLSX: NewMemoryFile("b.xlsx", "", xlsxBytes)}},
		{name: "nil pdf pointer", form: Form{PDF: (*LocalFile)(nil), XLSX: NewMemoryFile("b.xlsx", "", xlsxBytes)}},
		{name: "nil xlsx pointer", form: Form{PDF: NewMemoryFile("a.pdf", "", pdfBytes), XLSX: (*MemoryFile)(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.NewConvertServer(t, http.StatusOK, []byte("result"))
			view := &recordingView{}
			c, reg := newTestController(t, srv.URL(), view)

			href, err := c.Submit(context.Background(), tt.form)
			assert.ErrorIs(t, err, ErrMissingInput)
			assert.Empty(t, href)
			assert.Empty(t, srv.Requests(), "no request may be sent")
			assert.Equal(t, []event{{"alert", MsgSelectBoth}}, view.Events())
			assert.Equal(t, 0, reg.Len())
		})
	}
}

func TestSubmit_HappyPath(t *testing.T) {
	result := []byte("%PDF-1.7 converted labels")
	srv := testutil.NewConvertServer(t, http.StatusOK, result)
	view := NewTerminalView(&safeBuffer{})
	c, reg := newTestController(t, srv.URL(), view)

	href, err := c.Submit(context.Background(), testForm())
	require.NoError(t, err)

	blob, err := reg.Resolve(href)
	require.NoError(t, err)
	assert.Equal(t, result, blob.Bytes())
	assert.Equal(t, "application/pdf", blob.ContentType())

	assert.Equal(t, StatusDone, view.Status())
	gotHref, visible := view.Download()
	assert.True(t, visible)
	assert.Equal(t, href, gotHref)
	assert.Equal(t, href, c.Current())
}

func TestSubmit_EventOrder(t *testing.T) {
	srv := testutil.NewConvertServer(t, http.StatusOK, []byte("ok"))
	view := &recordingView{}
	c, _ := newTestController(t, srv.URL(), view)

	href, err := c.Submit(context.Background(), testForm())
	require.NoError(t, err)

	assert.Equal(t, []event{
		{"status", StatusConverting},
		{"hide", ""},
		{"show", href},
		{"status", StatusDone},
	}, view.Events())
}

func TestSubmit_StatusBeforeRequestCompletes(t *testing.T) {
	srv := testutil.NewConvertServer(t, http.StatusOK, []byte("ok"))
	arrived := srv.Hold()
	view := &recordingView{}
	c, _ := newTestController(t, srv.URL(), view)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), testForm())
		done <- err
	}()

	<-arrived
	assert.Equal(t, []event{{"status", StatusConverting}, {"hide", ""}}, view.Events())

	srv.Release()
	require.NoError(t, <-done)
}

func TestSubmit_ServerError(t *testing.T) {
	srv := testutil.NewConvertServer(t, http.StatusInternalServerError, nil)
	view := NewTerminalView(&safeBuffer{})
	c, reg := newTestController(t, srv.URL(), view)

	href, err := c.Submit(context.Background(), testForm())
	require.Error(t, err)
	assert.Empty(t, href)
	assert.ErrorIs(t, err, ErrConversionFailed)

	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)

	assert.Equal(t, "Error: Conversion failed!", view.Status())
	_, visible := view.Download()
	assert.False(t, visible)
	assert.Equal(t, 0, reg.Len())
}

func TestSubmit_NetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	endpoint := ts.URL + "/convert"
	ts.Close()

	view := NewTerminalView(&safeBuffer{})
	c, _ := newTestController(t, endpoint, view)

	_, err := c.Submit(context.Background(), testForm())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConversionFailed)

	assert.Contains(t, view.Status(), "Error: ")
	assert.Contains(t, view.Status(), "connection refused")
	_, visible := view.Download()
	assert.False(t, visible)
}

func TestSubmit_ResubmitAfterFailure(t *testing.T) {
	srv := testutil.NewConvertServer(t, http.StatusBadGateway, nil)
	view := &recordingView{}
	c, reg := newTestController(t, srv.URL(), view)
	form := testForm()

	_, err := c.Submit(context.Background(), form)
	require.ErrorIs(t, err, ErrConversionFailed)

	srv.Respond(http.StatusOK, []byte("second try"), "application/pdf")
	href, err := c.Submit(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, []event{
		{"status", StatusConverting},
		{"hide", ""},
		{"status", "Error: " + MsgConversionFailed},
		{"status", StatusConverting},
		{"hide", ""},
		{"show", href},
		{"status", StatusDone},
	}, view.Events())

	blob, err := reg.Resolve(href)
	require.NoError(t, err)
	assert.Equal(t, []byte("second try"), blob.Bytes())
	assert.Len(t, srv.Requests(), 2)
}

func TestSubmit_RequestShape(t *testing.T) {
	srv := testutil.NewConvertServer(t, http.StatusOK, []byte("ok"))
	reg := blobstore.NewRegistry("")
	cfg := types.UploadConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "label-convert/test"},
		Endpoint:   srv.URL(),
		AuthToken:  "session-123",
	}
	c, err := NewController(srv.Client(), cfg, reg, &recordingView{})
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), testForm())
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	got := reqs[0]

	assert.Empty(t, got.Values, "no non-file fields")
	assert.Equal(t, "label-convert/test", got.UserAgent)
	assert.Equal(t, "session-123", got.AuthToken)

	require.Len(t, got.Parts, 2)
	assert.Equal(t, testutil.ReceivedPart{
		Field:       FieldPDF,
		Filename:    "pedidos.pdf",
		ContentType: "application/pdf",
		Data:        pdfBytes,
	}, got.Parts[0])
	assert.Equal(t, testutil.ReceivedPart{
		Field:       FieldXLSX,
		Filename:    "planilha.xlsx",
		ContentType: contentTypeXLSX,
		Data:        xlsxBytes,
	}, got.Parts[1])
}

func TestSubmit_NoAuthCookieByDefault(t *testing.T) {
	srv := testutil.NewConvertServer(t, http.StatusOK, []byte("ok"))
	c, _ := newTestController(t, srv.URL(), &recordingView{})

	_, err := c.Submit(context.Background(), testForm())
	require.NoError(t, err)
	assert.Empty(t, srv.Requests()[0].AuthToken)
}

func TestSubmit_RevokesPreviousURL(t *testing.T) {
	srv := testutil.NewConvertServer(t, http.StatusOK, []byte("first"))
	c, reg := newTestController(t, srv.URL(), &recordingView{})

	first, err := c.Submit(context.Background(), testForm())
	require.NoError(t, err)

	srv.Respond(http.StatusOK, []byte("second"), "application/pdf")
	second, err := c.Submit(context.Background(), testForm())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	_, err = reg.Resolve(first)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
	assert.Equal(t, 1, reg.Len())
}

func TestSubmit_FailureKeepsPreviousResult(t *testing.T) {
	srv := testutil.NewConvertServer(t, http.StatusOK, []byte("first"))
	c, reg := newTestController(t, srv.URL(), &recordingView{})

	first, err := c.Submit(context.Background(), testForm())
	require.NoError(t, err)

	srv.Respond(http.StatusInternalServerError, nil, "")
	_, err = c.Submit(context.Background(), testForm())
	require.Error(t, err)

	assert.Equal(t, first, c.Current())
	_, err = reg.Resolve(first)
	assert.NoError(t, err)
}

func TestSubmit_RejectsOverlap(t *testing.T) {
	srv := testutil.NewConvertServer(t, http.StatusOK, []byte("ok"))
	arrived := srv.Hold()
	view := &recordingView{}
	c, _ := newTestController(t, srv.URL(), view)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), testForm())
		done <- err
	}()
	<-arrived

	before := view.Events()
	_, err := c.Submit(context.Background(), testForm())
	assert.ErrorIs(t, err, ErrInFlight)
	assert.Equal(t, before, view.Events(), "rejected submission must not touch the view")

	srv.Release()
	require.NoError(t, <-done)
	assert.Len(t, srv.Requests(), 1)

	// The guard is released once the first submission finishes.
	_, err = c.Submit(context.Background(), testForm())
	assert.NoError(t, err)
}

func TestSubmit_ContextCancelled(t *testing.T) {
	srv := testutil.NewConvertServer(t, http.StatusOK, []byte("ok"))
	arrived := srv.Hold()
	view := NewTerminalView(&safeBuffer{})
	c, _ := newTestController(t, srv.URL(), view)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx, testForm())
		done <- err
	}()
	<-arrived
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, view.Status(), "Error: ")
	_, visible := view.Download()
	assert.False(t, visible)
}

func TestSubmit_UnreadableInput(t *testing.T) {
	srv := testutil.NewConvertServer(t, http.StatusOK, []byte("ok"))
	view := NewTerminalView(&safeBuffer{})
	c, _ := newTestController(t, srv.URL(), view)

	form := Form{
		PDF:  &LocalFile{path: t.TempDir() + "/gone.pdf", contentType: contentTypePDF},
		XLSX: NewMemoryFile("planilha.xlsx", "", xlsxBytes),
	}
	_, err := c.Submit(context.Background(), form)
	require.Error(t, err)
	assert.Contains(t, view.Status(), "Error: reading pdf file gone.pdf")
	assert.Empty(t, srv.Requests())
}

func TestClose_RevokesCurrent(t *testing.T) {
	srv := testutil.NewConvertServer(t, http.StatusOK, []byte("ok"))
	c, reg := newTestController(t, srv.URL(), &recordingView{})

	href, err := c.Submit(context.Background(), testForm())
	require.NoError(t, err)
	require.Equal(t, 1, reg.Len())

	require.NoError(t, c.Close())
	assert.Empty(t, c.Current())
	_, err = reg.Resolve(href)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestNewController_Endpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     string
		errMsg   string
	}{
		{name: "empty uses default", endpoint: "", want: types.DefaultEndpoint},
		{name: "https accepted", endpoint: "https://labels.example.com/convert", want: "https://labels.example.com/convert"},
		{name: "ftp rejected", endpoint: "ftp://example.com/convert", errMsg: "scheme must be http or https"},
		{name: "relative rejected", endpoint: "/convert", errMsg: "scheme must be http or https"},
		{name: "missing host", endpoint: "http:///convert", errMsg: "missing host"},
		{name: "unparseable", endpoint: "http://[::1", errMsg: "invalid endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := types.UploadConfig{Endpoint: tt.endpoint}
			c, err := NewController(nil, cfg, blobstore.NewRegistry(""), &recordingView{})
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Endpoint())
		})
	}
}

func TestOrigin(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8000", Origin(types.DefaultEndpoint))
	assert.Equal(t, "https://labels.example.com", Origin("https://labels.example.com/api/convert?x=1"))
	assert.Equal(t, "", Origin("not a url"))
}
