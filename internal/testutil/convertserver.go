// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package testutil provides a stand-in for the label conversion server.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
)

// ConvertPath is the route the fake server accepts uploads on.
const ConvertPath = "/convert"

// ReceivedPart is one file part of a received multipart request.
type ReceivedPart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// ReceivedRequest is what the fake server saw for one POST.
type ReceivedRequest struct {
	Parts     []ReceivedPart
	Values    map[string][]string
	UserAgent string
	AuthToken string
}

// ConvertServer answers POST /convert with a canned status and body and
// records every request it receives.
type ConvertServer struct {
	*httptest.Server

	mu          sync.Mutex
	status      int
	body        []byte
	contentType string
	requests    []ReceivedRequest

	arrived chan struct{}
	release chan struct{}
	once    *sync.Once
}

// NewConvertServer starts a fake server that replies with status and body.
// It is closed when the test ends.
func NewConvertServer(t testing.TB, status int, body []byte) *ConvertServer {
	t.Helper()
	s := &ConvertServer{
		status:      status,
		body:        body,
		contentType: "application/pdf",
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.POST(ConvertPath, s.handleConvert)

	s.Server = httptest.NewServer(e)
	t.Cleanup(func() {
		s.Release()
		s.Close()
	})
	return s
}

// URL returns the absolute URL of the convert route.
func (s *ConvertServer) URL() string {
	return s.Server.URL + ConvertPath
}

// Respond changes the canned reply for subsequent requests.
func (s *ConvertServer) Respond(status int, body []byte, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.body = body
	s.contentType = contentType
}

// Hold makes the next requests wait inside the handler until Release is
// called. The returned channel is closed when the first request arrives.
func (s *ConvertServer) Hold() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arrived = make(chan struct{})
	s.release = make(chan struct{})
	s.once = new(sync.Once)
	return s.arrived
}

// Release lets held requests complete.
func (s *ConvertServer) Release() {
	s.mu.Lock()
	release := s.release
	s.release = nil
	s.mu.Unlock()
	if release != nil {
		close(release)
	}
}

// Requests returns the requests received so far.
func (s *ConvertServer) Requests() []ReceivedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReceivedRequest(nil), s.requests...)
}

func (s *ConvertServer) handleConvert(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.String(http.StatusBadRequest, "expected multipart form")
	}

	rec := ReceivedRequest{
		Values:    form.Value,
		UserAgent: c.Request().UserAgent(),
	}
	if ck, err := c.Cookie("auth_token"); err == nil {
		rec.AuthToken = ck.Value
	}
	for field, headers := range form.File {
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return c.String(http.StatusBadRequest, "unreadable part")
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return c.String(http.StatusBadRequest, "unreadable part")
			}
			rec.Parts = append(rec.Parts, ReceivedPart{
				Field:       field,
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}
	sort.Slice(rec.Parts, func(i, j int) bool { return rec.Parts[i].Field < rec.Parts[j].Field })

	s.mu.Lock()
	s.requests = append(s.requests, rec)
	status, body, contentType := s.status, s.body, s.contentType
	arrived, release, once := s.arrived, s.release, s.once
	s.mu.Unlock()

	if release != nil {
		once.Do(func() { close(arrived) })
		<-release
	}

	if status < 200 || status >= 300 {
		return c.String(status, "conversion error")
	}
	return c.Blob(status, contentType, body)
}
