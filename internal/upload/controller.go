// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package upload submits a PDF and an XLSX to the label conversion endpoint
// and exposes the returned artifact as a revocable download link.
//
// A submission checks that both inputs are selected, reports an in-progress
// status, posts one multipart request, and then either shows a download
// link for the result or an error status. There is no retry.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/pdiddy/label-convert/internal/blobstore"
	"github.com/pdiddy/label-convert/internal/httputil"
	"github.com/pdiddy/label-convert/pkg/types"
)

// AuthCookie is the session cookie the label server reads.
const AuthCookie = "auth_token"

var (
	// ErrMissingInput is returned when either input has no file selected.
	ErrMissingInput = errors.New("both a PDF and an XLSX file are required")

	// ErrInFlight is returned when a submission is already running.
	ErrInFlight = errors.New("a conversion is already in progress")

	// ErrConversionFailed matches any non-2xx response from the endpoint.
	ErrConversionFailed = errors.New(MsgConversionFailed)
)

// ConversionError is returned for a non-2xx response. Its message is the
// fixed user-facing text; the status code is kept for callers.
type ConversionError struct {
	Status *httputil.StatusError
}

func (e *ConversionError) Error() string { return MsgConversionFailed }

func (e *ConversionError) Is(target error) bool { return target == ErrConversionFailed }

func (e *ConversionError) Unwrap() error { return e.Status }

// Controller runs submissions against one endpoint and reports to one View.
// At most one submission runs at a time.
type Controller struct {
	client   *http.Client
	cfg      types.UploadConfig
	registry *blobstore.Registry
	view     View

	inFlight atomic.Bool

	mu      sync.Mutex
	current string
}

// NewController validates cfg and returns a controller. An empty endpoint
// becomes types.DefaultEndpoint.
func NewController(client *http.Client, cfg types.UploadConfig, reg *blobstore.Registry, view View) (*Controller, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = types.DefaultEndpoint
	}
	if err := validateEndpoint(cfg.Endpoint); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Controller{
		client:   client,
		cfg:      cfg,
		registry: reg,
		view:     view,
	}, nil
}

// Endpoint returns the URL submissions are posted to.
func (c *Controller) Endpoint() string { return c.cfg.Endpoint }

// Current returns the URL of the most recent successful result, or "".
func (c *Controller) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Submit runs one conversion. Missing inputs raise an alert and return
// ErrMissingInput without a request. An overlapping call returns
// ErrInFlight and leaves the view untouched. Any other failure is shown as
// an error status and returned. On success the result's URL is shown and
// returned, and the previous result's URL is revoked.
func (c *Controller) Submit(ctx context.Context, form Form) (string, error) {
	if !form.Complete() {
		c.view.Alert(MsgSelectBoth)
		return "", ErrMissingInput
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		return "", ErrInFlight
	}
	defer c.inFlight.Store(false)

	c.view.SetStatus(StatusConverting)
	c.view.HideDownload()

	blob, err := c.convert(ctx, form)
	if err != nil {
		c.view.SetStatus(ErrorStatus(err))
		return "", err
	}

	href := c.registry.Create(blob)
	c.replaceCurrent(href)

	c.view.ShowDownload(href)
	c.view.SetStatus(StatusDone)
	return href, nil
}

// Close revokes the outstanding result URL.
func (c *Controller) Close() error {
	c.replaceCurrent("")
	return nil
}

func (c *Controller) replaceCurrent(href string) {
	c.mu.Lock()
	prev := c.current
	c.current = href
	c.mu.Unlock()

	if prev != "" {
		c.registry.Revoke(prev)
	}
}

// convert posts the form and reads the whole response body.
func (c *Controller) convert(ctx context.Context, form Form) (blobstore.Blob, error) {
	body, contentType, err := EncodeForm(form)
	if err != nil {
		return blobstore.Blob{}, err
	}

	req, err := httputil.NewRequest(ctx, http.MethodPost, c.cfg.Endpoint, body, c.cfg.UserAgent)
	if err != nil {
		return blobstore.Blob{}, err
	}
	req.Header.Set("Content-Type", contentType)
	if c.cfg.AuthToken != "" {
		req.AddCookie(&http.Cookie{Name: AuthCookie, Value: c.cfg.AuthToken})
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return blobstore.Blob{}, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		var se *httputil.StatusError
		errors.As(err, &se)
		return blobstore.Blob{}, &ConversionError{Status: se}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return blobstore.Blob{}, fmt.Errorf("reading response: %w", err)
	}
	return blobstore.NewBlob(data, resp.Header.Get("Content-Type")), nil
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	return nil
}

// Origin returns scheme://host of endpoint, for use as a registry origin.
func Origin(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
