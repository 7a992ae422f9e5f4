// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package blobstore holds converted artifacts in memory and addresses them
// through revocable local URLs of the form blob:<origin>/<uuid>. A URL stays
// resolvable until it is revoked or the registry is closed.
package blobstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Scheme prefixes every URL issued by a Registry.
const Scheme = "blob:"

// DefaultContentType is used for blobs created without a content type.
const DefaultContentType = "application/octet-stream"

// ErrNotFound is returned when a URL was never issued or has been revoked.
var ErrNotFound = errors.New("blob URL not found")

// Blob is an immutable byte payload with a content type.
type Blob struct {
	data        []byte
	contentType string
}

// NewBlob copies data into a new Blob. An empty contentType becomes
// DefaultContentType.
func NewBlob(data []byte, contentType string) Blob {
	if contentType == "" {
		contentType = DefaultContentType
	}
	return Blob{
		data:        bytes.Clone(data),
		contentType: contentType,
	}
}

// Size returns the payload length in bytes.
func (b Blob) Size() int { return len(b.data) }

// ContentType returns the blob's content type.
func (b Blob) ContentType() string { return b.contentType }

// Bytes returns a copy of the payload.
func (b Blob) Bytes() []byte { return bytes.Clone(b.data) }

// Reader returns a reader over the payload.
func (b Blob) Reader() io.Reader { return bytes.NewReader(b.data) }

// Registry issues and resolves blob URLs. It is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	origin string
	blobs  map[string]Blob
}

// NewRegistry creates an empty registry. The origin is embedded in every
// issued URL; an empty origin becomes "null".
func NewRegistry(origin string) *Registry {
	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		origin = "null"
	}
	return &Registry{
		origin: origin,
		blobs:  make(map[string]Blob),
	}
}

// Create registers b and returns a new URL for it.
func (r *Registry) Create(b Blob) string {
	url := fmt.Sprintf("%s%s/%s", Scheme, r.origin, uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs[url] = b
	return url
}

// Resolve returns the blob behind url.
func (r *Registry) Resolve(url string) (Blob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blobs[url]
	if !ok {
		return Blob{}, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	return b, nil
}

// Revoke releases url. It reports whether the URL was live.
func (r *Registry) Revoke(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blobs[url]; !ok {
		return false
	}
	delete(r.blobs, url)
	return true
}

// Len returns the number of live URLs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blobs)
}

// Close revokes every live URL.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.blobs)
	return nil
}
