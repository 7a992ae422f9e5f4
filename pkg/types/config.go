// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DefaultEndpoint is the conversion endpoint used when none is configured.
// It is the address the label server listens on by default.
const DefaultEndpoint = "http://127.0.0.1:8000/convert"

// DefaultOutput is the file name the label server gives its result.
const DefaultOutput = "etiquetas_final.pdf"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "label-convert/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// UploadConfig holds settings for submitting a PDF/XLSX pair to the
// conversion endpoint.
type UploadConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoint is the absolute URL of the conversion endpoint
	// (default DefaultEndpoint).
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// AuthToken is sent as the auth_token session cookie when set.
	AuthToken string `json:"auth_token,omitempty" yaml:"auth_token,omitempty"`

	// Output is the path the converted artifact is saved to.
	Output string `json:"output" yaml:"output"`

	// Receipt controls whether a YAML receipt is written next to Output.
	Receipt bool `json:"receipt" yaml:"receipt"`
}
