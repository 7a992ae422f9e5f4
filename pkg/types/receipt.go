// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Receipt records a saved conversion result: which inputs were sent,
// where to, and what came back.
type Receipt struct {
	// Output is the local path the converted artifact was written to.
	Output string `json:"output" yaml:"output"`

	// PDF is the file name of the submitted PDF part.
	PDF string `json:"pdf" yaml:"pdf"`

	// XLSX is the file name of the submitted spreadsheet part.
	XLSX string `json:"xlsx" yaml:"xlsx"`

	// Endpoint is the URL the inputs were posted to.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Bytes is the size of the returned artifact.
	Bytes int `json:"bytes" yaml:"bytes"`

	// ContentType is the content type the server reported for the artifact.
	ContentType string `json:"content_type" yaml:"content_type"`

	// ConvertedAt is when the artifact was saved.
	ConvertedAt time.Time `json:"converted_at" yaml:"converted_at"`
}
