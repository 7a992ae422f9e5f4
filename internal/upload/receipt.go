// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/label-convert/internal/blobstore"
	"github.com/pdiddy/label-convert/pkg/types"
)

// ReceiptPath returns the receipt location for an output file. The suffix
// is appended, never substituted, so the receipt cannot overwrite the output.
func ReceiptPath(output string) string {
	return output + ".receipt.yaml"
}

// NewReceipt describes a saved result.
func NewReceipt(form Form, endpoint, output string, blob blobstore.Blob) types.Receipt {
	r := types.Receipt{
		Output:      output,
		Endpoint:    endpoint,
		Bytes:       blob.Size(),
		ContentType: blob.ContentType(),
		ConvertedAt: time.Now().UTC().Truncate(time.Second),
	}
	if form.PDF != nil {
		r.PDF = form.PDF.Name()
	}
	if form.XLSX != nil {
		r.XLSX = form.XLSX.Name()
	}
	return r
}

// WriteReceipt writes r to path as YAML.
func WriteReceipt(r types.Receipt, path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling receipt: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing receipt %s: %w", path, err)
	}
	return nil
}

// ReadReceipt reads a receipt written by WriteReceipt.
func ReadReceipt(path string) (types.Receipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Receipt{}, err
	}
	var r types.Receipt
	if err := yaml.Unmarshal(data, &r); err != nil {
		return types.Receipt{}, fmt.Errorf("parsing receipt %s: %w", path, err)
	}
	return r, nil
}
