// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// EncodeForm writes the two inputs as a multipart/form-data body with
// exactly the parts "pdf" and "xlsx". It returns the body and the
// Content-Type header value carrying the boundary.
func EncodeForm(form Form) (*bytes.Buffer, string, error) {
	if !form.Complete() {
		return nil, "", ErrMissingInput
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		field string
		file  FileHandle
	}{
		{FieldPDF, form.PDF},
		{FieldXLSX, form.XLSX},
	}
	for _, p := range parts {
		if err := writeFilePart(mw, p.field, p.file); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return &body, mw.FormDataContentType(), nil
}

// writeFilePart copies f into a form-data part named field. The part keeps
// the handle's own content type, which multipart.Writer.CreateFormFile would
// replace with application/octet-stream.
func writeFilePart(mw *multipart.Writer, field string, f FileHandle) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(f.Name())))
	h.Set("Content-Type", f.ContentType())

	w, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating %s part: %w", field, err)
	}

	r, err := f.Open()
	if err != nil {
		return fmt.Errorf("reading %s file %s: %w", field, f.Name(), err)
	}
	defer r.Close()

	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("writing %s part: %w", field, err)
	}
	return nil
}
