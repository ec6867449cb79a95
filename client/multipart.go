package client

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Field is a plain multipart/form-data text field.
type Field struct {
	Name  string
	Value string
}

// File is a multipart/form-data file part. An empty MIMEType is
// detected from Data.
type File struct {
	Data      []byte
	FieldName string
	FileName  string
	MIMEType  string
}

// Form is an ordered multipart body: every field, then every file.
type Form struct {
	Fields []Field
	Files  []File
}

// NewBoundary returns a fresh boundary of the form "Boundary-<uuid>".
func NewBoundary() string {
	return "Boundary-" + uuid.NewString()
}

// MultipartContentType is the Content-Type header value for a body
// built with boundary.
func MultipartContentType(boundary string) string {
	return "multipart/form-data; boundary=" + boundary
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// BuildMultipart serializes form using boundary. Output is
// deterministic for identical inputs.
func BuildMultipart(boundary string, form Form) ([]byte, error) {
	if len(form.Fields) == 0 && len(form.Files) == 0 {
		return []byte("--" + boundary + "--\r\n"), nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(boundary); err != nil {
		return nil, fmt.Errorf("setting boundary: %w", err)
	}

	for _, f := range form.Fields {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(f.Name)))

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("creating field %q: %w", f.Name, err)
		}
		if _, err := part.Write([]byte(f.Value)); err != nil {
			return nil, fmt.Errorf("writing field %q: %w", f.Name, err)
		}
	}

	for _, f := range form.Files {
		mimeType := f.MIMEType
		if mimeType == "" {
			mimeType = mimetype.Detect(f.Data).String()
		}

		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.FieldName), quoteEscaper.Replace(f.FileName)))
		h.Set("Content-Type", mimeType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("creating file %q: %w", f.FileName, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("writing file %q: %w", f.FileName, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	return buf.Bytes(), nil
}
