package webhook

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Form builds a multipart payload for file-bearing webhook submissions.
type Form struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	closed bool
}

// NewForm creates an empty multipart form.
func NewForm() *Form {
	f := &Form{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

// AddField appends a plain text field to the form.
func (f *Form) AddField(name, value string) error {
	if f.closed {
		return fmt.Errorf("form already encoded")
	}
	return f.writer.WriteField(name, value)
}

// AddFile appends a file part read from r to the form.
func (f *Form) AddFile(field, filename string, r io.Reader) error {
	if f.closed {
		return fmt.Errorf("form already encoded")
	}

	part, err := f.writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("creating file part %q: %w", field, err)
	}

	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("writing file part %q: %w", field, err)
	}

	return nil
}

// Encode finalizes the form and returns the body together with its
// multipart content type. The form cannot be modified afterwards.
func (f *Form) Encode() (*bytes.Reader, string, error) {
	if !f.closed {
		if err := f.writer.Close(); err != nil {
			return nil, "", fmt.Errorf("closing multipart writer: %w", err)
		}
		f.closed = true
	}

	return bytes.NewReader(f.buf.Bytes()), f.writer.FormDataContentType(), nil
}
