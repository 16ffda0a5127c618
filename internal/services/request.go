package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/shared"
)

// FieldName is the multipart field every file is sent under.
const FieldName = "images"

const fallbackContentType = "application/octet-stream"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// SubmissionRequest is an assembled multipart payload.
type SubmissionRequest struct {
	Body        []byte
	ContentType string
	Files       []string // part filenames in order
}

// NewSubmissionRequest builds the multipart body from files, one part per file in the given order.
//
// Each part carries the file's name and MIME type. Any read failure aborts assembly.
func NewSubmissionRequest(files []models.File) (*SubmissionRequest, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files to submit", shared.ErrInvalidInput)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	names := make([]string, 0, len(files))

	for _, f := range files {
		if err := writePart(writer, f); err != nil {
			return nil, err
		}
		names = append(names, f.Name)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return &SubmissionRequest{
		Body:        buf.Bytes(),
		ContentType: writer.FormDataContentType(),
		Files:       names,
	}, nil
}

func writePart(writer *multipart.Writer, f models.File) error {
	contentType := f.MIMEType
	if contentType == "" {
		contentType = fallbackContentType
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FieldName, quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", contentType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create part for %s: %w", f.Name, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	defer src.Close()

	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to read %s: %w", f.Name, err)
	}

	return nil
}

// Size returns the body length in bytes.
func (r *SubmissionRequest) Size() int64 {
	return int64(len(r.Body))
}

// Reader returns a fresh reader over the body that reports progress to onSent, which may be nil.
func (r *SubmissionRequest) Reader(onSent SentFunc) io.Reader {
	return &progressReader{r: bytes.NewReader(r.Body), total: r.Size(), onSent: onSent}
}

// progressReader counts bytes read. Len lets the transport set Content-Length.
type progressReader struct {
	r      *bytes.Reader
	total  int64
	sent   int64
	onSent SentFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.onSent != nil {
			p.onSent(p.sent, p.total)
		}
	}
	return n, err
}

func (p *progressReader) Len() int {
	return p.r.Len()
}
