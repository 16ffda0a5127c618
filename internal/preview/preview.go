// package preview decodes selected images into data URLs and terminal thumbnails
package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/shared"
	"golang.org/x/sync/semaphore"
)

const (
	defaultWidth         = 16
	defaultMaxConcurrent = 4
	fallbackMIMEType     = "application/octet-stream"
	halfBlock            = "▀"
)

// IsImage reports whether mimeType describes an image.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// Images returns the image files of files in their original order.
func Images(files []models.File) []models.File {
	images := make([]models.File, 0, len(files))
	for _, f := range files {
		if IsImage(f.MIMEType) {
			images = append(images, f)
		}
	}
	return images
}

// RendererOpts configures a [Renderer].
type RendererOpts struct {
	Width         int // thumbnail width in cells
	MaxConcurrent int // decodes allowed to run at once
	Logger        *log.Logger
}

// Renderer turns image files into [models.PreviewEntry] values.
//
// Decode is safe for concurrent use; at most MaxConcurrent decodes do work at any time, the rest wait.
type Renderer struct {
	width  int
	sem    *semaphore.Weighted
	logger *log.Logger
}

// NewRenderer creates a Renderer, filling zero options with defaults.
func NewRenderer(opts RendererOpts) *Renderer {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &Renderer{
		width:  opts.Width,
		sem:    semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		logger: opts.Logger,
	}
}

// Decode reads f and renders its preview for the selection sel.
//
// Formats that cannot be decoded for display still produce an entry, with an empty thumbnail.
// An error is returned only when the file cannot be read or ctx is done while waiting for a slot.
func (r *Renderer) Decode(ctx context.Context, sel string, f models.File) (models.PreviewEntry, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return models.PreviewEntry{}, err
	}
	defer r.sem.Release(1)

	src, err := f.Open()
	if err != nil {
		return models.PreviewEntry{}, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return models.PreviewEntry{}, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}

	entry := models.PreviewEntry{
		SelectionID: sel,
		File:        f,
		DataURL:     DataURL(f.MIMEType, data),
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		r.logger.Debug("preview not displayable", "file", f.Name, "mime", f.MIMEType, "error", err)
		return entry, nil
	}

	entry.Thumbnail = Thumbnail(img, r.width)
	r.logger.Debug("preview decoded", "file", f.Name, "format", format, "selection", sel)
	return entry, nil
}

// DataURL encodes data as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = fallbackMIMEType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Thumbnail renders img at most width cells wide using upper half blocks, two pixel rows per line.
// Images narrower than width are not scaled up.
func Thumbnail(img image.Image, width int) string {
	b := img.Bounds()
	if b.Empty() || width <= 0 {
		return ""
	}

	cols := min(width, b.Dx())
	rows := max(1, b.Dy()*cols/b.Dx())

	sample := func(x, y int) lipgloss.Color {
		sx := b.Min.X + x*b.Dx()/cols
		sy := b.Min.Y + y*b.Dy()/rows
		cr, cg, cb, _ := img.At(sx, sy).RGBA()
		return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", cr>>8, cg>>8, cb>>8))
	}

	lines := make([]string, 0, (rows+1)/2)
	for y := 0; y < rows; y += 2 {
		var line strings.Builder
		for x := range cols {
			style := lipgloss.NewStyle().Foreground(sample(x, y))
			if y+1 < rows {
				style = style.Background(sample(x, y+1))
			}
			line.WriteString(style.Render(halfBlock))
		}
		lines = append(lines, line.String())
	}

	return strings.Join(lines, "\n")
}
