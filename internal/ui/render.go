package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/tasks"
	"github.com/desertthunder/mapx/internal/upload"
)

const (
	previewsPerRow = 4
	previewNameMax = 16
	loadingMessage = "Generating 3D model..."
)

// Frame carries the widget output drawn around a controller snapshot.
type Frame struct {
	Resolve  func(string) string  // turns service-relative download URLs into absolute ones
	Spinner  string               // rendered spinner frame
	Bar      string               // rendered progress bar
	Progress tasks.ProgressUpdate // latest pipeline update
	Notice   string               // one-line status below the regions
	Warning  bool                 // draw Notice as a warning
}

// Render draws the body of the screen for v: the selection label, the preview container and the single visible region.
//
// It only reads its arguments.
func Render(v upload.View, f Frame) string {
	sections := []string{renderLabel(v)}

	if previews := renderPreviews(v.Previews); previews != "" {
		sections = append(sections, previews)
	}

	switch v.Region() {
	case models.RegionLoading:
		sections = append(sections, renderLoading(f))
	case models.RegionResults:
		if v.Result != nil {
			sections = append(sections, RenderResult(v.Result, f.Resolve))
		}
	case models.RegionError:
		if v.Err != nil {
			sections = append(sections, RenderError(v.Err.Message))
		}
	}

	if f.Notice != "" {
		if f.Warning {
			sections = append(sections, styles.warn.Render(f.Notice))
		} else {
			sections = append(sections, styles.help.Render(f.Notice))
		}
	}

	return strings.Join(sections, "\n\n")
}

// RenderResult draws the reconstruction summary and the download affordance. A nil resolve shows the URL as returned.
func RenderResult(r *models.Reconstruction, resolve func(string) string) string {
	link := r.DownloadURL
	if resolve != nil {
		link = resolve(link)
	}
	lines := []string{
		styles.ok.Render("✓ Generation Complete"),
		"",
		fmt.Sprintf("Images Uploaded: %d", r.NumImages),
		fmt.Sprintf("Views Processed: %d", r.NumViewsProcessed),
		fmt.Sprintf("Output File: %s", r.OutputFile),
		"",
		fmt.Sprintf("Download 3D Model: %s", link),
		styles.help.Render("ctrl+d download • ctrl+o open in browser"),
	}
	return strings.Join(lines, "\n")
}

// RenderError draws msg as the error region.
func RenderError(msg string) string {
	return styles.err.Render("Error: " + msg)
}

func renderLabel(v upload.View) string {
	if v.Selection.Empty() {
		return styles.help.Render(v.Label)
	}
	return styles.label.Render(v.Label)
}

func renderLoading(f Frame) string {
	msg := f.Progress.Message
	if msg == "" {
		msg = loadingMessage
	}
	line := strings.TrimSpace(f.Spinner + " " + msg)
	if f.Bar == "" {
		return line
	}
	return line + "\n" + f.Bar
}

// renderPreviews lays the entries out in rows, in the order they were decoded.
func renderPreviews(entries []models.PreviewEntry) string {
	if len(entries) == 0 {
		return ""
	}

	var rows []string
	for chunk := range slices.Chunk(entries, previewsPerRow) {
		cells := make([]string, 0, len(chunk))
		for _, e := range chunk {
			cells = append(cells, renderPreview(e))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

func renderPreview(e models.PreviewEntry) string {
	body := e.Thumbnail
	if body == "" {
		body = styles.help.Render("no preview")
	}
	return styles.frame.Render(body + "\n" + truncate(e.File.Name, previewNameMax))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
