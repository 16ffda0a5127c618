// package formatter renders submission results as text, JSON, Markdown or CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/shared"
)

// Formats lists the supported report formats.
var Formats = []string{"text", "json", "markdown", "csv"}

// Report is a finished submission ready to be written out.
type Report struct {
	Result      *models.Reconstruction `json:"result"`
	DownloadURL string                 `json:"download_url"` // absolute URL of the model
	Files       []string               `json:"files"`        // submitted file names in order
	SavedTo     string                 `json:"saved_to,omitempty"`
}

// NewReport builds a report for r, resolving its download URL against resolve.
func NewReport(r *models.Reconstruction, set models.FileSet, resolve func(string) string) Report {
	names := make([]string, len(set.Files))
	for i, f := range set.Files {
		names[i] = f.Name
	}
	url := r.DownloadURL
	if resolve != nil && url != "" {
		url = resolve(url)
	}
	return Report{Result: r, DownloadURL: url, Files: names}
}

// Format renders the report in the named format.
func Format(report Report, format string) ([]byte, error) {
	if report.Result == nil {
		return nil, fmt.Errorf("%w: empty report", shared.ErrInvalidInput)
	}
	switch strings.ToLower(format) {
	case "", "text", "txt":
		return ExportToText(report)
	case "json":
		return shared.MarshalJSON(report, true)
	case "markdown", "md":
		return ExportToMarkdown(report)
	case "csv":
		return ExportToCSV(report)
	default:
		return nil, CheckFormat(format)
	}
}

// CheckFormat reports an [shared.ErrInvalidArgument] error for names [Format] does not accept.
func CheckFormat(format string) error {
	switch strings.ToLower(format) {
	case "", "text", "txt", "json", "markdown", "md", "csv":
		return nil
	}
	return fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
}

// ExportToText converts a report to plain text
func ExportToText(report Report) ([]byte, error) {
	var buf bytes.Buffer
	r := report.Result

	buf.WriteString("Generation Complete\n")
	buf.WriteString(fmt.Sprintf("Images Uploaded: %d\n", r.NumImages))
	buf.WriteString(fmt.Sprintf("Views Processed: %d\n", r.NumViewsProcessed))
	buf.WriteString(fmt.Sprintf("Output File: %s\n", r.OutputFile))
	buf.WriteString(fmt.Sprintf("Download: %s\n", report.DownloadURL))
	if report.SavedTo != "" {
		buf.WriteString(fmt.Sprintf("Saved To: %s\n", report.SavedTo))
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a report to Markdown with a link to the model and the submitted files
func ExportToMarkdown(report Report) ([]byte, error) {
	var buf bytes.Buffer
	r := report.Result

	buf.WriteString("# Generation Complete\n\n")
	buf.WriteString("| Field | Value |\n|---|---|\n")
	buf.WriteString(fmt.Sprintf("| Images Uploaded | %d |\n", r.NumImages))
	buf.WriteString(fmt.Sprintf("| Views Processed | %d |\n", r.NumViewsProcessed))
	buf.WriteString(fmt.Sprintf("| Output File | `%s` |\n\n", r.OutputFile))
	buf.WriteString(fmt.Sprintf("[Download 3D Model](%s)\n", report.DownloadURL))

	if report.SavedTo != "" {
		buf.WriteString(fmt.Sprintf("\nSaved to `%s`\n", report.SavedTo))
	}

	if len(report.Files) > 0 {
		buf.WriteString("\n## Images\n\n")
		for i, name := range report.Files {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, name))
		}
	}

	return buf.Bytes(), nil
}

// ExportToCSV converts a report to a single-row CSV with columns: num_images, num_views_processed, output_file, download_url
func ExportToCSV(report Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	r := report.Result

	headers := []string{"num_images", "num_views_processed", "output_file", "download_url"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	record := []string{
		strconv.Itoa(r.NumImages),
		strconv.Itoa(r.NumViewsProcessed),
		r.OutputFile,
		report.DownloadURL,
	}
	if err := writer.Write(record); err != nil {
		return nil, fmt.Errorf("failed to write CSV record: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteReport writes the report to path in the given format, creating parent directories.
//
// Defaults to {output_file stem}_report.{ext} in the working directory.
func WriteReport(report Report, format, path string) (string, error) {
	data, err := Format(report, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		stem := strings.TrimSuffix(report.Result.OutputFile, filepath.Ext(report.Result.OutputFile))
		if stem == "" {
			stem = "mapx"
		}
		path = fmt.Sprintf("%s_report.%s", stem, extension(format))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}

func extension(format string) string {
	switch strings.ToLower(format) {
	case "json":
		return "json"
	case "markdown", "md":
		return "md"
	case "csv":
		return "csv"
	default:
		return "txt"
	}
}
