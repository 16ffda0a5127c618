package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/shared"
	th "github.com/desertthunder/mapx/internal/testing"
)

func testReport() Report {
	return Report{
		Result: &models.Reconstruction{
			NumImages:         2,
			NumViewsProcessed: 24,
			OutputFile:        "model.glb",
			DownloadURL:       "/download/model.glb",
		},
		DownloadURL: "http://localhost:5000/download/model.glb",
		Files:       []string{"front.png", "side.jpg"},
	}
}

func TestNewReport(t *testing.T) {
	r := &models.Reconstruction{OutputFile: "model.glb", DownloadURL: "/download/model.glb"}
	set := models.NewFileSet("sel-1", []models.File{{Name: "a.png"}, {Name: "b.png"}})

	t.Run("Resolves URL", func(t *testing.T) {
		report := NewReport(r, set, func(p string) string { return "http://host" + p })

		if report.DownloadURL != "http://host/download/model.glb" {
			t.Errorf("unexpected URL %s", report.DownloadURL)
		}
		if len(report.Files) != 2 || report.Files[0] != "a.png" || report.Files[1] != "b.png" {
			t.Errorf("unexpected files %v", report.Files)
		}
	})

	t.Run("Without Resolver", func(t *testing.T) {
		report := NewReport(r, set, nil)
		if report.DownloadURL != "/download/model.glb" {
			t.Errorf("expected URL unchanged, got %s", report.DownloadURL)
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testReport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"Images Uploaded: 2",
			"Views Processed: 24",
			"Output File: model.glb",
			"Download: http://localhost:5000/download/model.glb",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("text missing %q, got: %s", want, output)
			}
		}
		if strings.Contains(output, "Saved To") {
			t.Error("text should not mention a save path when nothing was saved")
		}
	})

	t.Run("ExportToText With Saved Path", func(t *testing.T) {
		report := testReport()
		report.SavedTo = "downloads/model.glb"

		data, _ := ExportToText(report)
		if !strings.Contains(string(data), "Saved To: downloads/model.glb") {
			t.Errorf("text missing save path, got: %s", data)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testReport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "# Generation Complete") {
			t.Errorf("markdown missing heading, got: %s", output)
		}
		if !strings.Contains(output, "| Views Processed | 24 |") {
			t.Error("markdown missing views row")
		}
		if !strings.Contains(output, "[Download 3D Model](http://localhost:5000/download/model.glb)") {
			t.Error("markdown missing download link")
		}
		if !strings.Contains(output, "1. front.png\n2. side.jpg") {
			t.Error("markdown missing ordered image list")
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testReport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected header and one row, got %d lines", len(lines))
		}
		if lines[0] != "num_images,num_views_processed,output_file,download_url" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if lines[1] != "2,24,model.glb,http://localhost:5000/download/model.glb" {
			t.Errorf("unexpected row %q", lines[1])
		}
	})
}

func TestFormat(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		data, err := Format(testReport(), "json")
		if err != nil {
			t.Fatalf("Format failed: %v", err)
		}

		var decoded struct {
			Result      models.Reconstruction `json:"result"`
			DownloadURL string                `json:"download_url"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if decoded.Result.NumViewsProcessed != 24 || decoded.DownloadURL != "http://localhost:5000/download/model.glb" {
			t.Errorf("unexpected decoded report %+v", decoded)
		}
	})

	t.Run("Aliases", func(t *testing.T) {
		for _, f := range []string{"", "text", "txt", "TEXT", "md", "markdown", "csv", "json"} {
			if _, err := Format(testReport(), f); err != nil {
				t.Errorf("Format(%q) failed: %v", f, err)
			}
		}
	})

	t.Run("Unknown Format", func(t *testing.T) {
		_, err := Format(testReport(), "yaml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("CheckFormat", func(t *testing.T) {
		if err := CheckFormat("MD"); err != nil {
			t.Errorf("expected MD accepted, got %v", err)
		}
		if err := CheckFormat("pdf"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Empty Report", func(t *testing.T) {
		_, err := Format(Report{}, "text")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestWriteReport(t *testing.T) {
	t.Run("Explicit Path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "report.md")

		got, err := WriteReport(testReport(), "markdown", path)
		if err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "# Generation Complete") {
			t.Error("report content mismatch")
		}
	})

	t.Run("Default Path", func(t *testing.T) {
		t.Chdir(t.TempDir())

		got, err := WriteReport(testReport(), "csv", "")
		if err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		if got != "model_report.csv" {
			t.Errorf("expected model_report.csv, got %s", got)
		}
		th.AssertFileExists(t, got)
	})

	t.Run("Unwritable Path", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		th.WriteBlob(t, dir, "file", "text/plain", []byte("x"))

		if _, err := WriteReport(testReport(), "text", filepath.Join(blocker, "report.txt")); err == nil {
			t.Error("expected error writing beneath a regular file")
		}
	})
}
