package ui

import (
	"strings"
	"testing"

	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/services"
	"github.com/desertthunder/mapx/internal/shared"
	"github.com/desertthunder/mapx/internal/tasks"
	"github.com/desertthunder/mapx/internal/upload"
)

func TestRenderResult(t *testing.T) {
	service := services.NewMappingService(services.MappingOpts{
		Service: shared.ServiceConfig{BaseURL: "http://mapping.test/"},
	})

	t.Run("Fields", func(t *testing.T) {
		out := RenderResult(testResult(), service.ResolveURL)

		for _, want := range []string{
			"✓ Generation Complete",
			"Images Uploaded: 2",
			"Views Processed: 24",
			"Output File: model.obj",
			"Download 3D Model: http://mapping.test/api/download/model.obj",
			"ctrl+d",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("result missing %q:\n%s", want, out)
			}
		}
	})

	tests := []struct {
		name    string
		resolve func(string) string
		link    string
		want    string
	}{
		{"service relative", service.ResolveURL, "/api/download/m.obj", "http://mapping.test/api/download/m.obj"},
		{"relative without slash", service.ResolveURL, "api/download/m.obj", "http://mapping.test/api/download/m.obj"},
		{"absolute link", service.ResolveURL, "https://cdn.test/m.obj", "https://cdn.test/m.obj"},
		{"no resolver", nil, "/api/download/m.obj", "/api/download/m.obj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testResult()
			r.DownloadURL = tt.link
			if out := RenderResult(r, tt.resolve); !strings.Contains(out, "Download 3D Model: "+tt.want+"\n") {
				t.Errorf("expected link %s in:\n%s", tt.want, out)
			}
		})
	}
}

func TestRenderError(t *testing.T) {
	out := RenderError("Invalid image format")

	if !strings.Contains(out, "Error: Invalid image format") {
		t.Errorf("unexpected error region %q", out)
	}
	if RenderError("x") != RenderError("x") {
		t.Error("RenderError is not idempotent")
	}
}

func TestRender(t *testing.T) {
	selection := models.NewFileSet("sel", []models.File{{Name: "a.png", MIMEType: "image/png"}})
	base := upload.View{Label: "1 image(s) selected", Selection: selection}

	views := map[models.UIState]upload.View{
		models.Idle:       base,
		models.Submitting: {State: models.Submitting, Label: base.Label, Selection: selection, Loading: true, SubmitDisabled: true},
		models.Succeeded:  {State: models.Succeeded, Label: base.Label, Selection: selection, Result: testResult()},
		models.Failed:     {State: models.Failed, Label: base.Label, Selection: selection, Err: shared.NewServerError(500, "boom")},
	}
	frame := Frame{
		Resolve:  (&fakeService{}).ResolveURL,
		Progress: tasks.ProgressUpdate{Phase: tasks.Transmit, Message: "Uploading 1 KiB"},
	}

	markers := map[models.Region]string{
		models.RegionLoading: "Uploading 1 KiB",
		models.RegionResults: "Generation Complete",
		models.RegionError:   "Error: boom",
	}

	for state, v := range views {
		t.Run(state.String(), func(t *testing.T) {
			out := Render(v, frame)

			if !strings.Contains(out, "1 image(s) selected") {
				t.Errorf("label missing:\n%s", out)
			}
			for region, marker := range markers {
				visible := strings.Contains(out, marker)
				if want := region == state.Region(); visible != want {
					t.Errorf("region %d visible=%v, want %v:\n%s", region, visible, want, out)
				}
			}
			if Render(v, frame) != out {
				t.Error("Render is not deterministic")
			}
		})
	}

	t.Run("Placeholder", func(t *testing.T) {
		out := Render(upload.View{Label: upload.Placeholder}, Frame{})
		if !strings.Contains(out, upload.Placeholder) {
			t.Errorf("placeholder missing:\n%s", out)
		}
	})

	t.Run("Loading Without Progress", func(t *testing.T) {
		out := Render(views[models.Submitting], Frame{})
		if !strings.Contains(out, loadingMessage) {
			t.Errorf("default loading message missing:\n%s", out)
		}
	})

	t.Run("Previews", func(t *testing.T) {
		v := base
		v.Previews = []models.PreviewEntry{
			{SelectionID: "sel", File: models.File{Name: "front.png"}, Thumbnail: "##"},
			{SelectionID: "sel", File: models.File{Name: "a-very-long-file-name.heic"}},
		}

		out := Render(v, Frame{})

		for _, want := range []string{"front.png", "##", "no preview", "a-very-long-fil…"} {
			if !strings.Contains(out, want) {
				t.Errorf("previews missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("Notice", func(t *testing.T) {
		out := Render(base, Frame{Notice: "Saved to model.obj"})
		if !strings.Contains(out, "Saved to model.obj") {
			t.Errorf("notice missing:\n%s", out)
		}
	})
}
