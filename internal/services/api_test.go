package services

import (
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/shared"
	tu "github.com/desertthunder/mapx/internal/testing"
)

func newTestService(baseURL string, client *http.Client) *MappingService {
	return NewMappingService(MappingOpts{
		Service:    shared.ServiceConfig{BaseURL: baseURL},
		HTTPClient: client,
	})
}

func newTestRequest(t *testing.T) *SubmissionRequest {
	t.Helper()
	dir := t.TempDir()
	req, err := NewSubmissionRequest([]models.File{
		tu.WritePNG(t, dir, "one.png", 4, 4, color.White),
		tu.WritePNG(t, dir, "two.png", 4, 4, color.Black),
	})
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	return req
}

func TestMappingService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Fills Defaults", func(t *testing.T) {
			srv := NewMappingService(MappingOpts{})

			if srv.baseURL != "http://localhost:5000" {
				t.Errorf("expected default base URL, got %s", srv.baseURL)
			}
			if srv.uploadPath != "/api/upload" {
				t.Errorf("expected default upload path, got %s", srv.uploadPath)
			}
			if srv.healthPath != "/api/health" {
				t.Errorf("expected default health path, got %s", srv.healthPath)
			}
			if srv.client.RetryMax != 0 {
				t.Errorf("expected no retries by default, got %d", srv.client.RetryMax)
			}
		})

		t.Run("Applies Transport Config", func(t *testing.T) {
			srv := NewMappingService(MappingOpts{
				Service:   shared.ServiceConfig{BaseURL: "http://example.com/"},
				Transport: shared.TransportConfig{TimeoutSeconds: 5, RetryMax: 2, RetryWaitMinMS: 10, RetryWaitMaxMS: 20},
			})

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected trailing slash trimmed, got %s", srv.baseURL)
			}
			if srv.client.RetryMax != 2 {
				t.Errorf("expected RetryMax 2, got %d", srv.client.RetryMax)
			}
			if srv.client.HTTPClient.Timeout.Seconds() != 5 {
				t.Errorf("expected 5s timeout, got %v", srv.client.HTTPClient.Timeout)
			}
			if srv.upload.RetryMax != 0 {
				t.Errorf("expected uploads to never retry, got RetryMax %d", srv.upload.RetryMax)
			}
			if srv.upload.HTTPClient.Timeout.Seconds() != 5 {
				t.Errorf("expected upload client to share the 5s timeout, got %v", srv.upload.HTTPClient.Timeout)
			}
		})

		t.Run("Uses Custom Client", func(t *testing.T) {
			custom := &http.Client{}
			srv := newTestService("http://example.com", custom)
			if srv.client.HTTPClient != custom || srv.upload.HTTPClient != custom {
				t.Error("expected custom client to be used")
			}
		})
	})

	t.Run("ResolveURL", func(t *testing.T) {
		srv := newTestService("http://example.com", nil)
		tc := map[string]string{
			"/api/download/model.glb":       "http://example.com/api/download/model.glb",
			"api/download/model.glb":        "http://example.com/api/download/model.glb",
			"https://cdn.example.com/m.glb": "https://cdn.example.com/m.glb",
		}
		for in, want := range tc {
			if got := srv.ResolveURL(in); got != want {
				t.Errorf("ResolveURL(%q) = %q, want %q", in, got, want)
			}
		}
	})

	t.Run("Upload", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/api/upload" {
					t.Errorf("expected /api/upload, got %s", r.URL.Path)
				}
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					t.Fatalf("failed to parse multipart form: %v", err)
				}
				if n := len(r.MultipartForm.File["images"]); n != 2 {
					t.Errorf("expected 2 images, got %d", n)
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"status":              "success",
					"num_images":          2,
					"num_views_processed": 24,
					"output_file":         "model.glb",
					"download_url":        "/download/model.glb",
				})
			}))
			defer server.Close()

			var sent, total atomic.Int64
			srv := newTestService(server.URL, nil)
			result, err := srv.Upload(context.Background(), newTestRequest(t), func(s, tot int64) {
				sent.Store(s)
				total.Store(tot)
			})

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			want := models.Reconstruction{Status: "success", NumImages: 2, NumViewsProcessed: 24, OutputFile: "model.glb", DownloadURL: "/download/model.glb"}
			if *result != want {
				t.Errorf("expected %+v, got %+v", want, *result)
			}
			if sent.Load() == 0 || sent.Load() != total.Load() {
				t.Errorf("expected full body progress, got %d/%d", sent.Load(), total.Load())
			}
		})

		t.Run("Server Error With Message", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"decode failed"}`))
			}))
			defer server.Close()

			_, err := newTestService(server.URL, nil).Upload(context.Background(), newTestRequest(t), nil)

			if !errors.Is(err, shared.ErrServerResponse) {
				t.Fatalf("expected server error, got %v", err)
			}
			if err.Error() != "decode failed" {
				t.Errorf("expected 'decode failed', got %q", err.Error())
			}
		})

		t.Run("Server Error Is Not Retried Or Swallowed", func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"Failed to process images"}`))
			}))
			defer server.Close()

			service := NewMappingService(MappingOpts{
				Service:   shared.ServiceConfig{BaseURL: server.URL},
				Transport: shared.TransportConfig{RetryMax: 2, RetryWaitMinMS: 1, RetryWaitMaxMS: 2},
			})

			_, err := service.Upload(context.Background(), newTestRequest(t), nil)

			if err == nil || err.Error() != "Failed to process images" {
				t.Errorf("expected server message, got %v", err)
			}
			if n := atomic.LoadInt32(&calls); n != 1 {
				t.Errorf("expected exactly one request, got %d", n)
			}
		})

		t.Run("Server Error Without JSON", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				w.Write([]byte("<html>Request Entity Too Large</html>"))
			}))
			defer server.Close()

			_, err := newTestService(server.URL, nil).Upload(context.Background(), newTestRequest(t), nil)

			if err == nil || err.Error() != "Failed to generate 3D model" {
				t.Errorf("expected fallback message, got %v", err)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}

			_, err := newTestService("http://example.com", client).Upload(context.Background(), newTestRequest(t), nil)

			if !errors.Is(err, shared.ErrProcessing) {
				t.Fatalf("expected processing error, got %v", err)
			}
			if !strings.Contains(err.Error(), "connection failed") {
				t.Errorf("expected transport message, got %q", err.Error())
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			_, err := newTestService("http://example.com", client).Upload(context.Background(), newTestRequest(t), nil)

			if !errors.Is(err, shared.ErrProcessing) {
				t.Errorf("expected processing error, got %v", err)
			}
		})
	})

	t.Run("Health", func(t *testing.T) {
		t.Run("Healthy", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/health" {
					t.Errorf("expected /api/health, got %s", r.URL.Path)
				}
				w.Write([]byte(`{"status":"healthy","service":"3d-mapping","model_ready":true}`))
			}))
			defer server.Close()

			health, err := newTestService(server.URL, nil).Health(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if health.Status != "healthy" || health.Service != "3d-mapping" || !health.ModelReady {
				t.Errorf("unexpected health %+v", health)
			}
		})

		t.Run("Unhealthy Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer server.Close()

			_, err := newTestService(server.URL, nil).Health(context.Background())
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})

		t.Run("Retries Transient Failures", func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&calls, 1) == 1 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				w.Write([]byte(`{"status":"healthy","service":"3d-mapping","model_ready":true}`))
			}))
			defer server.Close()

			service := NewMappingService(MappingOpts{
				Service:   shared.ServiceConfig{BaseURL: server.URL},
				Transport: shared.TransportConfig{RetryMax: 2, RetryWaitMinMS: 1, RetryWaitMaxMS: 2},
			})

			if _, err := service.Health(context.Background()); err != nil {
				t.Fatalf("expected retry to succeed, got %v", err)
			}
			if n := atomic.LoadInt32(&calls); n != 2 {
				t.Errorf("expected 2 requests, got %d", n)
			}
		})

		t.Run("Invalid Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("ok"))
			}))
			defer server.Close()

			_, err := newTestService(server.URL, nil).Health(context.Background())
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("Download", func(t *testing.T) {
		t.Run("Writes File", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/download/model.glb" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Write([]byte("glTF-binary"))
			}))
			defer server.Close()

			dir := filepath.Join(t.TempDir(), "out")
			path, err := newTestService(server.URL, nil).Download(context.Background(), "/api/download/model.glb", dir)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if path != filepath.Join(dir, "model.glb") {
				t.Errorf("unexpected path %s", path)
			}
			if got := tu.MustReadFile(t, path); got != "glTF-binary" {
				t.Errorf("unexpected content %q", got)
			}

			entries, _ := os.ReadDir(dir)
			if len(entries) != 1 {
				t.Errorf("expected temp file to be cleaned up, found %d entries", len(entries))
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			server := httptest.NewServer(http.NotFoundHandler())
			defer server.Close()

			_, err := newTestService(server.URL, nil).Download(context.Background(), "/api/download/missing.glb", t.TempDir())
			if !errors.Is(err, shared.ErrDownloadFailed) {
				t.Errorf("expected ErrDownloadFailed, got %v", err)
			}
		})

		t.Run("No File Name", func(t *testing.T) {
			_, err := newTestService("http://example.com", nil).Download(context.Background(), "/", t.TempDir())
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("Failed Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			_, err := newTestService("http://example.com", client).Download(context.Background(), "/api/download/m.glb", t.TempDir())
			if !errors.Is(err, shared.ErrDownloadFailed) {
				t.Errorf("expected ErrDownloadFailed, got %v", err)
			}
		})
	})
}

func TestDecodeUploadResponse(t *testing.T) {
	tc := []struct {
		name    string
		status  int
		body    string
		wantErr string
		kind    error
	}{
		{"error field", 400, `{"error":"decode failed"}`, "decode failed", shared.ErrServerResponse},
		{"missing error field", 500, `{"detail":"x"}`, "Failed to generate 3D model", shared.ErrServerResponse},
		{"empty error field", 500, `{"error":""}`, "Failed to generate 3D model", shared.ErrServerResponse},
		{"non-string error field", 500, `{"error":42}`, "Failed to generate 3D model", shared.ErrServerResponse},
		{"unparsable body", 502, `Bad Gateway`, "Failed to generate 3D model", shared.ErrServerResponse},
		{"empty body", 500, ``, "Failed to generate 3D model", shared.ErrServerResponse},
		{"undecodable success", 200, `<html>`, "invalid response body", shared.ErrProcessing},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeUploadResponse(tt.status, []byte(tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.HasPrefix(err.Error(), tt.wantErr) {
				t.Errorf("expected message %q, got %q", tt.wantErr, err.Error())
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("expected kind %v, got %v", tt.kind, err)
			}
		})
	}

	t.Run("success", func(t *testing.T) {
		got, err := DecodeUploadResponse(201, []byte(`{"num_images":1,"num_views_processed":12,"output_file":"m.glb","download_url":"/api/download/m.glb"}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.NumImages != 1 || got.NumViewsProcessed != 12 || got.OutputFile != "m.glb" {
			t.Errorf("unexpected result %+v", got)
		}
	})
}

var _ io.Reader = (*progressReader)(nil)
