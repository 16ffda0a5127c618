// API client for the 3D mapping service
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/shared"
	"github.com/hashicorp/go-retryablehttp"
)

var _ Service = (*MappingService)(nil)

// MappingService talks to the mapping service over HTTP.
type MappingService struct {
	baseURL    string
	uploadPath string
	healthPath string
	client     *retryablehttp.Client
	upload     *retryablehttp.Client
	logger     *log.Logger
}

// MappingOpts contains configuration options for creating a MappingService.
type MappingOpts struct {
	Service    shared.ServiceConfig
	Transport  shared.TransportConfig
	HTTPClient *http.Client // replaces the transport's pooled client when set
	Logger     *log.Logger
}

// NewMappingService creates a new client, filling unset endpoints from the default config.
func NewMappingService(opts MappingOpts) *MappingService {
	defaults := shared.DefaultConfig().Service
	if opts.Service.BaseURL == "" {
		opts.Service.BaseURL = defaults.BaseURL
	}
	if opts.Service.UploadPath == "" {
		opts.Service.UploadPath = defaults.UploadPath
	}
	if opts.Service.HealthPath == "" {
		opts.Service.HealthPath = defaults.HealthPath
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &MappingService{
		baseURL:    strings.TrimSuffix(opts.Service.BaseURL, "/"),
		uploadPath: opts.Service.UploadPath,
		healthPath: opts.Service.HealthPath,
		client:     newClient(opts, opts.Transport.RetryMax),
		upload:     newClient(opts, 0),
		logger:     opts.Logger,
	}
}

// newClient builds a retrying client over the configured transport. Uploads use retryMax 0 so a submission
// is never sent twice.
func newClient(opts MappingOpts, retryMax int) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	if opts.HTTPClient != nil {
		client.HTTPClient = opts.HTTPClient
	} else if timeout := opts.Transport.Timeout(); timeout > 0 {
		client.HTTPClient.Timeout = timeout
	}
	client.RetryMax = retryMax
	if d := opts.Transport.RetryWaitMin(); d > 0 {
		client.RetryWaitMin = d
	}
	if d := opts.Transport.RetryWaitMax(); d > 0 {
		client.RetryWaitMax = d
	}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = &retryLogger{logger: opts.Logger}
	return client
}

// ResolveURL joins a service-relative path onto the base URL. Absolute URLs are returned unchanged.
func (s *MappingService) ResolveURL(p string) string {
	if u, err := url.Parse(p); err == nil && u.IsAbs() {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return s.baseURL + p
}

// Health calls the health endpoint.
func (s *MappingService) Health(ctx context.Context) (*Health, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.ResolveURL(s.healthPath), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}

	var health Health
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("%w: invalid health response: %v", shared.ErrAPIRequest, err)
	}

	return &health, nil
}

// Upload posts the request body to the upload endpoint.
func (s *MappingService) Upload(ctx context.Context, sr *SubmissionRequest, onSent SentFunc) (*models.Reconstruction, error) {
	body := retryablehttp.ReaderFunc(func() (io.Reader, error) {
		return sr.Reader(onSent), nil
	})

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.ResolveURL(s.uploadPath), body)
	if err != nil {
		return nil, shared.NewProcessingError(err)
	}
	req.Header.Set("Content-Type", sr.ContentType)
	req.Header.Set("Accept", "application/json")

	s.logger.Info("uploading images", "files", len(sr.Files), "bytes", sr.Size(), "url", req.URL.String())

	resp, err := s.upload.Do(req)
	if err != nil {
		s.logger.Error("upload request failed", "error", err)
		return nil, shared.NewProcessingError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, shared.NewProcessingError(fmt.Errorf("failed to read response: %w", err))
	}

	s.logger.Info("upload response", "status", resp.StatusCode, "bytes", len(data))

	return DecodeUploadResponse(resp.StatusCode, data)
}

// DecodeUploadResponse turns an upload response into a result or a SubmissionError.
//
// Non-2xx bodies are searched for an "error" string; anything else yields the fixed fallback message.
func DecodeUploadResponse(status int, body []byte) (*models.Reconstruction, error) {
	if status < 200 || status >= 300 {
		var failure struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &failure); err != nil {
			return nil, shared.NewServerError(status, "")
		}
		return nil, shared.NewServerError(status, failure.Error)
	}

	var result models.Reconstruction
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, shared.NewProcessingError(fmt.Errorf("invalid response body: %w", err))
	}

	return &result, nil
}

// Download fetches downloadURL into dir, keeping the remote file name.
func (s *MappingService) Download(ctx context.Context, downloadURL, dir string) (string, error) {
	target := s.ResolveURL(downloadURL)

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("%w: no file name in %q", shared.ErrInvalidArgument, downloadURL)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	s.logger.Info("downloading model", "url", target)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", shared.ErrDownloadFailed, resp.StatusCode)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write model: %w", err)
	}

	dest := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to write model: %w", err)
	}

	s.logger.Info("model saved", "path", dest)
	return dest, nil
}

// retryLogger implements [retryablehttp.LeveledLogger] on top of a [log.Logger].
type retryLogger struct {
	logger *log.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...any) { l.logger.Error(msg, keysAndValues...) }
func (l *retryLogger) Info(msg string, keysAndValues ...any)  { l.logger.Debug(msg, keysAndValues...) }
func (l *retryLogger) Debug(msg string, keysAndValues ...any) { l.logger.Debug(msg, keysAndValues...) }
func (l *retryLogger) Warn(msg string, keysAndValues ...any)  { l.logger.Warn(msg, keysAndValues...) }
