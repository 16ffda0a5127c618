// package services defines the mapping service client
package services

import (
	"context"

	"github.com/desertthunder/mapx/internal/models"
)

// Service defines the operations the upload flow needs from the mapping service.
type Service interface {
	// Health reports whether the service is up and its model is loaded.
	Health(ctx context.Context) (*Health, error)

	// Upload sends an assembled request and returns the reconstruction summary.
	// Failures are shared.SubmissionError values.
	Upload(ctx context.Context, req *SubmissionRequest, onSent SentFunc) (*models.Reconstruction, error)

	// Download fetches the file behind downloadURL into dir and returns the written path.
	Download(ctx context.Context, downloadURL, dir string) (string, error)

	// ResolveURL turns a service-relative path into an absolute URL.
	ResolveURL(path string) string
}

// Health is the body of the health endpoint.
type Health struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	ModelReady bool   `json:"model_ready"`
}

// SentFunc receives the cumulative number of body bytes handed to the transport.
type SentFunc func(sent, total int64)
