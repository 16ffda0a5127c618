package server

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/services"
	"github.com/labstack/echo/v4"
)

const (
	msgNoImages        = "No images provided"
	msgNoSelectedFiles = "No selected files"
	msgProcessFailed   = "Failed to process images"
	msgGenerateFailed  = "Failed to generate 3D model"
)

// HandleHealth reports the stub as healthy with its model loaded.
func (s *Stub) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, services.Health{
		Status:     "healthy",
		Service:    "3d-mapping",
		ModelReady: true,
	})
}

// HandleUpload accepts the multipart images, counts the decodable ones as views and writes a placeholder model.
func (s *Stub) HandleUpload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(msgNoImages)
	}

	// parts sent with an empty file name are parsed as plain values
	parts := form.File[services.FieldName]
	if len(parts) == 0 {
		if _, ok := form.Value[services.FieldName]; ok {
			return badRequest(msgNoSelectedFiles)
		}
		return badRequest(msgNoImages)
	}

	views := make([]view, 0, len(parts))
	for _, p := range parts {
		v, err := decodeView(p)
		if err != nil {
			s.logger.Warn("skipping invalid image", "file", p.Filename, "error", err)
			continue
		}
		views = append(views, v)
	}
	if len(views) == 0 {
		return badRequest(msgProcessFailed)
	}

	id := strings.ReplaceAll(s.newID(), "-", "")
	if len(id) > 12 {
		id = id[:12]
	}
	name := fmt.Sprintf("model_%s.obj", id)
	if err := s.writeModel(name, views); err != nil {
		s.logger.Error("failed to write model", "file", name, "error", err)
		return internalError(msgGenerateFailed)
	}

	s.logger.Info("model generated", "file", name, "images", len(parts), "views", len(views)*s.viewsPerImage)

	return c.JSON(http.StatusOK, models.Reconstruction{
		Status:            "success",
		NumImages:         len(parts),
		NumViewsProcessed: len(views) * s.viewsPerImage,
		OutputFile:        name,
		DownloadURL:       "/api/download/" + name,
	})
}

// HandleDownload serves a generated model as an attachment.
func (s *Stub) HandleDownload(c echo.Context) error {
	name := c.Param("filename")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return notFound("File not found")
	}

	path := filepath.Join(s.outputDir, name)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return notFound("File not found")
	}

	return c.Attachment(path, name)
}

// view is one decodable upload.
type view struct {
	name          string
	width, height int
}

func decodeView(fh *multipart.FileHeader) (view, error) {
	f, err := fh.Open()
	if err != nil {
		return view{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return view{}, err
	}
	return view{name: filepath.Base(fh.Filename), width: cfg.Width, height: cfg.Height}, nil
}

// writeModel writes a Wavefront OBJ with one unit quad per view, offset along x like a camera sweep.
func (s *Stub) writeModel(name string, views []view) error {
	var b strings.Builder
	b.WriteString("# Mock 3D Model Output\n")
	fmt.Fprintf(&b, "# views: %d\n", len(views)*s.viewsPerImage)

	for i, v := range views {
		x := float64(i) * 0.1
		aspect := 1.0
		if v.width > 0 {
			aspect = float64(v.height) / float64(v.width)
		}
		fmt.Fprintf(&b, "o %s\n", v.name)
		fmt.Fprintf(&b, "v %.3f 0.000 0.000\n", x)
		fmt.Fprintf(&b, "v %.3f 1.000 0.000\n", x)
		fmt.Fprintf(&b, "v %.3f 1.000 %.3f\n", x, aspect)
		fmt.Fprintf(&b, "v %.3f 0.000 %.3f\n", x, aspect)
		base := i*4 + 1
		fmt.Fprintf(&b, "f %d %d %d %d\n", base, base+1, base+2, base+3)
	}

	return os.WriteFile(filepath.Join(s.outputDir, name), []byte(b.String()), 0644)
}
