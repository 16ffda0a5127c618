// package models defines the data model for the mapx upload flow
package models

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// File is one selected blob. The contents are never inspected beyond preview decoding.
type File struct {
	Name     string // base name sent as the multipart filename
	Path     string // location on disk
	MIMEType string // e.g. "image/png"; may be empty when unknown
	Size     int64  // bytes
}

// Open opens the blob for reading.
func (f File) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// IsImage reports whether the file's MIME type begins with "image/".
func (f File) IsImage() bool {
	return strings.HasPrefix(f.MIMEType, "image/")
}

// FileSet is an ordered selection identified by a per-selection ID.
type FileSet struct {
	ID    string
	Files []File
}

// NewFileSet copies files into a new set so later changes to the caller's slice never reach it.
func NewFileSet(id string, files []File) FileSet {
	cp := make([]File, len(files))
	copy(cp, files)
	return FileSet{ID: id, Files: cp}
}

// Len returns the number of selected files (images and non-images alike).
func (s FileSet) Len() int { return len(s.Files) }

// Empty reports whether nothing is selected.
func (s FileSet) Empty() bool { return len(s.Files) == 0 }

// TotalSize returns the combined size of all files in bytes.
func (s FileSet) TotalSize() int64 {
	var n int64
	for _, f := range s.Files {
		n += f.Size
	}
	return n
}

// PreviewEntry is the rendered preview of one image file.
type PreviewEntry struct {
	SelectionID string // ID of the [FileSet] the entry was decoded for
	File        File
	DataURL     string // data:<mime>;base64,<payload>
	Thumbnail   string // terminal rendering; empty when the format is not displayable
}

// Reconstruction is the success record of a submission.
type Reconstruction struct {
	Status            string `json:"status,omitempty"`
	NumImages         int    `json:"num_images"`
	NumViewsProcessed int    `json:"num_views_processed"`
	OutputFile        string `json:"output_file"`
	DownloadURL       string `json:"download_url"`
}

// UIState is the submission state.
type UIState int

const (
	Idle UIState = iota
	Validating
	Submitting
	Succeeded
	Failed
)

func (s UIState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("UIState(%d)", int(s))
	}
}

// Region is the visual region shown for a state. At most one is visible.
type Region int

const (
	RegionNone Region = iota
	RegionLoading
	RegionResults
	RegionError
)

// Region maps a state to the single region it shows.
func (s UIState) Region() Region {
	switch s {
	case Submitting:
		return RegionLoading
	case Succeeded:
		return RegionResults
	case Failed:
		return RegionError
	default:
		return RegionNone
	}
}
