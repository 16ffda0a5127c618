package ui

import (
	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/tasks"
)

// previewDecodedMsg carries one finished decode task. Entries for an old selection are dropped on arrival.
type previewDecodedMsg struct {
	file  models.File
	entry models.PreviewEntry
	err   error
}

// progressUpdateMsg carries one pipeline update from the submission task.
type progressUpdateMsg tasks.ProgressUpdate

// submissionDoneMsg carries the outcome of the submission task.
type submissionDoneMsg struct {
	result *models.Reconstruction
	err    error
}

// downloadDoneMsg reports where the model was saved.
type downloadDoneMsg struct {
	path string
	err  error
}

// browserOpenedMsg reports the outcome of opening the download URL.
type browserOpenedMsg struct {
	url string
	err error
}
