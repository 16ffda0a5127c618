package tasks

import (
	"fmt"

	"github.com/desertthunder/mapx/internal/models"
)

// ProgressUpdate represents a progress event during a submission.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Sent    int64  // Body bytes handed to the transport so far
	Total   int64  // Body size in bytes, zero before assembly
	Message string // Human-readable message for display
}

// Fraction returns the share of the body sent, between 0 and 1.
func (u ProgressUpdate) Fraction() float64 {
	if u.Total <= 0 {
		return 0
	}
	return min(1, float64(u.Sent)/float64(u.Total))
}

// Pipeline phase enumeration, in execution order.
type Phase int

const (
	Validate Phase = iota
	Assemble
	Transmit
	Await
	Complete
)

func (p Phase) String() string {
	switch p {
	case Validate:
		return "validate"
	case Assemble:
		return "assemble"
	case Transmit:
		return "transmit"
	case Await:
		return "await"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func validateUpdate(set models.FileSet) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Validate,
		Message: fmt.Sprintf("Checking selection (%d files)...", set.Len()),
	}
}

func assembleUpdate(set models.FileSet) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Assemble,
		Message: fmt.Sprintf("Packing %d files...", set.Len()),
	}
}

func transmitUpdate(sent, total int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Transmit,
		Sent:    sent,
		Total:   total,
		Message: fmt.Sprintf("Uploading images (%s / %s)...", humanBytes(sent), humanBytes(total)),
	}
}

func awaitUpdate(total int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Await,
		Sent:    total,
		Total:   total,
		Message: "Generating 3D model...",
	}
}

func completeUpdate(total int64, r *models.Reconstruction) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Sent:    total,
		Total:   total,
		Message: fmt.Sprintf("Model ready: %s", r.OutputFile),
	}
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
