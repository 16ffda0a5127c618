package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrDownloadFailed     = fmt.Errorf("download failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// Submission errors, one per [ErrorKind]
	ErrValidation     = fmt.Errorf("validation error")
	ErrServerResponse = fmt.Errorf("server error")
	ErrProcessing     = fmt.Errorf("processing error")

	// ErrSubmitInFlight is returned when a submission is attempted while the submit control is disabled.
	ErrSubmitInFlight = fmt.Errorf("submission already in progress")
)

const (
	MsgNoImages         = "Please select at least one image"
	MsgGenerationFailed = "Failed to generate 3D model"
)

// ErrorKind classifies a failed submission.
type ErrorKind int

const (
	KindProcessing ErrorKind = iota
	KindValidation
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "processing"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindServer:
		return ErrServerResponse
	default:
		return ErrProcessing
	}
}

// SubmissionError is the failure record of a submission.
//
// Error returns only the human-readable Message so it can be shown verbatim.
type SubmissionError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int   // set for [KindServer]
	Err        error // underlying cause, if any
}

func (e *SubmissionError) Error() string { return e.Message }

func (e *SubmissionError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind, so errors.Is(err, ErrValidation) works.
func (e *SubmissionError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// NewValidationError reports an empty selection at submit time.
func NewValidationError() *SubmissionError {
	return &SubmissionError{Kind: KindValidation, Message: MsgNoImages}
}

// NewServerError reports a non-2xx response. A blank message falls back to [MsgGenerationFailed].
func NewServerError(status int, message string) *SubmissionError {
	message = strings.TrimSpace(message)
	if message == "" {
		message = MsgGenerationFailed
	}
	return &SubmissionError{Kind: KindServer, Message: message, StatusCode: status}
}

// NewProcessingError wraps a failure raised while assembling the request or reading the response.
func NewProcessingError(err error) *SubmissionError {
	if err == nil {
		err = errors.New(MsgGenerationFailed)
	}
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = MsgGenerationFailed
	}
	return &SubmissionError{Kind: KindProcessing, Message: message, Err: err}
}

// AsSubmissionError returns err as a [SubmissionError], wrapping anything else as a processing error.
func AsSubmissionError(err error) *SubmissionError {
	if err == nil {
		return nil
	}
	var se *SubmissionError
	if errors.As(err, &se) {
		return se
	}
	return NewProcessingError(err)
}
