// Package tasks runs image submissions against the mapping service with real-time progress reporting.
//
// # Pipeline
//
// [SubmissionEngine.Submit] runs four phases strictly in order:
//
//  1. [Validate] : an empty selection fails with the fixed validation message; nothing is sent
//  2. [Assemble] : the multipart body is built from the selection, one "images" part per file in selection order
//  3. [Transmit] : exactly one request is issued through the [Uploader]
//  4. [Await]    : the response is decoded into a reconstruction or a failure
//
// A [Complete] update follows a successful response.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct carries the phase, bytes sent, body size and a display message.
// Updates use select with default to prevent blocking. Transmit updates are throttled with [rate.Sometimes],
// except the final one which always goes out.
//
// # Errors
//
// Submit never retries and never panics: every failure, including a recovered panic, is a shared.SubmissionError
// whose message is ready to be shown to the user.
package tasks
