// Package services implements the client side of the 3D mapping service.
//
// # Endpoints
//
//	POST {upload_path}   multipart/form-data, one part per image, all named "images"
//	GET  {health_path}   service and model readiness
//	GET  {download_url}  the generated model file
//
// # Transport
//
// [MappingService] sends every request through a [retryablehttp.Client]. Retry and timeout behaviour is whatever the
// transport config says (a single attempt and no timeout by default); the submission flow never retries on its own.
// Non-2xx responses are always passed back to the caller so the error body can be read.
//
// # Requests
//
// [SubmissionRequest] holds a fully assembled multipart body. It is built fresh for every submission from the current
// selection and can be replayed by the transport, reporting bytes sent through a [SentFunc] on each attempt.
//
// # Error Handling
//
// Upload failures are returned as shared.SubmissionError values:
//   - server errors for non-2xx responses, carrying the body's "error" field or the fixed fallback message
//   - processing errors for transport failures and undecodable success bodies
package services
