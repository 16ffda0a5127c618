// Package server provides a local stand-in for the 3D mapping service.
//
// # Routes
//
//	GET  /api/health              service status and model readiness
//	POST /api/upload              multipart/form-data, image parts named "images"
//	GET  /api/download/:filename  a generated model file
//
// # Behaviour
//
// The [Stub] accepts the same requests as the real service and answers with the same JSON shapes, so the client can be
// exercised end to end without GPUs. Uploaded images are checked by decoding their headers; each decodable image
// counts as a view. The generated model is a small Wavefront OBJ placeholder with one quad per view.
//
// Failures use the service's error body, {"error": "..."}, with the same messages:
//   - 400 "No images provided" when the request has no "images" field
//   - 400 "No selected files" when every part has an empty file name
//   - 400 "Failed to process images" when no part decodes as an image
//   - 404 for unknown downloads
//
// # Middleware
//
// Request logging goes through charmbracelet/log. Panics are recovered by echo and the request body is capped
// like the real service's 50MB limit.
package server
