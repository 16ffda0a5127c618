// Package models defines the value types shared by the mapx upload flow.
//
//   - [File] : one selected blob (name, MIME type, size, location)
//   - [FileSet] : the current selection, replaced wholesale on each selection event
//   - [PreviewEntry] : a decoded preview of one image file, tagged with its selection
//   - [Reconstruction] : the success record returned by the mapping service
//   - [UIState] and [Region] : the submission state and the visual region it shows
//
// Failure records live in the shared package as SubmissionError so that services can build them without importing UI types.
package models
