// Package services defines the shared error taxonomy for external
// collaborators (recognition engine, ffprobe, catalog uploads) and the
// pipeline components that consume them.
//
// Errors are tagged with sentinel markers so callers can classify failures
// with errors.Is: validation failures requeue a file, external tool failures
// mark it failed and move on, structural failures abort the operation.
package services
