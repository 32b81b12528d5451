// Package inbox watches a directory and submits files dropped into it
// through the ingestion gate.
//
// Writes are debounced per path so a file copied in several chunks is
// submitted once, after it stops changing. Every submission goes through
// driving.IngestService, so byte-identical files are rejected as duplicates
// exactly as they are for manual uploads.
package inbox
