// Package mcp provides an MCP (Model Context Protocol) server adapter for docintel.
// It lets AI assistants search, upload and inspect processed documents.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
