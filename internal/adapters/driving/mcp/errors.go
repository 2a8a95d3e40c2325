// Package mcp serves accord search and question answering over the Model
// Context Protocol, either on stdio or on streamable HTTP.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
