// Package mcp provides an MCP (Model Context Protocol) server adapter
// for Roundtable. It lets AI assistants rank speakers and run panel
// discussions against the local transcript index.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
