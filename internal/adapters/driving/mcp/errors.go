// Package mcp provides an MCP (Model Context Protocol) server adapter for Querra.
// It lets AI assistants index local documents and ask questions over them.
package mcp

import "errors"

// ErrMissingPipeline is returned when the pipeline is not provided.
var ErrMissingPipeline = errors.New("mcp: pipeline is required")
