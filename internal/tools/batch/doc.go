// Package batch provides helpers for MCP tools that act on several items
// in one call.
//
// This package includes helpers for:
//   - Parsing parameters that accept both single values and arrays
//   - Running an operation per id while collecting partial failures
//   - Formatting batch results in a consistent structure
package batch
