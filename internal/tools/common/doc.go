// Package common provides shared helpers for the MCP tool packages:
// the instrumented handler wrapper, principal lookup, argument parsing and
// result formatting.
package common
