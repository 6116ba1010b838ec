// Package cmd implements the command-line interface for courses.
//
// This package provides the following commands:
//   - serve: Serve shopping lists over the REST API and MCP
//   - lists: Show the lists of a user
//   - item: Add, check off and remove items, queueing while offline
//   - sync: Replay the offline queue once or on a cron schedule
//   - categories: Print the category catalogue
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
