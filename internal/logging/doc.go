// Package logging provides structured logging utilities for the courses
// application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Principal anonymization
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for packages that accept any logger
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "shopping.update_item")
//	logger.Info("item updated",
//	    logging.ItemID(id),
//	    logging.PrincipalHash(principal))
//
// # Security Considerations
//
// Principals are hashed before they are logged so log streams can be
// correlated per user without naming the user.
package logging
