package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation     = "operation"
	KeyPrincipalHash = "principal_hash"
	KeyListID        = "list_id"
	KeyItemID        = "item_id"
	KeyAction        = "action"
	KeySeq           = "seq"
	KeyDuration      = "duration"
	KeyStatus        = "status"
	KeyError         = "error"
	KeyTool          = "tool"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithPrincipal returns a logger carrying the anonymized principal.
func WithPrincipal(logger *slog.Logger, principal string) *slog.Logger {
	return logger.With(PrincipalHash(principal))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// ListID returns a slog attribute for a shopping list identifier.
func ListID(id string) slog.Attr {
	return slog.String(KeyListID, id)
}

// ItemID returns a slog attribute for a shopping item identifier.
func ItemID(id string) slog.Attr {
	return slog.String(KeyItemID, id)
}

// Action returns a slog attribute for an offline mutation kind.
func Action(action string) slog.Attr {
	return slog.String(KeyAction, action)
}

// Seq returns a slog attribute for an offline queue sequence number.
func Seq(seq int64) slog.Attr {
	return slog.Int64(KeySeq, seq)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
// This allows safely passing Err(maybeNilErr) without adding empty attributes.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		// Return an empty Group that slog will omit from output
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizePrincipal returns a hashed representation of a principal for
// logging purposes. This allows correlation of log entries without exposing
// who the user is.
func AnonymizePrincipal(principal string) string {
	if principal == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(principal))
	return "principal:" + hex.EncodeToString(hash[:8])
}

// PrincipalHash returns a slog attribute with the anonymized principal.
//
// Usage:
//
//	logger.Info("list created", logging.PrincipalHash(principal))
func PrincipalHash(principal string) slog.Attr {
	return slog.String(KeyPrincipalHash, AnonymizePrincipal(principal))
}
