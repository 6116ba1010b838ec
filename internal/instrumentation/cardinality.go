package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// List and item identifiers must never reach a metric label unmodified.

// idSegmentParents are path segments whose following segment is an identifier.
var idSegmentParents = map[string]bool{
	"lists": true,
	"items": true,
}

// NormalizePath replaces list and item identifiers in an API path with a
// placeholder.
//
// Example:
//
//	NormalizePath("/api/lists/42/items")  // "/api/lists/{id}/items"
//	NormalizePath("/api/items/abc")       // "/api/items/{id}"
//	NormalizePath("/api/categories")      // "/api/categories"
func NormalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i := 1; i < len(segments); i++ {
		if idSegmentParents[segments[i-1]] && segments[i] != "" && !idSegmentParents[segments[i]] {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

// Calendar store operation names for metrics and spans.
const (
	OperationListCalendars  = "list_calendars"
	OperationSearchTasks    = "search_tasks"
	OperationCreateTask     = "create_task"
	OperationUpdateTask     = "update_task"
	OperationDeleteTask     = "delete_task"
	OperationCreateCalendar = "create_calendar"
	OperationRenameCalendar = "rename_calendar"
	OperationDeleteCalendar = "delete_calendar"
)
