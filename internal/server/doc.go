// Package server exposes the shopping service over HTTP.
//
// # Key Components
//
// ServerContext holds the shopping service together with the metrics
// recorder, the audit logger and the read-only switch. The REST handlers
// and the MCP tools both work through it.
//
// API serves the JSON routes under /api:
//   - GET/POST /api/lists, PUT/DELETE /api/lists/{id}
//   - GET/POST /api/lists/{listId}/items, PUT/DELETE /api/items/{id}
//   - GET /api/categories, GET /api/frequent-items
//
// Errors are returned as {"error": "..."} with a status derived from the
// shopping error taxonomy (see StatusForError).
//
// HTTPServer puts the API, the health probes (/healthz, /readyz,
// /healthz/detailed) and the optional MCP endpoint (/mcp) on one listener.
// MetricsServer serves Prometheus metrics on a separate port.
//
// # Principals
//
// Authentication happens in front of this server. PrincipalMiddleware takes
// the principal from the X-Remote-User header or the basic auth username
// and binds it to the request context. When users are configured, any other
// principal is rejected.
package server
