// Package instrumentation provides OpenTelemetry instrumentation for the
// courses server and its offline client.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for HTTP requests, calendar store calls, the offline queue and MCP tools
//   - Distributed tracing for store calls and tool invocations
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Calendar Store Metrics:
//   - calendar_store_operations_total: Counter of store calls by operation and status
//   - calendar_store_operation_duration_seconds: Histogram of store call durations
//
// Offline Queue Metrics:
//   - offline_queue_enqueued_total: Counter of mutations recorded while offline, by action
//   - offline_queue_replays_total: Counter of replays by action and result (success, failure, skipped)
//   - offline_queue_depth: Gauge of mutations waiting to be replayed
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// API paths are passed through NormalizePath before they become labels so
// list and item identifiers never reach the metrics backend.
//
// # Tracing
//
// Spans are created for:
//   - MCP tool invocations (tool.<name>)
//   - Calendar store calls (store.<operation>)
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: courses)
//
// Every metric and span carries the courses.component resource attribute,
// "server" for serve and "sync" for the client commands.
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig(instrumentation.ComponentServer))
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordStoreOperation(ctx, instrumentation.OperationSearchTasks, "success", time.Since(start))
package instrumentation
