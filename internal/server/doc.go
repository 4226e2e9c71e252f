// Package server implements the HTTP surface using the Echo framework.
//
// Routes: overlay read/write/auth-check, the SSE and WebSocket subscription
// transports, health probes, and Prometheus metrics. Handlers are split by
// concern: handlers_overlay.go, handlers_stream.go, handlers_health.go.
package server
