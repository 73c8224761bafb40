// Package handler implements the HTTP surface of the aggregation service:
// bulk aggregation, streaming (SSE and websocket), provider health, and
// statistics endpoints.
package handler
