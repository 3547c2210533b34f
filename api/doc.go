// Package api defines the wire types of the embedgate HTTP API.
//
// # API Overview
//
// embedgate exposes three POST endpoints under /api:
//   - /api/embed: embed a text with the configured embedding model
//   - /api/chat : single-turn chat completion
//   - /api/reset: delete every point of the vector collection
//
// Every /api response body is an envelope:
//
//	{"data": ..., "status": "success" | "error", "error": "..."}
//
// The error field is present only when status is "error". Upstream and
// authentication failures are reported with a bare HTTP status instead.
//
// # Authentication
//
// All /api endpoints require the X-API-Key header:
//
//	X-API-Key: your-api-key
//
// # Base URL
//
//	http://127.0.0.1:3000
package api
