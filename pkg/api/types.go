// Package api implements the looking-glass proxy HTTP API and the
// Prometheus metrics endpoint.
package api

import "github.com/psaab/birdlg/pkg/lg"

// Response is the standard JSON envelope for /api/v1 endpoints.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// QueryRequest is the body of a backend query.
type QueryRequest struct {
	Command  string `json:"command"`
	Endpoint string `json:"endpoint"`
}

// QueryResponse is the reply to a backend query. Error is only set when
// the query failed.
type QueryResponse struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// StatusResponse holds daemon status information.
type StatusResponse struct {
	Uptime      string `json:"uptime"`
	QueriesSeen int    `json:"queries_logged"`
}

// ProtocolsResponse is the parsed "show protocols" table.
type ProtocolsResponse struct {
	Protocols []lg.ProtocolRow `json:"protocols"`
	Count     int              `json:"count"`
}
