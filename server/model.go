package server

import "github.com/erikmagkekse/netgroup-nfs/exportsync"

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	Commit        string            `json:"commit"`
	UptimeSeconds int               `json:"uptime_seconds"`
	Features      map[string]string `json:"features,omitempty"`
}

type StatusResponse struct {
	Runs      int                `json:"runs"`
	LastError string             `json:"last_error,omitempty"`
	Last      *exportsync.Result `json:"last,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
