// Package network provides a pre-configured, shared HTTP client for external service communication.
package network

import (
	"net/http"
	"time"
)

// Client is the singleton HTTP client shared across the application for efficient resource utilization.
// Lyric lookups run on background workers, so the timeout is kept short enough that a stalled
// fetch never outlives a track.
var Client = &http.Client{
	Timeout:   10 * time.Second,
	Transport: newTransport(),
}

// newTransport initializes a tuned http.Transport with a small connection pool;
// the player performs at most one lyric fetch at a time.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 10
	t.MaxIdleConnsPerHost = 4
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 10 * time.Second
	return t
}
