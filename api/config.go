// Package api provides an HTTP API server for fetching workflow runs and
// classifying trajectory payloads.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string
}
