package service

import "strings"

// WSConfig holds the WebSocket URL base returned in REST responses.
type WSConfig struct {
	BaseURL string
}

// WSURL returns the WebSocket URL clients should connect to
// (e.g. wss://host/ws or /ws when no base is configured).
func (c *WSConfig) WSURL() string {
	if c == nil || c.BaseURL == "" {
		return "/ws"
	}
	return strings.TrimRight(c.BaseURL, "/") + "/ws"
}
