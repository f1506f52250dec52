package models

// NewSessionResponse is the value of a successful New Session command.
type NewSessionResponse struct {
	SessionID    string         `json:"sessionId"`
	Capabilities map[string]any `json:"capabilities"`
}

// SessionInfo describes a live session in the legacy session listing.
type SessionInfo struct {
	ID           string         `json:"id"`
	Capabilities map[string]any `json:"capabilities"`
}

// Status is the value of the Status command.
type Status struct {
	Ready    bool   `json:"ready"`
	Message  string `json:"message"`
	Sessions int    `json:"sessions"`
}
