// Package dto defines the HTTP payloads of the turn API.
package dto

// ExecuteTurnRequest is the body of POST /v1/projects/:project_id/stages/:stage/turn.
type ExecuteTurnRequest struct {
	// Text is the user's message for this turn.
	Text string `json:"text"`
	// ContextHandle optionally pins the remote conversation context; it
	// overrides the stored association for the pair.
	ContextHandle string `json:"context_handle,omitempty"`
	// Background enqueues the turn instead of executing it inline.
	Background bool `json:"background,omitempty"`
	// Metadata is passed through to webhook notifications; a webhook_url
	// entry enables completion callbacks for background turns.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
