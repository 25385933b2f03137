package handlers

import (
	"github.com/rs/zerolog"

	"venture-canvas/services/turn-api/internal/domain/turn"
	"venture-canvas/services/turn-api/internal/infrastructure/queue"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Turn *TurnHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(turnService turn.Service, jobQueue queue.JobQueue, log zerolog.Logger) *Provider {
	return &Provider{
		Turn: NewTurnHandler(turnService, jobQueue, log),
	}
}
