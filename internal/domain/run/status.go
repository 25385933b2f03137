// Package run defines the lifecycle of a remote assistant run.
package run

// Status represents the lifecycle status of an assistant run.
type Status string

const (
	// Non-terminal states
	StatusQueued         Status = "queued"          // Accepted by the remote service, not yet started
	StatusInProgress     Status = "in_progress"     // Actively executing
	StatusRequiresAction Status = "requires_action" // Blocked on tool results

	// Terminal states (no further transitions allowed)
	StatusCompleted Status = "completed" // Produced a final message
	StatusFailed    Status = "failed"    // Remote-reported failure
	StatusCancelled Status = "cancelled" // Cancelled remotely
	StatusExpired   Status = "expired"   // Remote deadline elapsed
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed ||
		s == StatusCancelled || s == StatusExpired
}

// IsSuccess returns true for the only success-terminal state.
func (s Status) IsSuccess() bool {
	return s == StatusCompleted
}

// NeedsToolResults returns true when the run is waiting on tool output.
func (s Status) NeedsToolResults() bool {
	return s == StatusRequiresAction
}

// IsActive returns true while the poll loop should keep waiting.
func (s Status) IsActive() bool {
	return s == StatusQueued || s == StatusInProgress
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ValidTransitions defines allowed status transitions as reported by the
// remote service. The orchestrator only observes these; it never drives them.
var ValidTransitions = map[Status][]Status{
	StatusQueued:         {StatusInProgress, StatusCancelled, StatusExpired, StatusFailed},
	StatusInProgress:     {StatusRequiresAction, StatusCompleted, StatusFailed, StatusCancelled, StatusExpired},
	StatusRequiresAction: {StatusInProgress, StatusRequiresAction, StatusCancelled, StatusExpired, StatusFailed},
	// Terminal states have no valid transitions
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
	StatusExpired:   {},
}

// CanTransitionTo checks if a transition from the current status to the
// target status is one the remote service may report.
func (s Status) CanTransitionTo(target Status) bool {
	validTargets, ok := ValidTransitions[s]
	if !ok {
		return false
	}
	for _, t := range validTargets {
		if t == target {
			return true
		}
	}
	return false
}
