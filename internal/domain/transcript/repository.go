package transcript

import "context"

// Store exposes the persistence contract for conversation contexts and their
// transcripts. Implementations must report write errors to the caller; a
// failed append is never logged and dropped.
type Store interface {
	// GetContext finds the context for a (project, stage) pair. Missing
	// contexts surface as a not_found error.
	GetContext(ctx context.Context, projectID string, stage int) (*ConversationContext, error)

	// UpsertContext associates a handle with the (project, stage) pair,
	// creating the record on first use and overwriting the stored handle
	// otherwise (last-writer-wins).
	UpsertContext(ctx context.Context, projectID string, stage int, handle string) (*ConversationContext, error)

	// AppendMessage adds one transcript entry.
	AppendMessage(ctx context.Context, contextID uint, role MessageRole, text string) (*Message, error)

	// ListMessages returns all messages for a context in creation order.
	ListMessages(ctx context.Context, contextID uint) ([]Message, error)

	// ClearMessages deletes every message of a context and reports the count.
	ClearMessages(ctx context.Context, contextID uint) (int64, error)
}
