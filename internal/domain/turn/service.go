// Package turn implements the run orchestration engine: one conversational
// turn against the remote assistant, including context resolution, the run
// poll loop, tool-call fan-out and transcript persistence.
package turn

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"venture-canvas/services/turn-api/internal/domain/assistant"
	turnerrors "venture-canvas/services/turn-api/internal/domain/errors"
	"venture-canvas/services/turn-api/internal/domain/tool"
	"venture-canvas/services/turn-api/internal/domain/transcript"
)

// Config bounds the poll loop and tool execution.
type Config struct {
	// PollInterval is the fixed wait between run status checks.
	PollInterval time.Duration
	// MaxPollAttempts caps the loop; exceeding it yields turn_timeout without
	// cancelling the remote run.
	MaxPollAttempts int
	// ToolTimeout is the per-call deadline for tool execution.
	ToolTimeout time.Duration
}

// ToolCallSink receives the audit records of a turn's tool invocations.
// Sink failures are logged, not surfaced; the audit trail never fails a turn
// that already completed.
type ToolCallSink interface {
	LogToolCalls(ctx context.Context, contextID uint, runID string, records []ToolCallRecord) error
}

// Service drives user turns through the assistant run lifecycle.
type Service interface {
	// ExecuteTurn runs one user turn to completion.
	ExecuteTurn(ctx context.Context, params Params) (*Result, error)

	// History returns the stored transcript for a (project, stage) pair.
	History(ctx context.Context, projectID string, stage int) (*History, error)

	// ClearHistory deletes the pair's transcript and reports the count.
	ClearHistory(ctx context.Context, projectID string, stage int) (int64, error)
}

// ServiceImpl provides the domain implementation.
type ServiceImpl struct {
	store    transcript.Store
	gateway  assistant.Gateway
	executor tool.Executor
	cfg      Config
	locks    *contextLocker
	toolLog  ToolCallSink
	log      zerolog.Logger
}

// NewService constructs the turn orchestrator.
func NewService(store transcript.Store, gateway assistant.Gateway, executor tool.Executor, cfg Config, log zerolog.Logger) *ServiceImpl {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 30
	}
	return &ServiceImpl{
		store:    store,
		gateway:  gateway,
		executor: executor,
		cfg:      cfg,
		locks:    newContextLocker(),
		log:      log.With().Str("component", "turn-orchestrator").Logger(),
	}
}

// Ensure interface compliance.
var _ Service = (*ServiceImpl)(nil)

// SetToolCallSink enables the persisted tool call audit trail.
func (s *ServiceImpl) SetToolCallSink(sink ToolCallSink) {
	s.toolLog = sink
}

// ExecuteTurn resolves the conversation context, appends the user message,
// starts a run and drives it to a terminal state, executing requested tool
// calls along the way.
func (s *ServiceImpl) ExecuteTurn(ctx context.Context, params Params) (*Result, error) {
	if !transcript.ValidStage(params.Stage) {
		return nil, turnerrors.Newf(turnerrors.KindInvalidStage, "stage must be between %d and %d, got %d", transcript.MinStage, transcript.MaxStage, params.Stage)
	}
	if params.Text == "" {
		return nil, turnerrors.New(turnerrors.KindInvalidInput, "turn text must not be empty")
	}

	unlock := s.locks.acquire(params.ProjectID, params.Stage)
	defer unlock()

	conv, err := s.resolveContext(ctx, params)
	if err != nil {
		return nil, err
	}

	log := s.log.With().
		Str("project_id", params.ProjectID).
		Int("stage", params.Stage).
		Str("context_handle", conv.Handle).
		Logger()

	if err := s.gateway.AppendMessage(ctx, conv.Handle, string(transcript.RoleUser), params.Text); err != nil {
		return nil, turnerrors.Wrap(err, turnerrors.KindGateway, "append user message to remote context")
	}
	if _, err := s.store.AppendMessage(ctx, conv.ID, transcript.RoleUser, params.Text); err != nil {
		return nil, turnerrors.Wrap(err, turnerrors.KindStorage, "persist user message")
	}

	current, err := s.gateway.StartRun(ctx, conv.Handle)
	if err != nil {
		return nil, turnerrors.Wrap(err, turnerrors.KindGateway, "start run")
	}

	log.Debug().Str("run_id", current.ID).Str("status", current.Status.String()).Msg("run started")

	result := &Result{ContextHandle: conv.Handle}
	final, err := s.driveRun(ctx, conv.Handle, current, params, result, log)
	if err != nil {
		return nil, err
	}

	text, err := s.collectAssistantMessage(ctx, conv)
	if err != nil {
		return nil, err
	}
	result.Text = text

	if s.toolLog != nil && len(result.ToolCalls) > 0 {
		if err := s.toolLog.LogToolCalls(ctx, conv.ID, final.ID, result.ToolCalls); err != nil {
			log.Warn().Err(err).Msg("persist tool call audit records")
		}
	}

	log.Info().
		Str("run_id", final.ID).
		Int("tool_calls", len(result.ToolCalls)).
		Msg("turn completed")
	return result, nil
}

// resolveContext looks up or lazily creates the ConversationContext for the
// pair. A caller-supplied handle that differs from the stored one wins.
func (s *ServiceImpl) resolveContext(ctx context.Context, params Params) (*transcript.ConversationContext, error) {
	conv, err := s.store.GetContext(ctx, params.ProjectID, params.Stage)
	if err != nil && !turnerrors.Is(err, turnerrors.KindNotFound) {
		return nil, turnerrors.Wrap(err, turnerrors.KindStorage, "look up conversation context")
	}

	handle := params.ContextHandle
	switch {
	case conv != nil && (handle == "" || handle == conv.Handle):
		return conv, nil
	case conv == nil && handle == "":
		created, err := s.gateway.CreateContext(ctx)
		if err != nil {
			return nil, turnerrors.Wrap(err, turnerrors.KindGateway, "create remote context")
		}
		handle = created
	}

	conv, err = s.store.UpsertContext(ctx, params.ProjectID, params.Stage, handle)
	if err != nil {
		return nil, turnerrors.Wrap(err, turnerrors.KindStorage, "persist context handle")
	}
	return conv, nil
}

// driveRun polls the run until a terminal state, dispatching tool calls when
// the run requires action. The cap is the only local cancellation mechanism;
// exhausting it leaves the remote run alive.
func (s *ServiceImpl) driveRun(ctx context.Context, handle string, current *assistant.Run, params Params, result *Result, log zerolog.Logger) (*assistant.Run, error) {
	meta := tool.CallMeta{CallerID: params.CallerID, ProjectID: params.ProjectID}

	for attempt := 0; attempt < s.cfg.MaxPollAttempts; attempt++ {
		switch {
		case current.Status.IsSuccess():
			return current, nil

		case current.Status.IsTerminal():
			return nil, terminatedError(current)

		case current.Status.NeedsToolResults():
			results := s.dispatchToolCalls(ctx, current.ToolCalls, meta, result, log)
			next, err := s.gateway.SubmitToolResults(ctx, handle, current.ID, results)
			if err != nil {
				return nil, turnerrors.Wrap(err, turnerrors.KindGateway, "submit tool results")
			}
			current = next

		default:
			select {
			case <-ctx.Done():
				return nil, turnerrors.Wrap(ctx.Err(), turnerrors.KindGateway, "turn aborted while polling")
			case <-time.After(s.cfg.PollInterval):
			}

			next, err := s.gateway.GetRun(ctx, handle, current.ID)
			if err != nil {
				return nil, turnerrors.Wrap(err, turnerrors.KindGateway, "poll run status")
			}
			if next.Status != current.Status {
				log.Debug().
					Str("run_id", next.ID).
					Str("from", current.Status.String()).
					Str("to", next.Status.String()).
					Msg("run status changed")
			}
			current = next
		}
	}

	// The loop can exhaust its budget right after a final poll; honor a
	// terminal status observed on the last iteration.
	if current.Status.IsSuccess() {
		return current, nil
	}
	if current.Status.IsTerminal() {
		return nil, terminatedError(current)
	}
	return nil, turnerrors.Newf(turnerrors.KindTurnTimeout,
		"run %s did not finish within %d polls; the remote run is still live", current.ID, s.cfg.MaxPollAttempts)
}

// dispatchToolCalls executes every request of one poll iteration
// concurrently and waits for all of them before returning (fan-in barrier).
// A failing call never aborts the batch; its error is serialized into that
// call's output so the assistant can react to it.
func (s *ServiceImpl) dispatchToolCalls(ctx context.Context, calls []assistant.ToolCallRequest, meta tool.CallMeta, result *Result, log zerolog.Logger) []assistant.ToolCallResult {
	results := make([]assistant.ToolCallResult, len(calls))
	records := make([]ToolCallRecord, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call assistant.ToolCallRequest) {
			defer wg.Done()
			records[i], results[i] = s.executeToolCall(ctx, call, meta, log)
		}(i, call)
	}
	wg.Wait()

	result.ToolCalls = append(result.ToolCalls, records...)
	return results
}

// executeToolCall runs one tool with its per-call timeout and builds the
// result envelope.
func (s *ServiceImpl) executeToolCall(ctx context.Context, call assistant.ToolCallRequest, meta tool.CallMeta, log zerolog.Logger) (ToolCallRecord, assistant.ToolCallResult) {
	callCtx := ctx
	var cancel context.CancelFunc
	if s.cfg.ToolTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.ToolTimeout)
		defer cancel()
	}

	record := ToolCallRecord{
		CallID:    call.CallID,
		Name:      call.Name,
		Arguments: call.Arguments,
		StartedAt: time.Now(),
	}

	output, err := s.executor.Execute(callCtx, call.Name, call.Arguments, meta)
	record.Duration = time.Since(record.StartedAt)

	if err != nil {
		record.Error = err.Error()
		log.Warn().
			Str("call_id", call.CallID).
			Str("tool_name", call.Name).
			Err(err).
			Msg("tool call failed")
		output = toolErrorPayload(err)
	} else {
		record.Output = output
	}

	return record, assistant.ToolCallResult{CallID: call.CallID, Output: output}
}

// collectAssistantMessage fetches the newest assistant message from the
// remote context and persists it locally when non-empty.
func (s *ServiceImpl) collectAssistantMessage(ctx context.Context, conv *transcript.ConversationContext) (string, error) {
	messages, err := s.gateway.ListMessages(ctx, conv.Handle)
	if err != nil {
		return "", turnerrors.Wrap(err, turnerrors.KindGateway, "list remote messages")
	}

	var text string
	for _, msg := range messages {
		if msg.Role == string(transcript.RoleAssistant) && msg.Text != "" {
			text = msg.Text
			break
		}
	}
	if text == "" {
		return "", nil
	}

	if _, err := s.store.AppendMessage(ctx, conv.ID, transcript.RoleAssistant, text); err != nil {
		return "", turnerrors.Wrap(err, turnerrors.KindStorage, "persist assistant message")
	}
	return text, nil
}

// History returns the transcript for a pair. A missing context yields an
// empty transcript.
func (s *ServiceImpl) History(ctx context.Context, projectID string, stage int) (*History, error) {
	if !transcript.ValidStage(stage) {
		return nil, turnerrors.Newf(turnerrors.KindInvalidStage, "stage must be between %d and %d, got %d", transcript.MinStage, transcript.MaxStage, stage)
	}

	conv, err := s.store.GetContext(ctx, projectID, stage)
	if err != nil {
		if turnerrors.Is(err, turnerrors.KindNotFound) {
			return &History{}, nil
		}
		return nil, turnerrors.Wrap(err, turnerrors.KindStorage, "look up conversation context")
	}

	messages, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, turnerrors.Wrap(err, turnerrors.KindStorage, "list messages")
	}
	return &History{ContextHandle: conv.Handle, Messages: messages}, nil
}

// ClearHistory deletes the pair's transcript. A missing context deletes
// nothing and reports zero.
func (s *ServiceImpl) ClearHistory(ctx context.Context, projectID string, stage int) (int64, error) {
	if !transcript.ValidStage(stage) {
		return 0, turnerrors.Newf(turnerrors.KindInvalidStage, "stage must be between %d and %d, got %d", transcript.MinStage, transcript.MaxStage, stage)
	}

	conv, err := s.store.GetContext(ctx, projectID, stage)
	if err != nil {
		if turnerrors.Is(err, turnerrors.KindNotFound) {
			return 0, nil
		}
		return 0, turnerrors.Wrap(err, turnerrors.KindStorage, "look up conversation context")
	}

	deleted, err := s.store.ClearMessages(ctx, conv.ID)
	if err != nil {
		return 0, turnerrors.Wrap(err, turnerrors.KindStorage, "clear messages")
	}
	return deleted, nil
}

func terminatedError(r *assistant.Run) error {
	reason := "no reason reported"
	if r.LastError != nil {
		reason = r.LastError.Code + ": " + r.LastError.Message
	}
	return turnerrors.Newf(turnerrors.KindRunTerminated, "run %s ended as %s (%s)", r.ID, r.Status, reason).
		WithDetails(map[string]any{"run_id": r.ID, "status": r.Status.String()})
}

func toolErrorPayload(err error) json.RawMessage {
	var toolErr *tool.Error
	if !stderrors.As(err, &toolErr) {
		toolErr = tool.WrapError(err, tool.ErrExecutionFailed, err.Error())
	}
	payload, marshalErr := json.Marshal(map[string]any{"error": toolErr})
	if marshalErr != nil {
		return json.RawMessage(`{"error":{"kind":"ExecutionFailed","message":"tool error could not be serialized"}}`)
	}
	return payload
}
