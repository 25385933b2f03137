package turn_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"venture-canvas/services/turn-api/internal/domain/assistant"
	turnerrors "venture-canvas/services/turn-api/internal/domain/errors"
	"venture-canvas/services/turn-api/internal/domain/run"
	"venture-canvas/services/turn-api/internal/domain/tool"
	"venture-canvas/services/turn-api/internal/domain/transcript"
	"venture-canvas/services/turn-api/internal/domain/turn"
)

type appendedMessage struct {
	handle string
	role   string
	text   string
}

// fakeGateway plays back a scripted sequence of run states. StartRun returns
// the initial state, GetRun consumes pollStates one by one (repeating the
// last entry once exhausted) and SubmitToolResults consumes afterSubmit.
type fakeGateway struct {
	mu sync.Mutex

	createdContexts int
	appended        []appendedMessage

	initial     *assistant.Run
	pollStates  []*assistant.Run
	pollCalls   int
	afterSubmit []*assistant.Run
	submitted   [][]assistant.ToolCallResult

	remoteMessages []assistant.ContextMessage

	// inFlight counts turns between their AppendMessage and ListMessages
	// calls; maxInFlight records the peak observed.
	inFlight    int
	maxInFlight int

	startErr error
	pollErr  error
}

func (g *fakeGateway) CreateContext(_ context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createdContexts++
	return fmt.Sprintf("ctxh_%d", g.createdContexts), nil
}

func (g *fakeGateway) AppendMessage(_ context.Context, handle, role, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.appended = append(g.appended, appendedMessage{handle: handle, role: role, text: text})
	g.inFlight++
	if g.inFlight > g.maxInFlight {
		g.maxInFlight = g.inFlight
	}
	return nil
}

func (g *fakeGateway) StartRun(_ context.Context, handle string) (*assistant.Run, error) {
	if g.startErr != nil {
		return nil, g.startErr
	}
	r := *g.initial
	r.ContextHandle = handle
	return &r, nil
}

func (g *fakeGateway) GetRun(_ context.Context, handle, runID string) (*assistant.Run, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pollErr != nil {
		return nil, g.pollErr
	}
	idx := g.pollCalls
	g.pollCalls++
	if idx >= len(g.pollStates) {
		idx = len(g.pollStates) - 1
	}
	r := *g.pollStates[idx]
	r.ID = runID
	r.ContextHandle = handle
	return &r, nil
}

func (g *fakeGateway) SubmitToolResults(_ context.Context, handle, runID string, results []assistant.ToolCallResult) (*assistant.Run, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitted = append(g.submitted, results)
	if len(g.afterSubmit) == 0 {
		return &assistant.Run{ID: runID, ContextHandle: handle, Status: run.StatusCompleted}, nil
	}
	next := g.afterSubmit[0]
	g.afterSubmit = g.afterSubmit[1:]
	r := *next
	r.ID = runID
	r.ContextHandle = handle
	return &r, nil
}

func (g *fakeGateway) ListMessages(_ context.Context, _ string) ([]assistant.ContextMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight--
	return g.remoteMessages, nil
}

// fakeStore is an in-memory transcript.Store.
type fakeStore struct {
	mu        sync.Mutex
	contexts  map[string]*transcript.ConversationContext
	messages  map[uint][]transcript.Message
	nextID    uint
	appendErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contexts: make(map[string]*transcript.ConversationContext),
		messages: make(map[uint][]transcript.Message),
	}
}

func pairKey(projectID string, stage int) string {
	return fmt.Sprintf("%s/%d", projectID, stage)
}

func (s *fakeStore) GetContext(_ context.Context, projectID string, stage int) (*transcript.ConversationContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.contexts[pairKey(projectID, stage)]
	if !ok {
		return nil, turnerrors.New(turnerrors.KindNotFound, "conversation context not found")
	}
	copied := *conv
	return &copied, nil
}

func (s *fakeStore) UpsertContext(_ context.Context, projectID string, stage int, handle string) (*transcript.ConversationContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(projectID, stage)
	if conv, ok := s.contexts[key]; ok {
		conv.Handle = handle
		copied := *conv
		return &copied, nil
	}
	s.nextID++
	conv := transcript.NewContext(fmt.Sprintf("ctx_%d", s.nextID), projectID, stage, handle)
	conv.ID = s.nextID
	s.contexts[key] = conv
	copied := *conv
	return &copied, nil
}

func (s *fakeStore) AppendMessage(_ context.Context, contextID uint, role transcript.MessageRole, text string) (*transcript.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	s.nextID++
	msg := transcript.NewMessage(fmt.Sprintf("msg_%d", s.nextID), contextID, role, text)
	msg.ID = s.nextID
	s.messages[contextID] = append(s.messages[contextID], *msg)
	return msg, nil
}

func (s *fakeStore) ListMessages(_ context.Context, contextID uint) ([]transcript.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]transcript.Message(nil), s.messages[contextID]...), nil
}

func (s *fakeStore) ClearMessages(_ context.Context, contextID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := int64(len(s.messages[contextID]))
	delete(s.messages, contextID)
	return count, nil
}

func testConfig() turn.Config {
	return turn.Config{
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 5,
		ToolTimeout:     time.Second,
	}
}

func newService(t *testing.T, store *fakeStore, gateway *fakeGateway, executor tool.Executor) *turn.ServiceImpl {
	t.Helper()
	if executor == nil {
		executor = tool.NewRegistry()
	}
	return turn.NewService(store, gateway, executor, testConfig(), zerolog.Nop())
}

func assistantReply(text string) []assistant.ContextMessage {
	return []assistant.ContextMessage{
		{ID: "m2", Role: "assistant", Text: text, CreatedAt: time.Now()},
		{ID: "m1", Role: "user", Text: "hello", CreatedAt: time.Now().Add(-time.Second)},
	}
}

func TestExecuteTurn_CompletesWithoutTools(t *testing.T) {
	store := newFakeStore()
	gateway := &fakeGateway{
		initial:        &assistant.Run{ID: "run_1", Status: run.StatusQueued},
		pollStates:     []*assistant.Run{{Status: run.StatusCompleted}},
		remoteMessages: assistantReply("here is the canvas"),
	}
	service := newService(t, store, gateway, nil)

	result, err := service.ExecuteTurn(context.Background(), turn.Params{
		ProjectID: "proj-1", Stage: 2, Text: "hello",
	})
	if err != nil {
		t.Fatalf("ExecuteTurn() error = %v", err)
	}
	if result.Text != "here is the canvas" {
		t.Errorf("result.Text = %q, want %q", result.Text, "here is the canvas")
	}
	if result.ContextHandle != "ctxh_1" {
		t.Errorf("result.ContextHandle = %q, want ctxh_1", result.ContextHandle)
	}

	conv, err := store.GetContext(context.Background(), "proj-1", 2)
	if err != nil {
		t.Fatalf("GetContext() error = %v", err)
	}
	messages, _ := store.ListMessages(context.Background(), conv.ID)
	if len(messages) != 2 {
		t.Fatalf("stored messages = %d, want 2", len(messages))
	}
	if messages[0].Role != transcript.RoleUser || messages[0].Text != "hello" {
		t.Errorf("messages[0] = %s %q, want user turn", messages[0].Role, messages[0].Text)
	}
	if messages[1].Role != transcript.RoleAssistant || messages[1].Text != "here is the canvas" {
		t.Errorf("messages[1] = %s %q, want assistant reply", messages[1].Role, messages[1].Text)
	}
}

func TestExecuteTurn_RejectsInvalidStage(t *testing.T) {
	service := newService(t, newFakeStore(), &fakeGateway{}, nil)

	for _, stage := range []int{0, 7, -1} {
		_, err := service.ExecuteTurn(context.Background(), turn.Params{ProjectID: "p", Stage: stage, Text: "x"})
		if !turnerrors.Is(err, turnerrors.KindInvalidStage) {
			t.Errorf("stage %d: error = %v, want invalid_stage", stage, err)
		}
	}
}

func TestExecuteTurn_RejectsEmptyText(t *testing.T) {
	service := newService(t, newFakeStore(), &fakeGateway{}, nil)

	_, err := service.ExecuteTurn(context.Background(), turn.Params{ProjectID: "p", Stage: 1})
	if !turnerrors.Is(err, turnerrors.KindInvalidInput) {
		t.Errorf("error = %v, want invalid_input", err)
	}
}

func TestExecuteTurn_ReusesStoredContext(t *testing.T) {
	store := newFakeStore()
	if _, err := store.UpsertContext(context.Background(), "proj-1", 3, "ctxh_existing"); err != nil {
		t.Fatal(err)
	}
	gateway := &fakeGateway{
		initial:        &assistant.Run{ID: "run_1", Status: run.StatusCompleted},
		pollStates:     []*assistant.Run{{Status: run.StatusCompleted}},
		remoteMessages: assistantReply("again"),
	}
	service := newService(t, store, gateway, nil)

	result, err := service.ExecuteTurn(context.Background(), turn.Params{ProjectID: "proj-1", Stage: 3, Text: "more"})
	if err != nil {
		t.Fatalf("ExecuteTurn() error = %v", err)
	}
	if gateway.createdContexts != 0 {
		t.Errorf("created %d remote contexts, want 0 for stored pair", gateway.createdContexts)
	}
	if result.ContextHandle != "ctxh_existing" {
		t.Errorf("result.ContextHandle = %q, want ctxh_existing", result.ContextHandle)
	}
}

func TestExecuteTurn_CallerHandleWins(t *testing.T) {
	store := newFakeStore()
	if _, err := store.UpsertContext(context.Background(), "proj-1", 1, "ctxh_old"); err != nil {
		t.Fatal(err)
	}
	gateway := &fakeGateway{
		initial:        &assistant.Run{ID: "run_1", Status: run.StatusCompleted},
		pollStates:     []*assistant.Run{{Status: run.StatusCompleted}},
		remoteMessages: assistantReply("switched"),
	}
	service := newService(t, store, gateway, nil)

	result, err := service.ExecuteTurn(context.Background(), turn.Params{
		ProjectID: "proj-1", Stage: 1, Text: "use the new one", ContextHandle: "ctxh_new",
	})
	if err != nil {
		t.Fatalf("ExecuteTurn() error = %v", err)
	}
	if result.ContextHandle != "ctxh_new" {
		t.Errorf("result.ContextHandle = %q, want ctxh_new", result.ContextHandle)
	}

	conv, err := store.GetContext(context.Background(), "proj-1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if conv.Handle != "ctxh_new" {
		t.Errorf("stored handle = %q, want caller override ctxh_new", conv.Handle)
	}
	if gateway.createdContexts != 0 {
		t.Errorf("created %d remote contexts, want 0 when caller supplies a handle", gateway.createdContexts)
	}
}

func TestExecuteTurn_ToolFanOut(t *testing.T) {
	calls := []assistant.ToolCallRequest{
		{CallID: "call_1", Name: "create_card", Arguments: json.RawMessage(`{"title":"a"}`)},
		{CallID: "call_2", Name: "create_card", Arguments: json.RawMessage(`{"title":"b"}`)},
		{CallID: "call_3", Name: "create_card", Arguments: json.RawMessage(`{"title":"c"}`)},
	}
	gateway := &fakeGateway{
		initial:        &assistant.Run{ID: "run_1", Status: run.StatusRequiresAction, ToolCalls: calls},
		pollStates:     []*assistant.Run{{Status: run.StatusCompleted}},
		afterSubmit:    []*assistant.Run{{Status: run.StatusCompleted}},
		remoteMessages: assistantReply("cards created"),
	}

	var executed sync.Map
	registry := tool.NewRegistry()
	registry.Register("create_card", tool.HandlerFunc(func(_ context.Context, args json.RawMessage, _ tool.CallMeta) (json.RawMessage, error) {
		executed.Store(string(args), true)
		return json.RawMessage(`{"ok":true}`), nil
	}))

	service := newService(t, newFakeStore(), gateway, registry)

	result, err := service.ExecuteTurn(context.Background(), turn.Params{ProjectID: "proj-1", Stage: 4, Text: "make cards"})
	if err != nil {
		t.Fatalf("ExecuteTurn() error = %v", err)
	}

	if len(gateway.submitted) != 1 {
		t.Fatalf("submissions = %d, want one batch", len(gateway.submitted))
	}
	if len(gateway.submitted[0]) != len(calls) {
		t.Errorf("batch size = %d, want %d", len(gateway.submitted[0]), len(calls))
	}
	for _, call := range calls {
		if _, ok := executed.Load(string(call.Arguments)); !ok {
			t.Errorf("tool call %s was not executed", call.CallID)
		}
	}
	if len(result.ToolCalls) != len(calls) {
		t.Errorf("result.ToolCalls = %d, want %d", len(result.ToolCalls), len(calls))
	}
}

func TestExecuteTurn_ToolErrorEmbeddedInBatch(t *testing.T) {
	calls := []assistant.ToolCallRequest{
		{CallID: "call_ok", Name: "works", Arguments: json.RawMessage(`{}`)},
		{CallID: "call_bad", Name: "breaks", Arguments: json.RawMessage(`{}`)},
	}
	gateway := &fakeGateway{
		initial:        &assistant.Run{ID: "run_1", Status: run.StatusRequiresAction, ToolCalls: calls},
		pollStates:     []*assistant.Run{{Status: run.StatusCompleted}},
		afterSubmit:    []*assistant.Run{{Status: run.StatusCompleted}},
		remoteMessages: assistantReply("partial success"),
	}

	registry := tool.NewRegistry()
	registry.Register("works", tool.HandlerFunc(func(_ context.Context, _ json.RawMessage, _ tool.CallMeta) (json.RawMessage, error) {
		return json.RawMessage(`{"ok":true}`), nil
	}))
	registry.Register("breaks", tool.HandlerFunc(func(_ context.Context, _ json.RawMessage, _ tool.CallMeta) (json.RawMessage, error) {
		return nil, tool.NewError(tool.ErrExecutionFailed, "card limit reached")
	}))

	service := newService(t, newFakeStore(), gateway, registry)

	result, err := service.ExecuteTurn(context.Background(), turn.Params{ProjectID: "proj-1", Stage: 4, Text: "go"})
	if err != nil {
		t.Fatalf("ExecuteTurn() error = %v, a tool failure must not abort the turn", err)
	}

	if len(gateway.submitted) != 1 || len(gateway.submitted[0]) != 2 {
		t.Fatalf("submitted = %+v, want one batch of 2", gateway.submitted)
	}
	var badOutput json.RawMessage
	for _, res := range gateway.submitted[0] {
		if res.CallID == "call_bad" {
			badOutput = res.Output
		}
	}
	if !strings.Contains(string(badOutput), "card limit reached") {
		t.Errorf("failed call output = %s, want serialized tool error", badOutput)
	}

	var failedRecord *turn.ToolCallRecord
	for i := range result.ToolCalls {
		if result.ToolCalls[i].CallID == "call_bad" {
			failedRecord = &result.ToolCalls[i]
		}
	}
	if failedRecord == nil || failedRecord.Error == "" {
		t.Errorf("result.ToolCalls missing error record for call_bad: %+v", result.ToolCalls)
	}
}

func TestExecuteTurn_UnknownToolEmbeddedInBatch(t *testing.T) {
	calls := []assistant.ToolCallRequest{
		{CallID: "call_known", Name: "create_card", Arguments: json.RawMessage(`{}`)},
		{CallID: "call_unknown", Name: "not_registered", Arguments: json.RawMessage(`{}`)},
	}
	gateway := &fakeGateway{
		initial:        &assistant.Run{ID: "run_1", Status: run.StatusRequiresAction, ToolCalls: calls},
		pollStates:     []*assistant.Run{{Status: run.StatusCompleted}},
		afterSubmit:    []*assistant.Run{{Status: run.StatusCompleted}},
		remoteMessages: assistantReply("made do without it"),
	}

	registry := tool.NewRegistry()
	registry.Register("create_card", tool.HandlerFunc(func(_ context.Context, _ json.RawMessage, _ tool.CallMeta) (json.RawMessage, error) {
		return json.RawMessage(`{"ok":true}`), nil
	}))

	service := newService(t, newFakeStore(), gateway, registry)

	result, err := service.ExecuteTurn(context.Background(), turn.Params{ProjectID: "proj-1", Stage: 4, Text: "go"})
	if err != nil {
		t.Fatalf("ExecuteTurn() error = %v, an unregistered tool must not abort the turn", err)
	}

	if len(gateway.submitted) != 1 || len(gateway.submitted[0]) != 2 {
		t.Fatalf("submitted = %+v, want one batch of 2", gateway.submitted)
	}
	var unknownOutput json.RawMessage
	for _, res := range gateway.submitted[0] {
		if res.CallID == "call_unknown" {
			unknownOutput = res.Output
		}
	}
	if !strings.Contains(string(unknownOutput), `"kind":"UnknownTool"`) {
		t.Errorf("unknown tool output = %s, want serialized UnknownTool error", unknownOutput)
	}

	var record *turn.ToolCallRecord
	for i := range result.ToolCalls {
		if result.ToolCalls[i].CallID == "call_unknown" {
			record = &result.ToolCalls[i]
		}
	}
	if record == nil || !strings.Contains(record.Error, "not_registered") {
		t.Errorf("result.ToolCalls missing unknown tool record: %+v", result.ToolCalls)
	}
}

func TestExecuteTurn_SerializesSamePair(t *testing.T) {
	gateway := &fakeGateway{
		initial:        &assistant.Run{ID: "run_1", Status: run.StatusInProgress},
		pollStates:     []*assistant.Run{{Status: run.StatusCompleted}},
		remoteMessages: assistantReply("one at a time"),
	}
	store := newFakeStore()
	service := newService(t, store, gateway, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.ExecuteTurn(context.Background(), turn.Params{
				ProjectID: "proj-1", Stage: 2, Text: fmt.Sprintf("turn %d", i),
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("turn %d: ExecuteTurn() error = %v", i, err)
		}
	}

	if gateway.maxInFlight != 1 {
		t.Errorf("max in-flight turns = %d, want 1 (same pair must serialize)", gateway.maxInFlight)
	}
	if gateway.createdContexts != 1 {
		t.Errorf("created %d remote contexts, want 1 shared by both turns", gateway.createdContexts)
	}

	conv, err := store.GetContext(context.Background(), "proj-1", 2)
	if err != nil {
		t.Fatal(err)
	}
	messages, _ := store.ListMessages(context.Background(), conv.ID)
	if len(messages) != 4 {
		t.Errorf("stored messages = %d, want 2 per turn", len(messages))
	}
}

func TestExecuteTurn_TimeoutAfterPollBudget(t *testing.T) {
	gateway := &fakeGateway{
		initial:    &assistant.Run{ID: "run_1", Status: run.StatusInProgress},
		pollStates: []*assistant.Run{{Status: run.StatusInProgress}},
	}
	service := newService(t, newFakeStore(), gateway, nil)

	_, err := service.ExecuteTurn(context.Background(), turn.Params{ProjectID: "proj-1", Stage: 1, Text: "slow"})
	if !turnerrors.Is(err, turnerrors.KindTurnTimeout) {
		t.Fatalf("error = %v, want turn_timeout", err)
	}
	if gateway.pollCalls != testConfig().MaxPollAttempts {
		t.Errorf("poll calls = %d, want %d", gateway.pollCalls, testConfig().MaxPollAttempts)
	}
}

func TestExecuteTurn_TerminatedRun(t *testing.T) {
	gateway := &fakeGateway{
		initial: &assistant.Run{ID: "run_1", Status: run.StatusQueued},
		pollStates: []*assistant.Run{{
			Status:    run.StatusCancelled,
			LastError: &assistant.RunError{Code: "cancelled", Message: "user cancelled"},
		}},
	}
	service := newService(t, newFakeStore(), gateway, nil)

	_, err := service.ExecuteTurn(context.Background(), turn.Params{ProjectID: "proj-1", Stage: 1, Text: "x"})
	if !turnerrors.Is(err, turnerrors.KindRunTerminated) {
		t.Fatalf("error = %v, want run_terminated", err)
	}
	if gateway.pollCalls != 1 {
		t.Errorf("poll calls = %d, want short-circuit after first terminal poll", gateway.pollCalls)
	}
}

func TestExecuteTurn_StoreWriteFailureAborts(t *testing.T) {
	store := newFakeStore()
	store.appendErr = fmt.Errorf("disk full")
	gateway := &fakeGateway{
		initial:    &assistant.Run{ID: "run_1", Status: run.StatusCompleted},
		pollStates: []*assistant.Run{{Status: run.StatusCompleted}},
	}
	service := newService(t, store, gateway, nil)

	_, err := service.ExecuteTurn(context.Background(), turn.Params{ProjectID: "proj-1", Stage: 1, Text: "x"})
	if !turnerrors.Is(err, turnerrors.KindStorage) {
		t.Fatalf("error = %v, want storage_error", err)
	}
}

func TestHistory_EmptyForUnknownPair(t *testing.T) {
	service := newService(t, newFakeStore(), &fakeGateway{}, nil)

	history, err := service.History(context.Background(), "proj-none", 1)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if history.ContextHandle != "" || len(history.Messages) != 0 {
		t.Errorf("History() = %+v, want empty transcript", history)
	}
}

func TestHistory_ReturnsStoredOrder(t *testing.T) {
	store := newFakeStore()
	conv, _ := store.UpsertContext(context.Background(), "proj-1", 2, "ctxh_1")
	store.AppendMessage(context.Background(), conv.ID, transcript.RoleUser, "first")
	store.AppendMessage(context.Background(), conv.ID, transcript.RoleAssistant, "second")

	service := newService(t, store, &fakeGateway{}, nil)

	history, err := service.History(context.Background(), "proj-1", 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if history.ContextHandle != "ctxh_1" {
		t.Errorf("ContextHandle = %q, want ctxh_1", history.ContextHandle)
	}
	if len(history.Messages) != 2 || history.Messages[0].Text != "first" || history.Messages[1].Text != "second" {
		t.Errorf("Messages = %+v, want creation order preserved", history.Messages)
	}
}

func TestClearHistory(t *testing.T) {
	store := newFakeStore()
	conv, _ := store.UpsertContext(context.Background(), "proj-1", 2, "ctxh_1")
	store.AppendMessage(context.Background(), conv.ID, transcript.RoleUser, "a")
	store.AppendMessage(context.Background(), conv.ID, transcript.RoleAssistant, "b")

	service := newService(t, store, &fakeGateway{}, nil)

	deleted, err := service.ClearHistory(context.Background(), "proj-1", 2)
	if err != nil {
		t.Fatalf("ClearHistory() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	deleted, err = service.ClearHistory(context.Background(), "proj-1", 2)
	if err != nil {
		t.Fatalf("second ClearHistory() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("second clear deleted = %d, want 0", deleted)
	}
}

func TestClearHistory_UnknownPair(t *testing.T) {
	service := newService(t, newFakeStore(), &fakeGateway{}, nil)

	deleted, err := service.ClearHistory(context.Background(), "proj-none", 3)
	if err != nil {
		t.Fatalf("ClearHistory() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}
