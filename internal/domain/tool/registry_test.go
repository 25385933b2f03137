package tool_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"

	"venture-canvas/services/turn-api/internal/domain/tool"
)

func echoHandler(t *testing.T) tool.Handler {
	t.Helper()
	return tool.HandlerFunc(func(_ context.Context, args json.RawMessage, _ tool.CallMeta) (json.RawMessage, error) {
		return args, nil
	})
}

func TestRegistry_Execute(t *testing.T) {
	registry := tool.NewRegistry()
	registry.Register("echo", echoHandler(t))

	out, err := registry.Execute(context.Background(), "echo", json.RawMessage(`{"x":1}`), tool.CallMeta{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if string(out) != `{"x":1}` {
		t.Errorf("Execute() = %s, want {\"x\":1}", out)
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	registry := tool.NewRegistry()

	_, err := registry.Execute(context.Background(), "missing", nil, tool.CallMeta{})
	if err == nil {
		t.Fatal("Execute() of unregistered tool should fail")
	}

	var toolErr *tool.Error
	if !stderrors.As(err, &toolErr) {
		t.Fatalf("Execute() error = %T, want *tool.Error", err)
	}
	if toolErr.Kind != tool.ErrUnknownTool {
		t.Errorf("Error.Kind = %v, want UnknownTool", toolErr.Kind)
	}
}

func TestRegistry_MetaPassthrough(t *testing.T) {
	registry := tool.NewRegistry()

	var got tool.CallMeta
	registry.Register("capture", tool.HandlerFunc(func(_ context.Context, _ json.RawMessage, meta tool.CallMeta) (json.RawMessage, error) {
		got = meta
		return json.RawMessage(`{}`), nil
	}))

	meta := tool.CallMeta{CallerID: "user-1", ProjectID: "p1"}
	if _, err := registry.Execute(context.Background(), "capture", nil, meta); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != meta {
		t.Errorf("handler meta = %+v, want %+v", got, meta)
	}
}

func TestRegistry_Names(t *testing.T) {
	registry := tool.NewRegistry()
	registry.Register("update_card", echoHandler(t))
	registry.Register("create_card", echoHandler(t))

	names := registry.Names()
	if len(names) != 2 || names[0] != "create_card" || names[1] != "update_card" {
		t.Errorf("Names() = %v, want [create_card update_card]", names)
	}
}

func TestRegistry_ConcurrentExecute(t *testing.T) {
	registry := tool.NewRegistry()
	registry.Register("echo", echoHandler(t))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := registry.Execute(context.Background(), "echo", json.RawMessage(`{}`), tool.CallMeta{}); err != nil {
				t.Errorf("concurrent Execute() error = %v", err)
			}
		}()
	}
	wg.Wait()
}
