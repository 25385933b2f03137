// Package assistantapi implements the assistant.Gateway interface against the
// remote assistant service's HTTP API.
package assistantapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"venture-canvas/services/turn-api/internal/domain/assistant"
	turnerrors "venture-canvas/services/turn-api/internal/domain/errors"
	"venture-canvas/services/turn-api/internal/domain/run"
)

// Client implements the assistant.Gateway interface.
type Client struct {
	httpClient  *resty.Client
	assistantID string
}

// Config carries the remote endpoint settings.
type Config struct {
	BaseURL     string
	APIKey      string
	AssistantID string
}

// NewClient creates a Resty-backed gateway client.
func NewClient(cfg Config) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(75 * time.Second)
	if cfg.APIKey != "" {
		httpClient.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Client{
		httpClient:  httpClient,
		assistantID: cfg.AssistantID,
	}
}

type threadPayload struct {
	ID string `json:"id"`
}

type messagePayload struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
	Content   []struct {
		Type string `json:"type"`
		Text struct {
			Value string `json:"value"`
		} `json:"text"`
	} `json:"content"`
}

type messageListPayload struct {
	Data []messagePayload `json:"data"`
}

type runPayload struct {
	ID        string `json:"id"`
	ThreadID  string `json:"thread_id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
	RequiredAction *struct {
		Type              string `json:"type"`
		SubmitToolOutputs struct {
			ToolCalls []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"submit_tool_outputs"`
	} `json:"required_action"`
}

// CreateContext provisions a new remote thread and returns its handle.
func (c *Client) CreateContext(ctx context.Context) (string, error) {
	var thread threadPayload
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{}).
		SetResult(&thread).
		Post("/v1/threads")
	if err != nil {
		return "", turnerrors.Wrap(err, turnerrors.KindGateway, "create thread")
	}
	if resp.IsError() {
		return "", remoteError(resp, "create thread")
	}
	return thread.ID, nil
}

// AppendMessage adds a message to the remote thread.
func (c *Client) AppendMessage(ctx context.Context, contextHandle, role, text string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{"role": role, "content": text}).
		Post(fmt.Sprintf("/v1/threads/%s/messages", contextHandle))
	if err != nil {
		return turnerrors.Wrap(err, turnerrors.KindGateway, "append message")
	}
	if resp.IsError() {
		return remoteError(resp, "append message")
	}
	return nil
}

// StartRun begins an assistant execution attempt against the thread.
func (c *Client) StartRun(ctx context.Context, contextHandle string) (*assistant.Run, error) {
	var payload runPayload
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{"assistant_id": c.assistantID}).
		SetResult(&payload).
		Post(fmt.Sprintf("/v1/threads/%s/runs", contextHandle))
	if err != nil {
		return nil, turnerrors.Wrap(err, turnerrors.KindGateway, "start run")
	}
	if resp.IsError() {
		return nil, remoteError(resp, "start run")
	}
	return toRun(&payload), nil
}

// GetRun fetches the current run state.
func (c *Client) GetRun(ctx context.Context, contextHandle, runID string) (*assistant.Run, error) {
	var payload runPayload
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&payload).
		Get(fmt.Sprintf("/v1/threads/%s/runs/%s", contextHandle, runID))
	if err != nil {
		return nil, turnerrors.Wrap(err, turnerrors.KindGateway, "get run")
	}
	if resp.IsError() {
		return nil, remoteError(resp, "get run")
	}
	return toRun(&payload), nil
}

// SubmitToolResults feeds a complete batch of tool outputs back to the run.
func (c *Client) SubmitToolResults(ctx context.Context, contextHandle, runID string, results []assistant.ToolCallResult) (*assistant.Run, error) {
	outputs := make([]map[string]string, 0, len(results))
	for _, result := range results {
		outputs = append(outputs, map[string]string{
			"tool_call_id": result.CallID,
			"output":       string(result.Output),
		})
	}

	var payload runPayload
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{"tool_outputs": outputs}).
		SetResult(&payload).
		Post(fmt.Sprintf("/v1/threads/%s/runs/%s/submit_tool_outputs", contextHandle, runID))
	if err != nil {
		return nil, turnerrors.Wrap(err, turnerrors.KindGateway, "submit tool outputs")
	}
	if resp.IsError() {
		return nil, remoteError(resp, "submit tool outputs")
	}
	return toRun(&payload), nil
}

// ListMessages returns the thread's messages, newest first.
func (c *Client) ListMessages(ctx context.Context, contextHandle string) ([]assistant.ContextMessage, error) {
	var payload messageListPayload
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("order", "desc").
		SetResult(&payload).
		Get(fmt.Sprintf("/v1/threads/%s/messages", contextHandle))
	if err != nil {
		return nil, turnerrors.Wrap(err, turnerrors.KindGateway, "list messages")
	}
	if resp.IsError() {
		return nil, remoteError(resp, "list messages")
	}

	messages := make([]assistant.ContextMessage, 0, len(payload.Data))
	for _, msg := range payload.Data {
		messages = append(messages, assistant.ContextMessage{
			ID:        msg.ID,
			Role:      msg.Role,
			Text:      firstTextValue(msg),
			CreatedAt: time.Unix(msg.CreatedAt, 0),
		})
	}
	return messages, nil
}

// Ensure interface compliance.
var _ assistant.Gateway = (*Client)(nil)

func toRun(payload *runPayload) *assistant.Run {
	r := &assistant.Run{
		ID:            payload.ID,
		ContextHandle: payload.ThreadID,
		Status:        run.Status(payload.Status),
	}
	if payload.LastError != nil {
		r.LastError = &assistant.RunError{
			Code:    payload.LastError.Code,
			Message: payload.LastError.Message,
		}
	}
	if payload.RequiredAction != nil {
		for _, call := range payload.RequiredAction.SubmitToolOutputs.ToolCalls {
			r.ToolCalls = append(r.ToolCalls, assistant.ToolCallRequest{
				CallID:    call.ID,
				Name:      call.Function.Name,
				Arguments: json.RawMessage(call.Function.Arguments),
			})
		}
	}
	return r
}

func firstTextValue(msg messagePayload) string {
	for _, part := range msg.Content {
		if part.Type == "text" {
			return part.Text.Value
		}
	}
	return ""
}

func remoteError(resp *resty.Response, operation string) error {
	return turnerrors.Newf(turnerrors.KindGateway, "%s: assistant api returned %d: %s", operation, resp.StatusCode(), resp.String())
}
