// Package toolexec delegates tool execution to the function executor
// service over JSON-RPC.
package toolexec

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"venture-canvas/services/turn-api/internal/domain/tool"
)

// Client forwards tool calls to the function executor. It satisfies
// tool.Handler so every remote function can be registered by name.
type Client struct {
	httpClient *resty.Client
}

// NewClient constructs the function executor client.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json"),
	}
}

// ListFunctions fetches the function names the executor exposes via
// functions/list. The registry binds each name to this client at startup.
func (c *Client) ListFunctions(ctx context.Context) ([]string, error) {
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "functions/list",
		"params":  map[string]interface{}{},
		"id":      1,
	}

	var rpcResp rpcResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&rpcResp).
		Post("/v1/functions")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("function executor list error: %s", resp.String())
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	var result struct {
		Functions []struct {
			Name string `json:"name"`
		} `json:"functions"`
	}
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(result.Functions))
	for _, fn := range result.Functions {
		names = append(names, fn.Name)
	}
	return names, nil
}

// Handler returns a tool.Handler that invokes the named remote function.
func (c *Client) Handler(name string) tool.Handler {
	return tool.HandlerFunc(func(ctx context.Context, args json.RawMessage, meta tool.CallMeta) (json.RawMessage, error) {
		return c.call(ctx, name, args, meta)
	})
}

// call triggers a function execution via functions/call.
func (c *Client) call(ctx context.Context, name string, args json.RawMessage, meta tool.CallMeta) (json.RawMessage, error) {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "functions/call",
		"params": map[string]interface{}{
			"name":       name,
			"arguments":  args,
			"caller_id":  meta.CallerID,
			"project_id": meta.ProjectID,
		},
		"id": name,
	}

	var rpcResp rpcResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&rpcResp).
		Post("/v1/functions")
	if err != nil {
		if ctx.Err() != nil {
			return nil, tool.WrapError(ctx.Err(), tool.ErrTimeout, "function executor call timed out: "+name)
		}
		return nil, tool.WrapError(err, tool.ErrExecutionFailed, "function executor unreachable")
	}
	if resp.IsError() {
		return nil, tool.NewError(tool.ErrExecutionFailed, fmt.Sprintf("function executor returned %d: %s", resp.StatusCode(), resp.String()))
	}
	if rpcResp.Error != nil {
		return nil, tool.WrapError(rpcResp.Error, tool.ErrExecutionFailed, "function execution failed: "+name)
	}

	var result struct {
		Output  json.RawMessage `json:"output"`
		IsError bool            `json:"isError"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, tool.WrapError(err, tool.ErrExecutionFailed, "decode function result")
	}
	if result.IsError {
		return nil, tool.NewError(tool.ErrExecutionFailed, result.Error)
	}
	if len(result.Output) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return result.Output, nil
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      interface{}     `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (r *rpcError) Error() string {
	return fmt.Sprintf("function executor error (%d): %s", r.Code, r.Message)
}
