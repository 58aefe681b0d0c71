package ollama

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/modelfleet/modelfleet/chat"
)

// Wire types for the native /api/chat endpoint. Exported so custom
// transports can be supplied.

type ChatRequest struct {
	Model    string         `json:"model"`
	Messages []WireMessage  `json:"messages"`
	Tools    []WireTool     `json:"tools,omitempty"`
	Stream   *bool          `json:"stream,omitempty"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type WireMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Images    []string       `json:"images,omitempty"`
	ToolCalls []WireToolCall `json:"tool_calls,omitempty"`
}

type WireToolCall struct {
	Function WireFunctionCall `json:"function"`
}

type WireFunctionCall struct {
	Index     int             `json:"index,omitempty"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type WireTool struct {
	Type     string           `json:"type"`
	Function WireToolFunction `json:"function"`
}

type WireToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type ChatResponse struct {
	Model           string      `json:"model"`
	Message         WireMessage `json:"message"`
	Done            bool        `json:"done"`
	DoneReason      string      `json:"done_reason,omitempty"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
}

// messagesToWire translates the message model into native chat messages.
// Images must be inline bytes; the endpoint cannot fetch URLs.
func messagesToWire(messages []chat.Message) ([]WireMessage, error) {
	wire := make([]WireMessage, 0, len(messages))
	for _, m := range messages {
		switch msg := m.(type) {
		case chat.SystemMessage:
			wire = append(wire, WireMessage{Role: "system", Content: msg.Content})
		case chat.UserMessage:
			wm, err := userToWire(msg)
			if err != nil {
				return nil, err
			}
			wire = append(wire, wm)
		case chat.AssistantMessage:
			wire = append(wire, assistantToWire(msg))
		case chat.FunctionExecutionResultMessage:
			for _, r := range msg.Results {
				wire = append(wire, WireMessage{Role: "tool", Content: r.Content})
			}
		}
	}
	return wire, nil
}

func userToWire(msg chat.UserMessage) (WireMessage, error) {
	var text strings.Builder
	var images []string
	for _, p := range msg.Content {
		switch part := p.(type) {
		case chat.TextPart:
			text.WriteString(part.Text)
		case chat.ImagePart:
			if len(part.Image.Data) == 0 {
				return WireMessage{}, fmt.Errorf("ollama: images require inline data, URL-only image not supported")
			}
			images = append(images, base64.StdEncoding.EncodeToString(part.Image.Data))
		}
	}
	return WireMessage{Role: "user", Content: text.String(), Images: images}, nil
}

func assistantToWire(msg chat.AssistantMessage) WireMessage {
	if len(msg.FunctionCalls) == 0 {
		return WireMessage{Role: "assistant", Content: msg.Content}
	}
	calls := make([]WireToolCall, len(msg.FunctionCalls))
	for i, fc := range msg.FunctionCalls {
		args := json.RawMessage(fc.Arguments)
		if fc.Arguments == "" {
			args = json.RawMessage("{}")
		}
		calls[i] = WireToolCall{Function: WireFunctionCall{
			Index:     i,
			Name:      fc.Name,
			Arguments: args,
		}}
	}
	return WireMessage{Role: "assistant", ToolCalls: calls}
}

func toolsToWire(tools []chat.ToolSchema) []WireTool {
	wire := make([]WireTool, len(tools))
	for i, t := range tools {
		wire[i] = WireTool{
			Type: "function",
			Function: WireToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return wire
}

// finishReasons maps done_reason values onto the canonical enum; anything
// absent resolves to unknown.
var finishReasons = map[string]chat.FinishReason{
	"stop":   chat.FinishStop,
	"length": chat.FinishLength,
}

func mapFinishReason(reason string) chat.FinishReason {
	if mapped, ok := finishReasons[reason]; ok {
		return mapped
	}
	return chat.FinishUnknown
}

// newCallID mints a call ID; the endpoint returns none of its own.
func newCallID() string { return uuid.NewString() }

func callsFromWire(calls []WireToolCall) []chat.FunctionCall {
	out := make([]chat.FunctionCall, len(calls))
	for i, tc := range calls {
		args := string(tc.Function.Arguments)
		if args == "" {
			args = "{}"
		}
		out[i] = chat.FunctionCall{
			ID:        newCallID(),
			Name:      chat.NormalizeName(tc.Function.Name),
			Arguments: args,
		}
	}
	return out
}

// resultFromResponse translates a blocking response, discriminating text
// from tool-call requests.
func resultFromResponse(resp *ChatResponse) (chat.CreateResult, error) {
	if resp == nil {
		return chat.CreateResult{}, &chat.UnsupportedResponseError{Reason: "empty response"}
	}
	result := chat.CreateResult{
		Usage: chat.RequestUsage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
		},
	}
	if len(resp.Message.ToolCalls) > 0 {
		result.FunctionCalls = callsFromWire(resp.Message.ToolCalls)
		result.FinishReason = chat.FinishFunctionCalls
	} else {
		result.Content = resp.Message.Content
		result.FinishReason = mapFinishReason(resp.DoneReason)
	}
	return result, nil
}
