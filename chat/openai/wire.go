package openai

import (
	openai "github.com/sashabaranov/go-openai"

	"github.com/modelfleet/modelfleet/chat"
)

// messagesToWire translates the message model into chat-completion wire
// messages. A FunctionExecutionResultMessage fans out into one tool message
// per result.
func messagesToWire(messages []chat.Message) []openai.ChatCompletionMessage {
	wire := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		switch msg := m.(type) {
		case chat.SystemMessage:
			wire = append(wire, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: msg.Content,
			})
		case chat.UserMessage:
			wire = append(wire, userToWire(msg))
		case chat.AssistantMessage:
			wire = append(wire, assistantToWire(msg))
		case chat.FunctionExecutionResultMessage:
			for _, r := range msg.Results {
				wire = append(wire, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					ToolCallID: r.CallID,
					Content:    r.Content,
				})
			}
		}
	}
	return wire
}

func userToWire(msg chat.UserMessage) openai.ChatCompletionMessage {
	if text, ok := textOnly(msg.Content); ok {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: text,
		}
	}
	parts := make([]openai.ChatMessagePart, 0, len(msg.Content))
	for _, p := range msg.Content {
		switch part := p.(type) {
		case chat.TextPart:
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: part.Text,
			})
		case chat.ImagePart:
			detail := part.Image.Detail
			if detail == "" {
				detail = chat.ImageDetailAuto
			}
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    part.Image.DataURL(),
					Detail: openai.ImageURLDetail(detail),
				},
			})
		}
	}
	return openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	}
}

func textOnly(parts []chat.ContentPart) (string, bool) {
	if len(parts) != 1 {
		return "", false
	}
	tp, ok := parts[0].(chat.TextPart)
	if !ok {
		return "", false
	}
	return tp.Text, true
}

func assistantToWire(msg chat.AssistantMessage) openai.ChatCompletionMessage {
	if len(msg.FunctionCalls) == 0 {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: msg.Content,
		}
	}
	calls := make([]openai.ToolCall, len(msg.FunctionCalls))
	for i, fc := range msg.FunctionCalls {
		calls[i] = openai.ToolCall{
			ID:   fc.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      fc.Name,
				Arguments: fc.Arguments,
			},
		}
	}
	return openai.ChatCompletionMessage{
		Role:      openai.ChatMessageRoleAssistant,
		ToolCalls: calls,
	}
}

// toolsToWire translates tool schemas into wire tool declarations. The chat
// completions endpoint accepts full JSON schema objects, so parameters pass
// through unmodified.
func toolsToWire(tools []chat.ToolSchema) []openai.Tool {
	wire := make([]openai.Tool, len(tools))
	for i, t := range tools {
		wire[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return wire
}

// mapFinishReason translates the wire finish-reason vocabulary into the
// canonical enum. Unrecognized values map to FinishUnknown, never an error;
// the deprecated singular function_call protocol is rejected earlier.
func mapFinishReason(reason openai.FinishReason) chat.FinishReason {
	switch reason {
	case openai.FinishReasonStop:
		return chat.FinishStop
	case openai.FinishReasonLength:
		return chat.FinishLength
	case openai.FinishReasonToolCalls:
		return chat.FinishFunctionCalls
	case openai.FinishReasonContentFilter:
		return chat.FinishContentFilter
	default:
		return chat.FinishUnknown
	}
}

// resultFromResponse translates a wire response into a CreateResult,
// discriminating a plain text answer from a tool-call request.
func resultFromResponse(resp openai.ChatCompletionResponse) (chat.CreateResult, error) {
	if len(resp.Choices) == 0 {
		return chat.CreateResult{}, &chat.UnsupportedResponseError{Reason: "response carries no choices"}
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonFunctionCall || choice.Message.FunctionCall != nil {
		return chat.CreateResult{}, &chat.UnsupportedResponseError{Reason: "legacy function_call protocol"}
	}

	result := chat.CreateResult{
		Usage: chat.RequestUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}

	if len(choice.Message.ToolCalls) > 0 {
		calls := make([]chat.FunctionCall, len(choice.Message.ToolCalls))
		for i, tc := range choice.Message.ToolCalls {
			args := tc.Function.Arguments
			if args == "" {
				args = "{}"
			}
			calls[i] = chat.FunctionCall{
				ID:        tc.ID,
				Name:      chat.NormalizeName(tc.Function.Name),
				Arguments: args,
			}
		}
		result.FunctionCalls = calls
		result.FinishReason = chat.FinishFunctionCalls
	} else {
		result.Content = choice.Message.Content
		result.FinishReason = mapFinishReason(choice.FinishReason)
	}

	if choice.LogProbs != nil {
		for _, lp := range choice.LogProbs.Content {
			result.Logprobs = append(result.Logprobs, chat.TokenLogprob{
				Token:   lp.Token,
				Logprob: lp.LogProb,
			})
		}
	}
	return result, nil
}
