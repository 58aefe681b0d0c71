package gemini

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/modelfleet/modelfleet/chat"
)

func TestMessagesToWireSystemInstruction(t *testing.T) {
	system, contents := messagesToWire([]chat.Message{
		chat.SystemMessage{Content: "first"},
		chat.SystemMessage{Content: "second"},
		chat.NewTextUserMessage("user", "hello"),
	})
	if system == nil {
		t.Fatal("expected system instruction")
	}
	if system.Parts[0].Text != "first\nsecond" {
		t.Errorf("expected joined system text, got %q", system.Parts[0].Text)
	}
	if len(contents) != 1 {
		t.Fatalf("system messages must not appear in contents, got %d", len(contents))
	}
	if contents[0].Role != "user" || contents[0].Parts[0].Text != "hello" {
		t.Errorf("unexpected content: %+v", contents[0])
	}
}

func TestMessagesToWireNoSystem(t *testing.T) {
	system, _ := messagesToWire([]chat.Message{chat.NewTextUserMessage("user", "hi")})
	if system != nil {
		t.Errorf("expected nil system instruction, got %+v", system)
	}
}

func TestMessagesToWireAssistantRoles(t *testing.T) {
	_, contents := messagesToWire([]chat.Message{
		chat.AssistantMessage{Content: "answer", Source: "assistant"},
		chat.AssistantMessage{
			Source: "assistant",
			FunctionCalls: []chat.FunctionCall{
				{ID: "x", Name: "lookup", Arguments: ""},
			},
		},
	})
	if contents[0].Role != "model" || contents[0].Parts[0].Text != "answer" {
		t.Errorf("unexpected text turn: %+v", contents[0])
	}
	fc := contents[1].Parts[0].FunctionCall
	if fc == nil || fc.Name != "lookup" {
		t.Fatalf("expected function call part, got %+v", contents[1].Parts[0])
	}
	if string(fc.Args) != "{}" {
		t.Errorf("expected {} default args, got %s", fc.Args)
	}
}

func TestMessagesToWireFunctionResults(t *testing.T) {
	_, contents := messagesToWire([]chat.Message{
		chat.FunctionExecutionResultMessage{Results: []chat.FunctionExecutionResult{
			{CallID: "1", Name: "lookup", Content: "42"},
			{CallID: "2", Name: "probe", Content: "boom", IsError: true},
		}},
	})
	if len(contents) != 1 || contents[0].Role != "user" {
		t.Fatalf("expected one user-role content, got %+v", contents)
	}
	parts := contents[0].Parts
	if parts[0].FunctionResponse.Name != "lookup" {
		t.Errorf("unexpected response name: %s", parts[0].FunctionResponse.Name)
	}
	if parts[0].FunctionResponse.Response["result"] != "42" {
		t.Errorf("unexpected result payload: %+v", parts[0].FunctionResponse.Response)
	}
	if parts[1].FunctionResponse.Response["error"] != "boom" {
		t.Errorf("errors key under error, got %+v", parts[1].FunctionResponse.Response)
	}
}

func TestImagePartInlineData(t *testing.T) {
	part := imagePart(chat.Image{Data: []byte{1, 2}, MIMEType: "image/jpeg"})
	if part.InlineData == nil {
		t.Fatal("expected inline data")
	}
	if part.InlineData.MIMEType != "image/jpeg" {
		t.Errorf("unexpected mime: %s", part.InlineData.MIMEType)
	}
	if part.InlineData.Data != base64.StdEncoding.EncodeToString([]byte{1, 2}) {
		t.Errorf("unexpected encoding: %s", part.InlineData.Data)
	}

	part = imagePart(chat.Image{URL: "gs://bucket/img.png"})
	if part.FileData == nil || part.FileData.FileURI != "gs://bucket/img.png" {
		t.Errorf("expected file data part, got %+v", part)
	}
}

func TestToolsToWireNarrowsSchema(t *testing.T) {
	tools := []chat.ToolSchema{{
		Name: "search",
		Parameters: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"$schema":              "http://json-schema.org/draft-07/schema#",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "what to search",
					"minLength":   1,
				},
			},
			"required": []any{"query"},
		},
	}}
	decls := toolsToWire(tools)
	if len(decls) != 1 || len(decls[0].FunctionDeclarations) != 1 {
		t.Fatalf("expected one declaration group, got %+v", decls)
	}
	params := decls[0].FunctionDeclarations[0].Parameters
	if _, ok := params["additionalProperties"]; ok {
		t.Error("additionalProperties must be stripped")
	}
	if _, ok := params["$schema"]; ok {
		t.Error("$schema must be stripped")
	}
	query := params["properties"].(map[string]any)["query"].(map[string]any)
	if _, ok := query["minLength"]; ok {
		t.Error("minLength must be stripped")
	}
	if query["type"] != "string" || query["description"] != "what to search" {
		t.Errorf("kept keywords lost: %+v", query)
	}
}

func TestMapFinishReason(t *testing.T) {
	tests := []struct {
		in   string
		want chat.FinishReason
	}{
		{"STOP", chat.FinishStop},
		{"MAX_TOKENS", chat.FinishLength},
		{"SAFETY", chat.FinishContentFilter},
		{"RECITATION", chat.FinishContentFilter},
		{"SPII", chat.FinishContentFilter},
		{"SOMETHING_ELSE", chat.FinishUnknown},
	}
	for _, tt := range tests {
		if got := mapFinishReason(tt.in); got != tt.want {
			t.Errorf("mapFinishReason(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestResultFromResponseText(t *testing.T) {
	resp := &GenerateResponse{
		Candidates: []Candidate{{
			Content:      Content{Role: "model", Parts: []Part{{Text: "Par"}, {Text: "is"}}},
			FinishReason: "STOP",
		}},
		UsageMetadata: &UsageMetadata{PromptTokenCount: 8, CandidatesTokenCount: 2},
	}
	result, err := resultFromResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "Paris" {
		t.Errorf("expected concatenated parts, got %q", result.Content)
	}
	if result.Usage.PromptTokens != 8 || result.Usage.CompletionTokens != 2 {
		t.Errorf("unexpected usage: %+v", result.Usage)
	}
}

func TestResultFromResponseFunctionCalls(t *testing.T) {
	resp := &GenerateResponse{
		Candidates: []Candidate{{
			Content: Content{Role: "model", Parts: []Part{
				{FunctionCall: &FunctionCall{Name: "get weather", Args: []byte(`{"city":"Paris"}`)}},
			}},
			FinishReason: "STOP",
		}},
	}
	result, err := resultFromResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinishReason != chat.FinishFunctionCalls {
		t.Errorf("expected function_calls finish, got %s", result.FinishReason)
	}
	call := result.FunctionCalls[0]
	if call.ID == "" {
		t.Error("expected minted call ID")
	}
	if call.Name != "get_weather" {
		t.Errorf("expected normalized name, got %q", call.Name)
	}
}

func TestResultFromResponseNoCandidates(t *testing.T) {
	_, err := resultFromResponse(&GenerateResponse{})
	var unsupported *chat.UnsupportedResponseError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedResponseError, got %v", err)
	}
}
