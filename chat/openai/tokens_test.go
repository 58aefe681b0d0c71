package openai

import (
	"strings"
	"testing"

	"github.com/modelfleet/modelfleet/chat"
)

func newTestCountingClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Config{Model: "gpt-4o", Transport: &mockTransport{}})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	return client
}

func TestCountTokensNeverZeroForNonEmptyInput(t *testing.T) {
	client := newTestCountingClient(t)
	messages := []chat.Message{chat.NewTextUserMessage("user", "hello world")}
	if got := client.CountTokens(messages, nil); got <= 0 {
		t.Errorf("expected positive count, got %d", got)
	}
}

func TestCountTokensMonotonicInContent(t *testing.T) {
	client := newTestCountingClient(t)
	short := []chat.Message{chat.NewTextUserMessage("user", "hi")}
	long := []chat.Message{chat.NewTextUserMessage("user", strings.Repeat("some longer text ", 50))}
	if client.CountTokens(long, nil) <= client.CountTokens(short, nil) {
		t.Error("expected longer input to count more tokens")
	}
}

func TestCountTokensToolsAddCost(t *testing.T) {
	client := newTestCountingClient(t)
	messages := []chat.Message{chat.NewTextUserMessage("user", "hi")}
	tools := []chat.ToolSchema{{
		Name:        "get_weather",
		Description: "weather lookup",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{"type": "string", "description": "city name"},
				"unit": map[string]any{"type": "string", "enum": []any{"celsius", "fahrenheit"}},
			},
		},
	}}
	without := client.CountTokens(messages, nil)
	with := client.CountTokens(messages, tools)
	// Per-tool and per-schema overhead alone is 23 tokens.
	if with < without+tokensPerTool+toolSchemaSetup {
		t.Errorf("expected tool overhead of at least %d, got %d over %d",
			tokensPerTool+toolSchemaSetup, with, without)
	}
}

func TestCountTokensResultsFanOut(t *testing.T) {
	client := newTestCountingClient(t)
	one := []chat.Message{chat.FunctionExecutionResultMessage{Results: []chat.FunctionExecutionResult{
		{CallID: "a", Content: "x"},
	}}}
	two := []chat.Message{chat.FunctionExecutionResultMessage{Results: []chat.FunctionExecutionResult{
		{CallID: "a", Content: "x"},
		{CallID: "b", Content: "x"},
	}}}
	// The second result carries its own per-message overhead.
	if client.CountTokens(two, nil)-client.CountTokens(one, nil) < tokensPerMessage {
		t.Error("expected each result to add per-message overhead")
	}
}

func TestRemainingTokensClamped(t *testing.T) {
	client, err := New(Config{
		Model:     "gpt-4o",
		ModelInfo: &chat.ModelInfo{Vision: true, FunctionCalling: true, JSONOutput: true},
		// A limit so small any input exceeds it.
		TokenLimit: 1,
		Transport:  &mockTransport{},
	})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	messages := []chat.Message{chat.NewTextUserMessage("user", strings.Repeat("words ", 100))}
	if got := client.RemainingTokens(messages, nil); got != 0 {
		t.Errorf("expected clamp to zero, got %d", got)
	}
}

func TestImageTokensLowDetail(t *testing.T) {
	img := chat.Image{Detail: chat.ImageDetailLow, Width: 4096, Height: 4096}
	if got := imageTokens(img); got != 85 {
		t.Errorf("expected flat 85 for low detail, got %d", got)
	}
}

func TestImageTokensTiling(t *testing.T) {
	tests := []struct {
		name string
		img  chat.Image
		want int
	}{
		// 512x512 is a single tile.
		{"single tile", chat.Image{Width: 512, Height: 512}, 85 + 170},
		// Unknown dimensions assume one tile.
		{"unknown dims", chat.Image{}, 85 + 170},
		// 1024x1024 scales to 768x768: 2x2 tiles.
		{"square 1024", chat.Image{Width: 1024, Height: 1024}, 85 + 170*4},
		// 2048x4096 clamps to 1024x2048, then scales to 768x1536: 2x3 tiles.
		{"tall 2048x4096", chat.Image{Width: 2048, Height: 4096}, 85 + 170*6},
	}
	for _, tt := range tests {
		if got := imageTokens(tt.img); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestCountTokensIncludesImages(t *testing.T) {
	client := newTestCountingClient(t)
	textOnlyMsgs := []chat.Message{chat.NewTextUserMessage("user", "hi")}
	withImage := []chat.Message{chat.NewUserMessage("user",
		chat.Text("hi"),
		chat.ImagePart{Image: chat.Image{Width: 512, Height: 512}},
	)}
	diff := client.CountTokens(withImage, nil) - client.CountTokens(textOnlyMsgs, nil)
	if diff != 85+170 {
		t.Errorf("expected image to add 255 tokens, got %d", diff)
	}
}
