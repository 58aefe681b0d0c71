package chat

import (
	"errors"
	"testing"
)

func TestValidateNamesRejectsBadToolName(t *testing.T) {
	tools := []ToolSchema{{Name: "bad name"}}
	err := ValidateNames(nil, tools)
	var nameErr *InvalidNameError
	if !errors.As(err, &nameErr) {
		t.Fatalf("expected InvalidNameError, got %v", err)
	}
	if nameErr.Name != "bad name" {
		t.Errorf("expected offending name in error, got %q", nameErr.Name)
	}
}

func TestValidateNamesRejectsBadSource(t *testing.T) {
	messages := []Message{
		NewTextUserMessage("user with space", "hello"),
	}
	if err := ValidateNames(messages, nil); err == nil {
		t.Fatal("expected error for invalid source")
	}

	messages = []Message{
		AssistantMessage{Content: "hi", Source: "a.b"},
	}
	if err := ValidateNames(messages, nil); err == nil {
		t.Fatal("expected error for invalid assistant source")
	}
}

func TestValidateNamesAcceptsSystemAndResults(t *testing.T) {
	messages := []Message{
		SystemMessage{Content: "be nice"},
		NewTextUserMessage("user", "hello"),
		AssistantMessage{Content: "hi", Source: "assistant"},
		FunctionExecutionResultMessage{Results: []FunctionExecutionResult{
			{CallID: "1", Content: "ok"},
		}},
	}
	tools := []ToolSchema{{Name: "get_weather"}}
	if err := ValidateNames(messages, tools); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCapabilitiesVision(t *testing.T) {
	info := ModelInfo{FunctionCalling: true, JSONOutput: true}
	messages := []Message{
		NewUserMessage("user", Text("look"), ImagePart{Image: Image{URL: "https://example.com/a.png"}}),
	}
	err := ValidateCapabilities("m", info, messages, nil, nil)
	var capErr *CapabilityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapabilityError, got %v", err)
	}
	if capErr.Capability != "vision" {
		t.Errorf("expected vision capability, got %q", capErr.Capability)
	}
}

func TestValidateCapabilitiesFunctionCalling(t *testing.T) {
	info := ModelInfo{Vision: true, JSONOutput: true}
	tools := []ToolSchema{{Name: "t"}}
	err := ValidateCapabilities("m", info, nil, tools, nil)
	var capErr *CapabilityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapabilityError, got %v", err)
	}
	if capErr.Capability != "function calling" {
		t.Errorf("expected function calling capability, got %q", capErr.Capability)
	}
}

func TestValidateCapabilitiesJSONOutput(t *testing.T) {
	info := ModelInfo{Vision: true, FunctionCalling: true}
	enabled := true
	err := ValidateCapabilities("m", info, nil, nil, &enabled)
	var capErr *CapabilityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapabilityError, got %v", err)
	}

	// Requesting JSON output disabled is always allowed.
	disabled := false
	if err := ValidateCapabilities("m", info, nil, nil, &disabled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateCapabilities("m", info, nil, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCapabilitiesAllGranted(t *testing.T) {
	info := ModelInfo{Vision: true, FunctionCalling: true, JSONOutput: true}
	enabled := true
	messages := []Message{
		NewUserMessage("user", ImagePart{Image: Image{URL: "https://example.com/a.png"}}),
	}
	tools := []ToolSchema{{Name: "t"}}
	if err := ValidateCapabilities("m", info, messages, tools, &enabled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
