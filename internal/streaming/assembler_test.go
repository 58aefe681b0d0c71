package streaming

import (
	"errors"
	"testing"

	"github.com/modelfleet/modelfleet/chat"
)

func TestAssemblerTextAccumulation(t *testing.T) {
	asm := New(0)
	asm.AddText("The capital ")
	asm.AddText("is ")
	asm.AddText("Paris.")
	asm.SetFinish(chat.FinishStop)

	result, err := asm.Finalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "The capital is Paris." {
		t.Errorf("expected full text, got %q", result.Content)
	}
	if result.FinishReason != chat.FinishStop {
		t.Errorf("expected stop finish, got %s", result.FinishReason)
	}
}

func TestAssemblerToolCallFragments(t *testing.T) {
	asm := New(0)
	asm.AddToolCallDelta(0, "call_1", "get_", "")
	asm.AddToolCallDelta(0, "", "weather", `{"city":`)
	asm.AddToolCallDelta(0, "", "", `"Paris"}`)
	asm.SetFinish(chat.FinishFunctionCalls)

	result, err := asm.Finalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.FunctionCalls) != 1 {
		t.Fatalf("expected one call, got %d", len(result.FunctionCalls))
	}
	call := result.FunctionCalls[0]
	if call.ID != "call_1" {
		t.Errorf("expected id call_1, got %q", call.ID)
	}
	if call.Name != "get_weather" {
		t.Errorf("expected name get_weather, got %q", call.Name)
	}
	if call.Arguments != `{"city":"Paris"}` {
		t.Errorf("expected concatenated args, got %q", call.Arguments)
	}
}

func TestAssemblerToolCallsWinOverText(t *testing.T) {
	asm := New(0)
	asm.AddText("thinking out loud")
	asm.AddToolCallDelta(0, "id", "do_thing", "{}")
	asm.SetFinish(chat.FinishStop)

	result, err := asm.Finalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "" {
		t.Errorf("expected empty content when tool calls present, got %q", result.Content)
	}
	if result.FinishReason != chat.FinishFunctionCalls {
		t.Errorf("expected function_calls finish, got %s", result.FinishReason)
	}
}

func TestAssemblerMultipleCallsKeepOrder(t *testing.T) {
	asm := New(0)
	asm.AddToolCallDelta(1, "b", "second", "{}")
	asm.AddToolCallDelta(0, "a", "first", "{}")
	asm.SetFinish(chat.FinishFunctionCalls)

	result, err := asm.Finalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.FunctionCalls) != 2 {
		t.Fatalf("expected two calls, got %d", len(result.FunctionCalls))
	}
	// First-seen order, not index order.
	if result.FunctionCalls[0].Name != "second" || result.FunctionCalls[1].Name != "first" {
		t.Errorf("unexpected order: %q, %q", result.FunctionCalls[0].Name, result.FunctionCalls[1].Name)
	}
}

func TestAssemblerEmptyArgumentsDefault(t *testing.T) {
	asm := New(0)
	asm.AddToolCallDelta(0, "id", "no_args", "")
	asm.SetFinish(chat.FinishFunctionCalls)

	result, err := asm.Finalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FunctionCalls[0].Arguments != "{}" {
		t.Errorf("expected {} default, got %q", result.FunctionCalls[0].Arguments)
	}
}

func TestAssemblerNormalizesProviderNames(t *testing.T) {
	asm := New(0)
	asm.AddToolCallDelta(0, "id", "bad name!", "{}")
	asm.SetFinish(chat.FinishFunctionCalls)

	result, err := asm.Finalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FunctionCalls[0].Name != "bad_name_" {
		t.Errorf("expected normalized name, got %q", result.FunctionCalls[0].Name)
	}
}

func TestAssemblerEmptyChunkToleranceZero(t *testing.T) {
	asm := New(0)
	err := asm.NoteEmptyChunk()
	var exceeded *chat.EmptyChunkExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected EmptyChunkExceededError, got %v", err)
	}
	if exceeded.Count != 1 || exceeded.Tolerance != 0 {
		t.Errorf("unexpected counts: %+v", exceeded)
	}
}

func TestAssemblerEmptyRunResetsOnContent(t *testing.T) {
	asm := New(2)
	if err := asm.NoteEmptyChunk(); err != nil {
		t.Fatalf("first empty chunk should pass: %v", err)
	}
	if err := asm.NoteEmptyChunk(); err != nil {
		t.Fatalf("second empty chunk should pass: %v", err)
	}
	asm.AddText("x")
	if err := asm.NoteEmptyChunk(); err != nil {
		t.Fatalf("run should have reset: %v", err)
	}
	if err := asm.NoteEmptyChunk(); err != nil {
		t.Fatalf("still within tolerance: %v", err)
	}
	if err := asm.NoteEmptyChunk(); err == nil {
		t.Fatal("expected tolerance exceeded")
	}
}

func TestAssemblerMissingFinishReason(t *testing.T) {
	asm := New(0)
	asm.AddText("partial")

	_, err := asm.Finalize()
	if !errors.Is(err, chat.ErrMissingFinishReason) {
		t.Fatalf("expected ErrMissingFinishReason, got %v", err)
	}
}
