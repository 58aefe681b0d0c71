package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/modelfleet/modelfleet/chat"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec.RecordUsage("openai", "gpt-4o-2024-08-06", chat.RequestUsage{PromptTokens: 10, CompletionTokens: 5})
	rec.RecordUsage("openai", "gpt-4o-2024-08-06", chat.RequestUsage{PromptTokens: 3, CompletionTokens: 2})
	rec.RecordUsage("ollama", "llama3.1:8b", chat.RequestUsage{PromptTokens: 7, CompletionTokens: 1})

	labels := prometheus.Labels{"provider": "openai", "model": "gpt-4o-2024-08-06"}
	if got := testutil.ToFloat64(rec.requests.With(labels)); got != 2 {
		t.Errorf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(rec.promptTokens.With(labels)); got != 13 {
		t.Errorf("expected 13 prompt tokens, got %v", got)
	}
	if got := testutil.ToFloat64(rec.completionTokens.With(labels)); got != 7 {
		t.Errorf("expected 7 completion tokens, got %v", got)
	}

	other := prometheus.Labels{"provider": "ollama", "model": "llama3.1:8b"}
	if got := testutil.ToFloat64(rec.requests.With(other)); got != 1 {
		t.Errorf("expected 1 request, got %v", got)
	}
}

func TestRecorderDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewRecorder(reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewRecorder(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
