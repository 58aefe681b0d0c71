package openai

import (
	"errors"
	"testing"

	"github.com/modelfleet/modelfleet/chat"
)

func TestResolveModel(t *testing.T) {
	if got := ResolveModel("gpt-4o"); got != "gpt-4o-2024-08-06" {
		t.Errorf("expected alias resolution, got %s", got)
	}
	// Pinned snapshots and unknown names pass through.
	if got := ResolveModel("gpt-4o-2024-08-06"); got != "gpt-4o-2024-08-06" {
		t.Errorf("expected passthrough, got %s", got)
	}
	if got := ResolveModel("my-finetune"); got != "my-finetune" {
		t.Errorf("expected passthrough, got %s", got)
	}
}

func TestInfo(t *testing.T) {
	info, err := Info("gpt-4o-2024-08-06")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.Vision || !info.FunctionCalling || !info.JSONOutput {
		t.Errorf("unexpected capabilities: %+v", info)
	}
	if info.Family != chat.FamilyGPT4O {
		t.Errorf("expected gpt-4o family, got %s", info.Family)
	}

	// o1-mini has no vision and no tool support.
	info, err = Info("o1-mini-2024-09-12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Vision || info.FunctionCalling {
		t.Errorf("unexpected capabilities: %+v", info)
	}
}

func TestInfoUnknownModel(t *testing.T) {
	_, err := Info("nope")
	var unknown *chat.UnknownModelError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownModelError, got %v", err)
	}
	if unknown.Model != "nope" {
		t.Errorf("expected model name in error, got %q", unknown.Model)
	}
}

func TestTokenLimit(t *testing.T) {
	limit, err := TokenLimit("gpt-4-0613")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 8192 {
		t.Errorf("expected 8192, got %d", limit)
	}
	if _, err := TokenLimit("nope"); err == nil {
		t.Fatal("expected error for unknown model")
	}
}

func TestEveryAliasHasInfoAndLimit(t *testing.T) {
	for alias, canonical := range modelAliases {
		if _, err := Info(canonical); err != nil {
			t.Errorf("alias %s resolves to %s which has no info", alias, canonical)
		}
		if _, err := TokenLimit(canonical); err != nil {
			t.Errorf("alias %s resolves to %s which has no token limit", alias, canonical)
		}
	}
}
