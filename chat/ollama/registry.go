package ollama

import (
	"strings"

	"github.com/modelfleet/modelfleet/chat"
)

var modelAliases = map[string]string{
	"llama3.1": "llama3.1:8b",
	"llama3.2": "llama3.2:3b",
	"llama3.3": "llama3.3:70b",
	"mistral":  "mistral:7b",
	"qwen2.5":  "qwen2.5:7b",
	"gemma2":   "gemma2:9b",
	"llava":    "llava:7b",
}

var modelInfos = map[string]chat.ModelInfo{
	"llama3.1:8b":         {Vision: false, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyLlama},
	"llama3.1:70b":        {Vision: false, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyLlama},
	"llama3.2:1b":         {Vision: false, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyLlama},
	"llama3.2:3b":         {Vision: false, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyLlama},
	"llama3.2-vision:11b": {Vision: true, FunctionCalling: false, JSONOutput: true, Family: chat.FamilyLlama},
	"llama3.3:70b":        {Vision: false, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyLlama},
	"mistral:7b":          {Vision: false, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyMistral},
	"qwen2.5:7b":          {Vision: false, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyQwen},
	"qwen2.5:72b":         {Vision: false, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyQwen},
	"gemma2:9b":           {Vision: false, FunctionCalling: false, JSONOutput: true, Family: chat.FamilyGemma},
	"llava:7b":            {Vision: true, FunctionCalling: false, JSONOutput: true, Family: chat.FamilyLlama},
}

var tokenLimits = map[string]int{
	"llama3.1:8b":         128000,
	"llama3.1:70b":        128000,
	"llama3.2:1b":         128000,
	"llama3.2:3b":         128000,
	"llama3.2-vision:11b": 128000,
	"llama3.3:70b":        128000,
	"mistral:7b":          32768,
	"qwen2.5:7b":          131072,
	"qwen2.5:72b":         131072,
	"gemma2:9b":           8192,
	"llava:7b":            4096,
}

// ResolveModel maps a bare model name to its default tag and strips the
// ":latest" suffix, identity otherwise.
func ResolveModel(name string) string {
	name = strings.TrimSuffix(name, ":latest")
	if canonical, ok := modelAliases[name]; ok {
		return canonical
	}
	return name
}

// Info returns capability flags for a resolved model; unknown models fail
// closed.
func Info(name string) (chat.ModelInfo, error) {
	info, ok := modelInfos[name]
	if !ok {
		return chat.ModelInfo{}, &chat.UnknownModelError{Model: name}
	}
	return info, nil
}

// TokenLimit returns the context-window size for a resolved model.
func TokenLimit(name string) (int, error) {
	limit, ok := tokenLimits[name]
	if !ok {
		return 0, &chat.UnknownModelError{Model: name}
	}
	return limit, nil
}
