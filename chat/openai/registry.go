package openai

import "github.com/modelfleet/modelfleet/chat"

// Alias table mapping convenience names to pinned snapshots. Unknown names
// resolve to themselves.
var modelAliases = map[string]string{
	"gpt-4o":        "gpt-4o-2024-08-06",
	"gpt-4o-mini":   "gpt-4o-mini-2024-07-18",
	"gpt-4.1":       "gpt-4.1-2025-04-14",
	"gpt-4.1-mini":  "gpt-4.1-mini-2025-04-14",
	"gpt-4.1-nano":  "gpt-4.1-nano-2025-04-14",
	"gpt-4-turbo":   "gpt-4-turbo-2024-04-09",
	"gpt-4":         "gpt-4-0613",
	"gpt-3.5-turbo": "gpt-3.5-turbo-0125",
	"o1":            "o1-2024-12-17",
	"o1-mini":       "o1-mini-2024-09-12",
	"o3-mini":       "o3-mini-2025-01-31",
}

var modelInfos = map[string]chat.ModelInfo{
	"gpt-4o-2024-08-06":       {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGPT4O},
	"gpt-4o-2024-11-20":       {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGPT4O},
	"gpt-4o-2024-05-13":       {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGPT4O},
	"gpt-4o-mini-2024-07-18":  {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGPT4O},
	"gpt-4.1-2025-04-14":      {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGPT41},
	"gpt-4.1-mini-2025-04-14": {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGPT41},
	"gpt-4.1-nano-2025-04-14": {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGPT41},
	"gpt-4-turbo-2024-04-09":  {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGPT4},
	"gpt-4-0613":              {Vision: false, FunctionCalling: true, JSONOutput: false, Family: chat.FamilyGPT4},
	"gpt-3.5-turbo-0125":      {Vision: false, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGPT35},
	"o1-2024-12-17":           {Vision: true, FunctionCalling: false, JSONOutput: false, Family: chat.FamilyO1},
	"o1-mini-2024-09-12":      {Vision: false, FunctionCalling: false, JSONOutput: false, Family: chat.FamilyO1},
	"o3-mini-2025-01-31":      {Vision: false, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyO3},
}

var tokenLimits = map[string]int{
	"gpt-4o-2024-08-06":       128000,
	"gpt-4o-2024-11-20":       128000,
	"gpt-4o-2024-05-13":       128000,
	"gpt-4o-mini-2024-07-18":  128000,
	"gpt-4.1-2025-04-14":      1047576,
	"gpt-4.1-mini-2025-04-14": 1047576,
	"gpt-4.1-nano-2025-04-14": 1047576,
	"gpt-4-turbo-2024-04-09":  128000,
	"gpt-4-0613":              8192,
	"gpt-3.5-turbo-0125":      16385,
	"o1-2024-12-17":           200000,
	"o1-mini-2024-09-12":      128000,
	"o3-mini-2025-01-31":      200000,
}

// ResolveModel maps an alias to its canonical snapshot name, or returns the
// input unchanged when no alias is known.
func ResolveModel(name string) string {
	if canonical, ok := modelAliases[name]; ok {
		return canonical
	}
	return name
}

// Info returns the capability flags for a resolved model name. Unknown
// models fail closed with UnknownModelError.
func Info(name string) (chat.ModelInfo, error) {
	info, ok := modelInfos[name]
	if !ok {
		return chat.ModelInfo{}, &chat.UnknownModelError{Model: name}
	}
	return info, nil
}

// TokenLimit returns the context-window size for a resolved model name.
func TokenLimit(name string) (int, error) {
	limit, ok := tokenLimits[name]
	if !ok {
		return 0, &chat.UnknownModelError{Model: name}
	}
	return limit, nil
}
