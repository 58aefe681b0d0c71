package gemini

import "github.com/modelfleet/modelfleet/chat"

var modelAliases = map[string]string{
	"gemini-1.5-flash":    "gemini-1.5-flash-002",
	"gemini-1.5-flash-8b": "gemini-1.5-flash-8b-001",
	"gemini-1.5-pro":      "gemini-1.5-pro-002",
	"gemini-2.0-flash":    "gemini-2.0-flash-001",
	"gemini-2.5-pro":      "gemini-2.5-pro-preview-05-06",
	"gemini-2.5-flash":    "gemini-2.5-flash-preview-05-20",
}

var modelInfos = map[string]chat.ModelInfo{
	"gemini-1.5-flash-002":           {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGemini15},
	"gemini-1.5-flash-8b-001":        {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGemini15},
	"gemini-1.5-pro-002":             {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGemini15},
	"gemini-2.0-flash-001":           {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGemini20},
	"gemini-2.0-flash-lite-001":      {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGemini20},
	"gemini-2.5-pro-preview-05-06":   {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGemini25},
	"gemini-2.5-flash-preview-05-20": {Vision: true, FunctionCalling: true, JSONOutput: true, Family: chat.FamilyGemini25},
}

var tokenLimits = map[string]int{
	"gemini-1.5-flash-002":           1048576,
	"gemini-1.5-flash-8b-001":        1048576,
	"gemini-1.5-pro-002":             2097152,
	"gemini-2.0-flash-001":           1048576,
	"gemini-2.0-flash-lite-001":      1048576,
	"gemini-2.5-pro-preview-05-06":   1048576,
	"gemini-2.5-flash-preview-05-20": 1048576,
}

// ResolveModel maps an alias to its pinned version, identity if unknown.
func ResolveModel(name string) string {
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
