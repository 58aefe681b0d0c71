package chat

import "context"

// ModelFamily groups models that share generation behavior.
type ModelFamily string

const (
	FamilyGPT4O    ModelFamily = "gpt-4o"
	FamilyGPT4     ModelFamily = "gpt-4"
	FamilyGPT41    ModelFamily = "gpt-4.1"
	FamilyGPT35    ModelFamily = "gpt-3.5"
	FamilyO1       ModelFamily = "o1"
	FamilyO3       ModelFamily = "o3"
	FamilyGemini15 ModelFamily = "gemini-1.5"
	FamilyGemini20 ModelFamily = "gemini-2.0"
	FamilyGemini25 ModelFamily = "gemini-2.5"
	FamilyLlama    ModelFamily = "llama"
	FamilyMistral  ModelFamily = "mistral"
	FamilyQwen     ModelFamily = "qwen"
	FamilyGemma    ModelFamily = "gemma"
	FamilyUnknown  ModelFamily = "unknown"
)

// ModelInfo describes the capabilities of a resolved model. Registries ship
// static tables of these; callers may override the registry entry at client
// construction time.
type ModelInfo struct {
	Vision          bool
	FunctionCalling bool
	JSONOutput      bool
	Family          ModelFamily
}

// RequestUsage counts tokens consumed by a request.
type RequestUsage struct {
	PromptTokens     int
	CompletionTokens int
}

// Add returns the element-wise sum of two usages.
func (u RequestUsage) Add(other RequestUsage) RequestUsage {
	return RequestUsage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
	}
}

// FinishReason is the canonical reason generation stopped.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishFunctionCalls FinishReason = "function_calls"
	FinishContentFilter FinishReason = "content_filter"
	FinishUnknown       FinishReason = "unknown"
)

// TokenLogprob is the log probability of one generated token.
type TokenLogprob struct {
	Token   string
	Logprob float64
}

// CreateResult is the uniform outcome of a completion call. Content and
// FunctionCalls are mutually exclusive: FinishReason is FinishFunctionCalls
// exactly when FunctionCalls is non-empty.
type CreateResult struct {
	Content       string
	FunctionCalls []FunctionCall
	FinishReason  FinishReason
	Usage         RequestUsage
	Cached        bool
	Logprobs      []TokenLogprob
}

// StreamEvent is one element of a streaming completion: an incremental text
// delta, or the full CreateResult. The result appears exactly once, as the
// final element.
type StreamEvent struct {
	Delta  string
	Result *CreateResult
}

// Stream is a finite, pull-based sequence of StreamEvents. Next returns
// io.EOF after the final result event has been delivered. A Stream is not
// restartable and must be closed when abandoned early.
type Stream interface {
	Next() (StreamEvent, error)
	Close() error
}

// Client is a chat-completion client for one provider and model.
//
// Create and CreateStream validate requested capabilities against the model
// before issuing any transport call and propagate transport errors verbatim.
// CountTokens and RemainingTokens are best-effort and never fail.
type Client interface {
	Create(ctx context.Context, messages []Message, opts ...CreateOption) (CreateResult, error)
	CreateStream(ctx context.Context, messages []Message, opts ...CreateOption) (Stream, error)

	CountTokens(messages []Message, tools []ToolSchema) int
	RemainingTokens(messages []Message, tools []ToolSchema) int

	ActualUsage() RequestUsage
	TotalUsage() RequestUsage

	// Model returns the resolved canonical model name.
	Model() string
}

// CreateOptions collects the per-call parameters of Create and CreateStream.
type CreateOptions struct {
	Tools      []ToolSchema
	JSONOutput *bool
	ExtraArgs  map[string]any
}

// CreateOption configures a single Create or CreateStream call.
type CreateOption func(*CreateOptions)

// WithTools declares the tools the model may call.
func WithTools(tools ...ToolSchema) CreateOption {
	return func(o *CreateOptions) { o.Tools = append(o.Tools, tools...) }
}

// WithJSONOutput asks the provider to emit parseable JSON.
func WithJSONOutput(enabled bool) CreateOption {
	return func(o *CreateOptions) { o.JSONOutput = &enabled }
}

// WithExtraArgs merges provider-specific request arguments into this call.
// Per-call keys win over the client's baseline arguments.
func WithExtraArgs(args map[string]any) CreateOption {
	return func(o *CreateOptions) {
		if o.ExtraArgs == nil {
			o.ExtraArgs = make(map[string]any, len(args))
		}
		for k, v := range args {
			o.ExtraArgs[k] = v
		}
	}
}

// BuildCreateOptions folds a list of options into a CreateOptions value.
func BuildCreateOptions(opts []CreateOption) CreateOptions {
	var o CreateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// MergeArgs overlays call args onto baseline args; call keys win on conflict.
func MergeArgs(baseline, call map[string]any) map[string]any {
	merged := make(map[string]any, len(baseline)+len(call))
	for k, v := range baseline {
		merged[k] = v
	}
	for k, v := range call {
		merged[k] = v
	}
	return merged
}

// UsageRecorder receives per-call usage figures, e.g. for metrics export.
type UsageRecorder interface {
	RecordUsage(provider, model string, usage RequestUsage)
}
