// Package openai implements the chat.Client interface for the OpenAI and
// Azure OpenAI chat-completion APIs.
package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/modelfleet/modelfleet/chat"
)

const tracerName = "github.com/modelfleet/modelfleet/chat/openai"

// Config configures an OpenAI or Azure OpenAI client.
type Config struct {
	// Model is the requested model identifier. Aliases resolve to pinned
	// snapshots via the registry.
	Model string

	APIKey  string
	BaseURL string

	// Azure selects the Azure OpenAI endpoint shape; BaseURL is then the
	// resource endpoint and APIVersion the service API version.
	Azure      bool
	APIVersion string

	// ModelInfo bypasses the registry capability lookup for models the
	// registry does not know.
	ModelInfo *chat.ModelInfo

	// TokenLimit overrides the registry context-window size.
	TokenLimit int

	// DefaultArgs are baseline creation arguments merged into every call;
	// per-call extra args win on conflict.
	DefaultArgs map[string]any

	// EmptyChunkTolerance is the number of consecutive empty stream chunks
	// tolerated before the stream fails. Zero fails on the first.
	EmptyChunkTolerance int

	HTTPClient *http.Client

	// Transport overrides the SDK-backed default, mainly for tests.
	Transport Transport

	Logger   *slog.Logger
	Recorder chat.UsageRecorder
}

// Client is a chat.Client backed by the OpenAI chat-completion API.
type Client struct {
	transport   Transport
	model       string
	info        chat.ModelInfo
	tokenLimit  int
	defaultArgs map[string]any
	tolerance   int
	azure       bool
	logger      *slog.Logger
	tracer      trace.Tracer
	recorder    chat.UsageRecorder
	usage       chat.UsageTracker
	counter     *tokenCounter
}

var _ chat.Client = (*Client)(nil)

// New resolves the model, consults the registry, and builds a client.
// Unknown models fail here with UnknownModelError unless Config.ModelInfo is
// supplied.
func New(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, &chat.UnknownModelError{Model: ""}
	}
	model := ResolveModel(cfg.Model)

	info := chat.ModelInfo{}
	if cfg.ModelInfo != nil {
		info = *cfg.ModelInfo
	} else {
		var err error
		info, err = Info(model)
		if err != nil {
			return nil, err
		}
	}

	limit := cfg.TokenLimit
	if limit <= 0 {
		var err error
		limit, err = TokenLimit(model)
		if err != nil {
			if cfg.ModelInfo == nil {
				return nil, err
			}
			// Capability override without a limit: fall back to a small
			// window so RemainingTokens stays conservative.
			limit = defaultTokenLimit
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = newSDKTransport(cfg)
	}

	return &Client{
		transport:   transport,
		model:       model,
		info:        info,
		tokenLimit:  limit,
		defaultArgs: cfg.DefaultArgs,
		tolerance:   cfg.EmptyChunkTolerance,
		azure:       cfg.Azure,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
		recorder:    cfg.Recorder,
		counter:     newTokenCounter(model),
	}, nil
}

// Model returns the resolved canonical model name.
func (c *Client) Model() string { return c.model }

// ActualUsage returns the usage of the most recent call.
func (c *Client) ActualUsage() chat.RequestUsage { return c.usage.Actual() }

// TotalUsage returns the accumulated usage across all calls.
func (c *Client) TotalUsage() chat.RequestUsage { return c.usage.Total() }

// Create issues one blocking completion call.
func (c *Client) Create(ctx context.Context, messages []chat.Message, opts ...chat.CreateOption) (chat.CreateResult, error) {
	o := chat.BuildCreateOptions(opts)
	if err := c.precheck(messages, o); err != nil {
		return chat.CreateResult{}, err
	}
	req := c.buildRequest(messages, o, false)

	ctx, span := c.tracer.Start(ctx, "chat.create", trace.WithAttributes(
		attribute.String("gen_ai.system", c.providerName()),
		attribute.String("gen_ai.request.model", c.model),
	))
	defer span.End()

	resp, err := c.transport.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return chat.CreateResult{}, err
	}
	c.warnOnModelMismatch(resp.Model)

	result, err := resultFromResponse(resp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return chat.CreateResult{}, err
	}
	c.warnOnMalformedArguments(result.FunctionCalls)
	c.recordUsage(result.Usage)
	span.SetAttributes(
		attribute.Int("gen_ai.usage.input_tokens", result.Usage.PromptTokens),
		attribute.Int("gen_ai.usage.output_tokens", result.Usage.CompletionTokens),
		attribute.String("gen_ai.response.finish_reason", string(result.FinishReason)),
	)
	return result, nil
}

// CreateStream issues a streaming completion call. The returned stream
// yields text deltas as they arrive and terminates with one final
// CreateResult.
func (c *Client) CreateStream(ctx context.Context, messages []chat.Message, opts ...chat.CreateOption) (chat.Stream, error) {
	o := chat.BuildCreateOptions(opts)
	if err := c.precheck(messages, o); err != nil {
		return nil, err
	}
	req := c.buildRequest(messages, o, true)

	ctx, span := c.tracer.Start(ctx, "chat.create_stream", trace.WithAttributes(
		attribute.String("gen_ai.system", c.providerName()),
		attribute.String("gen_ai.request.model", c.model),
	))

	chunks, err := c.transport.Stream(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, err
	}
	return newStream(c, chunks, span, messages, o.Tools), nil
}

func (c *Client) precheck(messages []chat.Message, o chat.CreateOptions) error {
	if err := chat.ValidateNames(messages, o.Tools); err != nil {
		return err
	}
	return chat.ValidateCapabilities(c.model, c.info, messages, o.Tools, o.JSONOutput)
}

func (c *Client) buildRequest(messages []chat.Message, o chat.CreateOptions, stream bool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messagesToWire(messages),
	}
	if len(o.Tools) > 0 {
		req.Tools = toolsToWire(o.Tools)
	}
	if o.JSONOutput != nil && *o.JSONOutput {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	applyArgs(&req, chat.MergeArgs(c.defaultArgs, o.ExtraArgs))
	if stream {
		req.Stream = true
		req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	return req
}

func (c *Client) providerName() string {
	if c.azure {
		return "azure"
	}
	return "openai"
}

func (c *Client) recordUsage(u chat.RequestUsage) {
	c.usage.Record(u)
	if c.recorder != nil {
		c.recorder.RecordUsage(c.providerName(), c.model, u)
	}
}

// warnOnModelMismatch flags a provider answering with a different model than
// requested. A compatibility signal, not an error.
func (c *Client) warnOnModelMismatch(responded string) {
	if responded != "" && responded != c.model {
		c.logger.Warn("resolved model does not match model returned by provider",
			"requested", c.model,
			"returned", responded,
		)
	}
}

func (c *Client) warnOnMalformedArguments(calls []chat.FunctionCall) {
	for _, fc := range calls {
		if !gjson.Valid(fc.Arguments) {
			c.logger.Warn("tool call arguments are not valid JSON",
				"call_id", fc.ID,
				"name", fc.Name,
			)
		}
	}
}

// applyArgs copies recognized creation arguments from the merged argument
// map onto the wire request. Numeric values arrive as either int or float64
// depending on whether they came from Go literals or decoded config.
func applyArgs(req *openai.ChatCompletionRequest, args map[string]any) {
	for key, value := range args {
		switch key {
		case "temperature":
			req.Temperature = floatArg(value)
		case "top_p":
			req.TopP = floatArg(value)
		case "max_tokens":
			req.MaxTokens = intArg(value)
		case "frequency_penalty":
			req.FrequencyPenalty = floatArg(value)
		case "presence_penalty":
			req.PresencePenalty = floatArg(value)
		case "seed":
			seed := intArg(value)
			req.Seed = &seed
		case "user":
			if s, ok := value.(string); ok {
				req.User = s
			}
		case "stop":
			req.Stop = stringSliceArg(value)
		case "logprobs":
			if b, ok := value.(bool); ok {
				req.LogProbs = b
			}
		case "top_logprobs":
			req.TopLogProbs = intArg(value)
		case "response_format":
			switch rf := value.(type) {
			case string:
				if rf == "text" {
					req.ResponseFormat = &openai.ChatCompletionResponseFormat{
						Type: openai.ChatCompletionResponseFormatTypeText,
					}
				}
			case map[string]any:
				req.ResponseFormat = jsonSchemaFormat(rf)
			}
		case "parallel_tool_calls":
			if b, ok := value.(bool); ok {
				req.ParallelToolCalls = b
			}
		}
	}
}

// jsonSchemaFormat builds a json_schema response format from a caller
// supplied argument map. The map is the json_schema object itself (name,
// schema, optional description and strict); a full wire-shaped wrapper with
// a "json_schema" key is unwrapped first.
func jsonSchemaFormat(arg map[string]any) *openai.ChatCompletionResponseFormat {
	if inner, ok := arg["json_schema"].(map[string]any); ok {
		arg = inner
	}
	js := &openai.ChatCompletionResponseFormatJSONSchema{}
	if name, ok := arg["name"].(string); ok {
		js.Name = name
	}
	if desc, ok := arg["description"].(string); ok {
		js.Description = desc
	}
	if strict, ok := arg["strict"].(bool); ok {
		js.Strict = strict
	}
	if schema, ok := arg["schema"]; ok {
		if raw, err := json.Marshal(schema); err == nil {
			js.Schema = json.RawMessage(raw)
		}
	}
	return &openai.ChatCompletionResponseFormat{
		Type:       openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: js,
	}
}

func floatArg(v any) float32 {
	switch n := v.(type) {
	case float64:
		return float32(n)
	case float32:
		return n
	case int:
		return float32(n)
	}
	return 0
}

func intArg(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func stringSliceArg(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case string:
		return []string{s}
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
