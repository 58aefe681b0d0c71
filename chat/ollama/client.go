// Package ollama implements the chat.Client interface for the native Ollama
// /api/chat endpoint.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/modelfleet/modelfleet/chat"
	"github.com/modelfleet/modelfleet/internal/streaming"
)

const tracerName = "github.com/modelfleet/modelfleet/chat/ollama"

// Config configures an Ollama client.
type Config struct {
	Model   string
	BaseURL string

	ModelInfo  *chat.ModelInfo
	TokenLimit int

	DefaultArgs         map[string]any
	EmptyChunkTolerance int

	HTTPClient *http.Client
	MaxRetries uint
	Transport  Transport

	Logger   *slog.Logger
	Recorder chat.UsageRecorder
}

// Client is a chat.Client backed by a local or remote Ollama server.
type Client struct {
	transport   Transport
	model       string
	info        chat.ModelInfo
	tokenLimit  int
	defaultArgs map[string]any
	tolerance   int
	logger      *slog.Logger
	tracer      trace.Tracer
	recorder    chat.UsageRecorder
	usage       chat.UsageTracker
}

var _ chat.Client = (*Client)(nil)

// New resolves the model against the registry and builds a client. Unknown
// models fail here unless Config.ModelInfo is supplied; local installs often
// carry custom tags, so the override path is common for this provider.
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
			limit = 4096
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	transport := cfg.Transport
	if transport == nil {
		transport = newHTTPTransport(cfg)
	}

	return &Client{
		transport:   transport,
		model:       model,
		info:        info,
		tokenLimit:  limit,
		defaultArgs: cfg.DefaultArgs,
		tolerance:   cfg.EmptyChunkTolerance,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
		recorder:    cfg.Recorder,
	}, nil
}

// Model returns the resolved canonical model name.
func (c *Client) Model() string { return c.model }

// ActualUsage returns the usage of the most recent call.
func (c *Client) ActualUsage() chat.RequestUsage { return c.usage.Actual() }

// TotalUsage returns the accumulated usage across all calls.
func (c *Client) TotalUsage() chat.RequestUsage { return c.usage.Total() }

// Create issues one blocking chat call.
func (c *Client) Create(ctx context.Context, messages []chat.Message, opts ...chat.CreateOption) (chat.CreateResult, error) {
	o := chat.BuildCreateOptions(opts)
	if err := c.precheck(messages, o); err != nil {
		return chat.CreateResult{}, err
	}
	req, err := c.buildRequest(messages, o)
	if err != nil {
		return chat.CreateResult{}, err
	}

	ctx, span := c.tracer.Start(ctx, "chat.create", trace.WithAttributes(
		attribute.String("gen_ai.system", "ollama"),
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

// CreateStream issues a streaming chat call over NDJSON.
func (c *Client) CreateStream(ctx context.Context, messages []chat.Message, opts ...chat.CreateOption) (chat.Stream, error) {
	o := chat.BuildCreateOptions(opts)
	if err := c.precheck(messages, o); err != nil {
		return nil, err
	}
	req, err := c.buildRequest(messages, o)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "chat.create_stream", trace.WithAttributes(
		attribute.String("gen_ai.system", "ollama"),
		attribute.String("gen_ai.request.model", c.model),
	))

	chunks, err := c.transport.Stream(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, err
	}
	return &stream{
		client:   c,
		chunks:   chunks,
		asm:      streaming.New(c.tolerance),
		span:     span,
		messages: messages,
		tools:    o.Tools,
	}, nil
}

func (c *Client) precheck(messages []chat.Message, o chat.CreateOptions) error {
	if err := chat.ValidateNames(messages, o.Tools); err != nil {
		return err
	}
	return chat.ValidateCapabilities(c.model, c.info, messages, o.Tools, o.JSONOutput)
}

func (c *Client) buildRequest(messages []chat.Message, o chat.CreateOptions) (ChatRequest, error) {
	wire, err := messagesToWire(messages)
	if err != nil {
		return ChatRequest{}, err
	}
	req := ChatRequest{
		Model:    c.model,
		Messages: wire,
	}
	if len(o.Tools) > 0 {
		req.Tools = toolsToWire(o.Tools)
	}
	if o.JSONOutput != nil && *o.JSONOutput {
		req.Format = "json"
	}
	// Sampling parameters ride in the options map with the server's own
	// naming (num_predict, not max_tokens).
	merged := chat.MergeArgs(c.defaultArgs, o.ExtraArgs)
	if len(merged) > 0 {
		options := make(map[string]any, len(merged))
		for key, value := range merged {
			switch key {
			case "max_tokens":
				options["num_predict"] = value
			default:
				options[key] = value
			}
		}
		req.Options = options
	}
	return req, nil
}

// CountTokens estimates the token cost of the input with a character-length
// heuristic; the server meters with the model's own tokenizer. Never fails.
func (c *Client) CountTokens(messages []chat.Message, tools []chat.ToolSchema) int {
	total := 0
	for _, m := range messages {
		switch msg := m.(type) {
		case chat.SystemMessage:
			total += len(msg.Content) / 4
		case chat.UserMessage:
			for _, p := range msg.Content {
				switch part := p.(type) {
				case chat.TextPart:
					total += len(part.Text) / 4
				case chat.ImagePart:
					total += len(part.Image.Data) / 1024
				}
			}
		case chat.AssistantMessage:
			total += len(msg.Content) / 4
			for _, fc := range msg.FunctionCalls {
				total += (len(fc.Name) + len(fc.Arguments)) / 4
			}
		case chat.FunctionExecutionResultMessage:
			for _, r := range msg.Results {
				total += len(r.Content) / 4
			}
		}
	}
	for _, t := range tools {
		total += (len(t.Name) + len(t.Description)) / 4
		if raw, err := json.Marshal(t.Parameters); err == nil {
			total += len(raw) / 4
		}
	}
	return total
}

// RemainingTokens returns the context headroom, clamped to zero since the
// count is only an estimate.
func (c *Client) RemainingTokens(messages []chat.Message, tools []chat.ToolSchema) int {
	remaining := c.tokenLimit - c.CountTokens(messages, tools)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *Client) recordUsage(u chat.RequestUsage) {
	c.usage.Record(u)
	if c.recorder != nil {
		c.recorder.RecordUsage("ollama", c.model, u)
	}
}

func (c *Client) warnOnModelMismatch(responded string) {
	if responded != "" && ResolveModel(responded) != c.model {
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

// stream adapts the NDJSON chunk stream to chat.Stream. Tool calls arrive
// whole in a single chunk; the done chunk carries the finish reason and
// eval counts.
type stream struct {
	client   *Client
	chunks   ChunkStream
	asm      *streaming.Assembler
	span     trace.Span
	messages []chat.Message
	tools    []chat.ToolSchema

	usage     *chat.RequestUsage
	respModel string
	nextIndex int
	done      bool
	err       error
}

func (s *stream) Next() (chat.StreamEvent, error) {
	if s.done {
		return chat.StreamEvent{}, io.EOF
	}
	if s.err != nil {
		return chat.StreamEvent{}, s.err
	}
	for {
		chunk, err := s.chunks.Recv()
		if errors.Is(err, io.EOF) {
			return s.finish()
		}
		if err != nil {
			return chat.StreamEvent{}, s.fail(err)
		}
		if chunk.Model != "" {
			s.respModel = chunk.Model
		}

		for _, tc := range chunk.Message.ToolCalls {
			s.asm.AddToolCallDelta(s.nextIndex, newCallID(), tc.Function.Name, string(tc.Function.Arguments))
			s.nextIndex++
		}

		if chunk.Done {
			s.asm.SetFinish(mapFinishReason(chunk.DoneReason))
			s.usage = &chat.RequestUsage{
				PromptTokens:     chunk.PromptEvalCount,
				CompletionTokens: chunk.EvalCount,
			}
			if chunk.Message.Content != "" {
				s.asm.AddText(chunk.Message.Content)
				return chat.StreamEvent{Delta: chunk.Message.Content}, nil
			}
			continue
		}

		if chunk.Message.Content == "" && len(chunk.Message.ToolCalls) == 0 {
			if err := s.asm.NoteEmptyChunk(); err != nil {
				return chat.StreamEvent{}, s.fail(err)
			}
			continue
		}
		if chunk.Message.Content != "" {
			s.asm.AddText(chunk.Message.Content)
			return chat.StreamEvent{Delta: chunk.Message.Content}, nil
		}
	}
}

func (s *stream) finish() (chat.StreamEvent, error) {
	result, err := s.asm.Finalize()
	if err != nil {
		return chat.StreamEvent{}, s.fail(err)
	}
	if s.usage != nil {
		result.Usage = *s.usage
	} else {
		result.Usage = chat.RequestUsage{
			PromptTokens:     s.client.CountTokens(s.messages, s.tools),
			CompletionTokens: len(result.Content) / 4,
		}
	}
	s.client.warnOnModelMismatch(s.respModel)
	s.client.warnOnMalformedArguments(result.FunctionCalls)
	s.client.recordUsage(result.Usage)

	s.span.SetAttributes(
		attribute.Int("gen_ai.usage.input_tokens", result.Usage.PromptTokens),
		attribute.Int("gen_ai.usage.output_tokens", result.Usage.CompletionTokens),
		attribute.String("gen_ai.response.finish_reason", string(result.FinishReason)),
	)
	s.span.End()
	s.done = true
	return chat.StreamEvent{Result: &result}, nil
}

func (s *stream) fail(err error) error {
	s.err = err
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
	s.span.End()
	return err
}

func (s *stream) Close() error {
	if !s.done && s.err == nil {
		s.span.End()
	}
	return s.chunks.Close()
}
