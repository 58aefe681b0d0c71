package openai

import (
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/modelfleet/modelfleet/chat"
	"github.com/modelfleet/modelfleet/internal/streaming"
)

// stream adapts the wire chunk stream to chat.Stream, reassembling deltas
// in arrival order and synthesizing the final result at transport EOF.
type stream struct {
	client   *Client
	chunks   ChunkStream
	asm      *streaming.Assembler
	span     trace.Span
	messages []chat.Message
	tools    []chat.ToolSchema

	usage     *chat.RequestUsage
	respModel string
	done      bool
	err       error
}

func newStream(c *Client, chunks ChunkStream, span trace.Span, messages []chat.Message, tools []chat.ToolSchema) *stream {
	return &stream{
		client:   c,
		chunks:   chunks,
		asm:      streaming.New(c.tolerance),
		span:     span,
		messages: messages,
		tools:    tools,
	}
}

func (s *stream) Next() (chat.StreamEvent, error) {
	if s.done {
		return chat.StreamEvent{}, io.EOF
	}
	if s.err != nil {
		return chat.StreamEvent{}, s.err
	}
	for {
		resp, err := s.chunks.Recv()
		if errors.Is(err, io.EOF) {
			return s.finish()
		}
		if err != nil {
			// Transport and cancellation errors propagate verbatim; no
			// partial result is synthesized.
			return chat.StreamEvent{}, s.fail(err)
		}

		if resp.Model != "" {
			s.respModel = resp.Model
		}
		if resp.Usage != nil {
			s.usage = &chat.RequestUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
			}
			if len(resp.Choices) == 0 {
				// The usage-only trailer is not an empty chunk.
				continue
			}
		}
		if len(resp.Choices) == 0 {
			if err := s.asm.NoteEmptyChunk(); err != nil {
				return chat.StreamEvent{}, s.fail(err)
			}
			continue
		}

		choice := resp.Choices[0]
		if choice.FinishReason == openai.FinishReasonFunctionCall {
			return chat.StreamEvent{}, s.fail(&chat.UnsupportedResponseError{Reason: "legacy function_call protocol"})
		}
		if choice.FinishReason != "" {
			s.asm.SetFinish(mapFinishReason(choice.FinishReason))
		}
		for _, tc := range choice.Delta.ToolCalls {
			index := 0
			if tc.Index != nil {
				index = *tc.Index
			}
			s.asm.AddToolCallDelta(index, tc.ID, tc.Function.Name, tc.Function.Arguments)
		}
		if choice.Delta.Content != "" {
			s.asm.AddText(choice.Delta.Content)
			return chat.StreamEvent{Delta: choice.Delta.Content}, nil
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
		result.Usage = s.estimateUsage(result)
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

// estimateUsage covers transports that end without a usage trailer.
func (s *stream) estimateUsage(result chat.CreateResult) chat.RequestUsage {
	completion := s.client.counter.countText(result.Content)
	for _, fc := range result.FunctionCalls {
		completion += s.client.counter.countText(fc.Name)
		completion += s.client.counter.countText(fc.Arguments)
	}
	return chat.RequestUsage{
		PromptTokens:     s.client.CountTokens(s.messages, s.tools),
		CompletionTokens: completion,
	}
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
