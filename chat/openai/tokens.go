package openai

import (
	"fmt"
	"math"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/modelfleet/modelfleet/chat"
)

const (
	tokensPerMessage = 3
	replyPriming     = 3
	tokensPerTool    = 11
	toolSchemaSetup  = 12

	fallbackEncoding  = "cl100k_base"
	defaultTokenLimit = 4096
)

// tokenCounter wraps a lazily-initialized tiktoken encoding. When neither
// the model encoding nor the fallback can be loaded, counting degrades to a
// length/4 estimate.
type tokenCounter struct {
	model string
	once  sync.Once
	enc   *tiktoken.Tiktoken
}

func newTokenCounter(model string) *tokenCounter {
	return &tokenCounter{model: model}
}

func (tc *tokenCounter) encoding() *tiktoken.Tiktoken {
	tc.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(tc.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
			if err != nil {
				return
			}
		}
		tc.enc = enc
	})
	return tc.enc
}

func (tc *tokenCounter) countText(s string) int {
	if enc := tc.encoding(); enc != nil {
		return len(enc.Encode(s, nil, nil))
	}
	return len(s) / 4
}

// CountTokens estimates the token cost of a message sequence plus tool
// schemas, mirroring the provider's own accounting: a per-message overhead
// constant, the encoded length of each textual field, a tile-based image
// cost, and per-tool schema constants. It never fails.
func (c *Client) CountTokens(messages []chat.Message, tools []chat.ToolSchema) int {
	total := 0
	for _, m := range messages {
		switch msg := m.(type) {
		case chat.SystemMessage:
			total += tokensPerMessage + c.counter.countText(msg.Content)
		case chat.UserMessage:
			total += tokensPerMessage
			for _, p := range msg.Content {
				switch part := p.(type) {
				case chat.TextPart:
					total += c.counter.countText(part.Text)
				case chat.ImagePart:
					total += imageTokens(part.Image)
				}
			}
		case chat.AssistantMessage:
			total += tokensPerMessage
			if len(msg.FunctionCalls) > 0 {
				for _, fc := range msg.FunctionCalls {
					total += c.counter.countText(fc.Name)
					total += c.counter.countText(fc.Arguments)
				}
			} else {
				total += c.counter.countText(msg.Content)
			}
		case chat.FunctionExecutionResultMessage:
			// Each result fans out to its own wire message.
			for _, r := range msg.Results {
				total += tokensPerMessage + c.counter.countText(r.Content)
			}
		}
	}
	total += replyPriming
	total += c.countToolTokens(tools)
	return total
}

// RemainingTokens returns the context window headroom for the given input,
// clamped to zero.
func (c *Client) RemainingTokens(messages []chat.Message, tools []chat.ToolSchema) int {
	remaining := c.tokenLimit - c.CountTokens(messages, tools)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// countToolTokens reproduces the provider's schema accounting quirks:
// name/description/enum member costs plus fixed per-tool and per-schema
// overhead constants.
func (c *Client) countToolTokens(tools []chat.ToolSchema) int {
	if len(tools) == 0 {
		return 0
	}
	total := 0
	for _, t := range tools {
		toolTotal := c.counter.countText(t.Name)
		toolTotal += c.counter.countText(t.Description)
		if props, ok := t.Parameters["properties"].(map[string]any); ok {
			for key, raw := range props {
				toolTotal += c.counter.countText(key)
				prop, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				for field, v := range prop {
					switch field {
					case "type":
						toolTotal += 2
						if s, ok := v.(string); ok {
							toolTotal += c.counter.countText(s)
						}
					case "description":
						toolTotal += 2
						if s, ok := v.(string); ok {
							toolTotal += c.counter.countText(s)
						}
					case "enum":
						toolTotal -= 3
						if members, ok := v.([]any); ok {
							for _, m := range members {
								toolTotal += 3
								toolTotal += c.counter.countText(fmt.Sprint(m))
							}
						}
					}
				}
			}
		}
		toolTotal += tokensPerTool
		total += toolTotal
	}
	return total + toolSchemaSetup
}

// imageTokens prices an image with the provider's tiling model: clamp the
// long edge to 2048px, scale the short edge to 768px, then charge 85 tokens
// plus 170 per 512px tile. Low detail is a flat 85.
func imageTokens(img chat.Image) int {
	if img.Detail == chat.ImageDetailLow {
		return 85
	}
	w, h := img.Width, img.Height
	if w <= 0 || h <= 0 {
		// Dimensions unknown; assume one high-detail tile.
		w, h = 512, 512
	}
	if w > 2048 || h > 2048 {
		scale := 2048 / math.Max(float64(w), float64(h))
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	}
	short := math.Min(float64(w), float64(h))
	if short > 768 {
		scale := 768 / short
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	}
	tiles := int(math.Ceil(float64(w)/512)) * int(math.Ceil(float64(h)/512))
	return 85 + 170*tiles
}
