// Package chat defines the provider-agnostic message model, the completion
// client interface, and the shared validation rules implemented by the
// provider packages (chat/openai, chat/gemini, chat/ollama).
package chat

import (
	"encoding/base64"
	"strings"
)

// Message is the closed set of conversation message variants. Exactly four
// types implement it; provider wire adapters switch exhaustively over them.
type Message interface {
	isMessage()
}

// SystemMessage carries instructions for the model.
type SystemMessage struct {
	Content string
}

// UserMessage carries end-user input, optionally mixing text and images.
// Source is a free-text label identifying the logical speaker.
type UserMessage struct {
	Content []ContentPart
	Source  string
}

// AssistantMessage carries a prior model turn: either plain text or the
// function calls the model requested. The two content shapes are mutually
// exclusive; when FunctionCalls is non-empty, Content is ignored.
type AssistantMessage struct {
	Content       string
	FunctionCalls []FunctionCall
	Source        string
}

// FunctionExecutionResultMessage carries the outcomes of executed function
// calls back to the model.
type FunctionExecutionResultMessage struct {
	Results []FunctionExecutionResult
}

func (SystemMessage) isMessage()                  {}
func (UserMessage) isMessage()                    {}
func (AssistantMessage) isMessage()               {}
func (FunctionExecutionResultMessage) isMessage() {}

// ContentPart is one element of a UserMessage: text or an image.
type ContentPart interface {
	isContentPart()
}

// TextPart is a text fragment of a user message.
type TextPart struct {
	Text string
}

// ImagePart is an image fragment of a user message.
type ImagePart struct {
	Image Image
}

func (TextPart) isContentPart()  {}
func (ImagePart) isContentPart() {}

// Text wraps a string as a user message content part.
func Text(s string) TextPart { return TextPart{Text: s} }

// NewUserMessage builds a UserMessage from mixed content parts.
func NewUserMessage(source string, parts ...ContentPart) UserMessage {
	return UserMessage{Content: parts, Source: source}
}

// NewTextUserMessage builds a text-only UserMessage.
func NewTextUserMessage(source, text string) UserMessage {
	return UserMessage{Content: []ContentPart{TextPart{Text: text}}, Source: source}
}

// ImageDetail selects the fidelity a provider should use when processing an
// image, where supported.
type ImageDetail string

const (
	ImageDetailAuto ImageDetail = "auto"
	ImageDetailLow  ImageDetail = "low"
	ImageDetailHigh ImageDetail = "high"
)

// Image is an image reference: either a URL or inline bytes. Width and Height
// are optional and only consulted for token estimation.
type Image struct {
	URL      string
	Data     []byte
	MIMEType string
	Detail   ImageDetail
	Width    int
	Height   int
}

// DataURL returns the inline data URL for the image, or the plain URL when no
// inline bytes are present.
func (img Image) DataURL() string {
	if len(img.Data) == 0 {
		return img.URL
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	var b strings.Builder
	b.WriteString("data:")
	b.WriteString(mime)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(img.Data))
	return b.String()
}

// FunctionCall is a request by the model to invoke a tool. Arguments is the
// JSON-encoded argument object exactly as the provider produced it.
type FunctionCall struct {
	ID        string
	Name      string
	Arguments string
}

// FunctionExecutionResult is the outcome of one executed function call.
// Name is optional; providers that key results by function name rather than
// call ID (Gemini) require it, the rest ignore it.
type FunctionExecutionResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// ToolSchema declares a callable tool: its name, what it does, and a JSON
// schema object describing its parameters.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ContainsImage reports whether any user message carries an image part.
func ContainsImage(messages []Message) bool {
	for _, m := range messages {
		um, ok := m.(UserMessage)
		if !ok {
			continue
		}
		for _, p := range um.Content {
			if _, ok := p.(ImagePart); ok {
				return true
			}
		}
	}
	return false
}
