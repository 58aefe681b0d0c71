package gemini

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/modelfleet/modelfleet/chat"
)

// Wire types for the generateContent API. Exported so custom transports can
// be supplied; field shapes follow the v1beta REST schema.

type GenerateRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []ToolDeclaration `json:"tools,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text             string            `json:"text,omitempty"`
	InlineData       *Blob             `json:"inlineData,omitempty"`
	FileData         *FileData         `json:"fileData,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type FileData struct {
	MIMEType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

type FunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type ToolDeclaration struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

type FunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type GenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"topP,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	StopSequences    []string `json:"stopSequences,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
}

type GenerateResponse struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// messagesToWire splits the message model into a system instruction and the
// conversation contents. All system messages concatenate into one
// instruction; function results ride as user-role functionResponse parts
// keyed by function name.
func messagesToWire(messages []chat.Message) (*Content, []Content) {
	var systemParts []string
	contents := make([]Content, 0, len(messages))
	for _, m := range messages {
		switch msg := m.(type) {
		case chat.SystemMessage:
			systemParts = append(systemParts, msg.Content)
		case chat.UserMessage:
			contents = append(contents, Content{Role: "user", Parts: userParts(msg)})
		case chat.AssistantMessage:
			contents = append(contents, Content{Role: "model", Parts: assistantParts(msg)})
		case chat.FunctionExecutionResultMessage:
			parts := make([]Part, 0, len(msg.Results))
			for _, r := range msg.Results {
				response := map[string]any{"result": r.Content}
				if r.IsError {
					response = map[string]any{"error": r.Content}
				}
				parts = append(parts, Part{FunctionResponse: &FunctionResponse{
					Name:     r.Name,
					Response: response,
				}})
			}
			contents = append(contents, Content{Role: "user", Parts: parts})
		}
	}
	var system *Content
	if len(systemParts) > 0 {
		system = &Content{Parts: []Part{{Text: strings.Join(systemParts, "\n")}}}
	}
	return system, contents
}

func userParts(msg chat.UserMessage) []Part {
	parts := make([]Part, 0, len(msg.Content))
	for _, p := range msg.Content {
		switch part := p.(type) {
		case chat.TextPart:
			parts = append(parts, Part{Text: part.Text})
		case chat.ImagePart:
			parts = append(parts, imagePart(part.Image))
		}
	}
	return parts
}

func imagePart(img chat.Image) Part {
	if len(img.Data) > 0 {
		mime := img.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return Part{InlineData: &Blob{
			MIMEType: mime,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}}
	}
	return Part{FileData: &FileData{MIMEType: img.MIMEType, FileURI: img.URL}}
}

func assistantParts(msg chat.AssistantMessage) []Part {
	if len(msg.FunctionCalls) == 0 {
		return []Part{{Text: msg.Content}}
	}
	parts := make([]Part, len(msg.FunctionCalls))
	for i, fc := range msg.FunctionCalls {
		args := json.RawMessage(fc.Arguments)
		if fc.Arguments == "" {
			args = json.RawMessage("{}")
		}
		parts[i] = Part{FunctionCall: &FunctionCall{Name: fc.Name, Args: args}}
	}
	return parts
}

// toolsToWire narrows JSON schemas to the subset the API accepts and wraps
// them as function declarations.
func toolsToWire(tools []chat.ToolSchema) []ToolDeclaration {
	decls := make([]FunctionDeclaration, len(tools))
	for i, t := range tools {
		decls[i] = FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  narrowSchema(t.Parameters),
		}
	}
	return []ToolDeclaration{{FunctionDeclarations: decls}}
}

// narrowSchema strips JSON-schema keywords the API rejects, keeping only
// type, description, enum, required, and the recursive structure keywords.
func narrowSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}
	narrowed := make(map[string]any, len(schema))
	for key, value := range schema {
		switch key {
		case "type", "description", "enum", "required", "format":
			narrowed[key] = value
		case "properties":
			if props, ok := value.(map[string]any); ok {
				np := make(map[string]any, len(props))
				for name, p := range props {
					if pm, ok := p.(map[string]any); ok {
						np[name] = narrowSchema(pm)
					}
				}
				narrowed[key] = np
			}
		case "items":
			if items, ok := value.(map[string]any); ok {
				narrowed[key] = narrowSchema(items)
			}
		}
	}
	return narrowed
}

// finishReasons maps the API's finish vocabulary onto the canonical enum.
// Anything absent resolves to unknown, never an error.
var finishReasons = map[string]chat.FinishReason{
	"STOP":               chat.FinishStop,
	"MAX_TOKENS":         chat.FinishLength,
	"SAFETY":             chat.FinishContentFilter,
	"RECITATION":         chat.FinishContentFilter,
	"BLOCKLIST":          chat.FinishContentFilter,
	"PROHIBITED_CONTENT": chat.FinishContentFilter,
	"SPII":               chat.FinishContentFilter,
}

func mapFinishReason(reason string) chat.FinishReason {
	if mapped, ok := finishReasons[reason]; ok {
		return mapped
	}
	return chat.FinishUnknown
}

// newCallID mints a call ID; the API returns none of its own.
func newCallID() string { return uuid.NewString() }

// resultFromResponse translates a blocking response. The API returns no
// call IDs, so fresh ones are minted for each function call.
func resultFromResponse(resp *GenerateResponse) (chat.CreateResult, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return chat.CreateResult{}, &chat.UnsupportedResponseError{Reason: "response carries no candidates"}
	}
	candidate := resp.Candidates[0]

	var text strings.Builder
	var calls []chat.FunctionCall
	for _, part := range candidate.Content.Parts {
		if part.FunctionCall != nil {
			args := string(part.FunctionCall.Args)
			if args == "" {
				args = "{}"
			}
			calls = append(calls, chat.FunctionCall{
				ID:        newCallID(),
				Name:      chat.NormalizeName(part.FunctionCall.Name),
				Arguments: args,
			})
			continue
		}
		text.WriteString(part.Text)
	}

	result := chat.CreateResult{}
	if len(calls) > 0 {
		result.FunctionCalls = calls
		result.FinishReason = chat.FinishFunctionCalls
	} else {
		result.Content = text.String()
		result.FinishReason = mapFinishReason(candidate.FinishReason)
	}
	if resp.UsageMetadata != nil {
		result.Usage = chat.RequestUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
		}
	}
	return result, nil
}
