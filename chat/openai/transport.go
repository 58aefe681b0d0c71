package openai

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Transport issues chat-completion requests. The default implementation
// wraps the go-openai SDK client; HTTP, auth, retries, and pooling are its
// concern, not this layer's. Tests substitute counting mocks.
type Transport interface {
	Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	Stream(ctx context.Context, req openai.ChatCompletionRequest) (ChunkStream, error)
}

// ChunkStream delivers streaming wire chunks until io.EOF.
type ChunkStream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

type sdkTransport struct {
	api *openai.Client
}

func newSDKTransport(cfg Config) *sdkTransport {
	var sdkCfg openai.ClientConfig
	if cfg.Azure {
		sdkCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			sdkCfg.APIVersion = cfg.APIVersion
		}
	} else {
		sdkCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			sdkCfg.BaseURL = cfg.BaseURL
		}
	}
	if cfg.HTTPClient != nil {
		sdkCfg.HTTPClient = cfg.HTTPClient
	} else {
		sdkCfg.HTTPClient = &http.Client{}
	}
	return &sdkTransport{api: openai.NewClientWithConfig(sdkCfg)}
}

func (t *sdkTransport) Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return t.api.CreateChatCompletion(ctx, req)
}

func (t *sdkTransport) Stream(ctx context.Context, req openai.ChatCompletionRequest) (ChunkStream, error) {
	return t.api.CreateChatCompletionStream(ctx, req)
}
