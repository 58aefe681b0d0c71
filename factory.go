package modelfleet

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelfleet/modelfleet/chat"
	"github.com/modelfleet/modelfleet/chat/gemini"
	"github.com/modelfleet/modelfleet/chat/ollama"
	"github.com/modelfleet/modelfleet/chat/openai"
)

// ClientOptions carries runtime dependencies that do not belong in config
// files.
type ClientOptions struct {
	Logger     *slog.Logger
	Recorder   chat.UsageRecorder
	HTTPClient *http.Client
}

// NewClient constructs a chat.Client from a config entry. The provider name
// selects the implementation: "openai", "azure", "gemini", or "ollama".
func NewClient(cfg ClientConfig, opts ClientOptions) (chat.Client, error) {
	info := modelInfoFromConfig(cfg.ModelInfo)

	switch cfg.Provider {
	case "openai", "azure":
		return openai.New(openai.Config{
			Model:               cfg.Model,
			APIKey:              cfg.APIKey,
			BaseURL:             cfg.BaseURL,
			Azure:               cfg.Provider == "azure",
			APIVersion:          cfg.APIVersion,
			ModelInfo:           info,
			TokenLimit:          cfg.TokenLimit,
			DefaultArgs:         cfg.DefaultArgs,
			EmptyChunkTolerance: cfg.EmptyChunkTolerance,
			HTTPClient:          opts.HTTPClient,
			Logger:              opts.Logger,
			Recorder:            opts.Recorder,
		})
	case "gemini":
		return gemini.New(gemini.Config{
			Model:               cfg.Model,
			APIKey:              cfg.APIKey,
			BaseURL:             cfg.BaseURL,
			ModelInfo:           info,
			TokenLimit:          cfg.TokenLimit,
			DefaultArgs:         cfg.DefaultArgs,
			EmptyChunkTolerance: cfg.EmptyChunkTolerance,
			MaxRetries:          cfg.MaxRetries,
			HTTPClient:          opts.HTTPClient,
			Logger:              opts.Logger,
			Recorder:            opts.Recorder,
		})
	case "ollama":
		return ollama.New(ollama.Config{
			Model:               cfg.Model,
			BaseURL:             cfg.BaseURL,
			ModelInfo:           info,
			TokenLimit:          cfg.TokenLimit,
			DefaultArgs:         cfg.DefaultArgs,
			EmptyChunkTolerance: cfg.EmptyChunkTolerance,
			MaxRetries:          cfg.MaxRetries,
			HTTPClient:          opts.HTTPClient,
			Logger:              opts.Logger,
			Recorder:            opts.Recorder,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func modelInfoFromConfig(cfg *ModelInfoConfig) *chat.ModelInfo {
	if cfg == nil {
		return nil
	}
	family := chat.ModelFamily(cfg.Family)
	if family == "" {
		family = chat.FamilyUnknown
	}
	return &chat.ModelInfo{
		Vision:          cfg.Vision,
		FunctionCalling: cfg.FunctionCalling,
		JSONOutput:      cfg.JSONOutput,
		Family:          family,
	}
}
