package modelfleet

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	kenv "github.com/knadh/koanf/providers/env"
	kfile "github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the root configuration structure, typically loaded from a
// YAML file with LoadConfig.
type Config struct {
	Clients map[string]ClientConfig `koanf:"clients"`
}

// ClientConfig describes a single client entry.
type ClientConfig struct {
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
	BaseURL  string `koanf:"base_url"`

	// Azure-specific settings, used when Provider is "azure".
	APIVersion string `koanf:"api_version"`

	// ModelInfo overrides the built-in registry for models the registry
	// does not know about (fine-tunes, custom Ollama tags).
	ModelInfo  *ModelInfoConfig `koanf:"model_info"`
	TokenLimit int              `koanf:"token_limit"`

	DefaultArgs         map[string]any `koanf:"default_args"`
	EmptyChunkTolerance int            `koanf:"empty_chunk_tolerance"`
	MaxRetries          uint           `koanf:"max_retries"`
}

// ModelInfoConfig mirrors chat.ModelInfo for config unmarshaling.
type ModelInfoConfig struct {
	Vision          bool   `koanf:"vision"`
	FunctionCalling bool   `koanf:"function_calling"`
	JSONOutput      bool   `koanf:"json_output"`
	Family          string `koanf:"family"`
}

// LoadConfig reads a YAML config file and applies environment overrides.
// Overrides use the MODELFLEET__ prefix with double underscores splitting
// levels: MODELFLEET__CLIENTS__default__api_key=... String values may
// reference environment variables as ${VAR}.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(kfile.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config file %s: %w", path, err)
	}

	if err := k.Load(kenv.Provider("MODELFLEET__", "__", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "MODELFLEET__"))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	resolveEnvVars(&cfg)
	return &cfg, nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func resolveEnvVars(cfg *Config) {
	for key, client := range cfg.Clients {
		client.APIKey = resolveEnvString(client.APIKey)
		client.BaseURL = resolveEnvString(client.BaseURL)
		client.Model = resolveEnvString(client.Model)
		cfg.Clients[key] = client
	}
}

// resolveEnvString replaces ${VAR} with the environment value, leaving the
// placeholder intact when the variable is unset.
func resolveEnvString(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if value := os.Getenv(name); value != "" {
			return value
		}
		return match
	})
}
