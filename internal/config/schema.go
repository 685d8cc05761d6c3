package config

import (
	"time"

	"github.com/jackzampolin/docex/internal/store"
)

// Config holds docex configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	Storage      StorageCfg                `mapstructure:"storage" yaml:"storage"`
	OCR          OCRCfg                    `mapstructure:"ocr" yaml:"ocr"`
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Log          LogCfg                    `mapstructure:"log" yaml:"log"`
}

// ServerCfg configures the HTTP listener.
type ServerCfg struct {
	Host         string        `mapstructure:"host" yaml:"host"`
	Port         string        `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// StorageCfg configures where uploads live.
type StorageCfg struct {
	Dir               string   `mapstructure:"dir" yaml:"dir"`     // empty means {home}/storage
	Index             string   `mapstructure:"index" yaml:"index"` // "memory" or "sqlite"
	MaxUploadMB       int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	AllowedExtensions []string `mapstructure:"allowed_extensions" yaml:"allowed_extensions"`
}

// OCRCfg configures local recognition and rasterization.
type OCRCfg struct {
	Languages  []string `mapstructure:"languages" yaml:"languages"`
	Rasterizer string   `mapstructure:"rasterizer" yaml:"rasterizer"` // "pdftoppm" or "fitz"
	DPI        int      `mapstructure:"dpi" yaml:"dpi"`
	TempDir    string   `mapstructure:"temp_dir" yaml:"temp_dir"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type           string `mapstructure:"type" yaml:"type"`             // "openai", "openrouter"
	Model          string `mapstructure:"model" yaml:"model"`           // Default model
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`       // API key (supports ${ENV_VAR} syntax)
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`     // Optional OpenAI-compatible endpoint
	RateLimit      int    `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per minute, 0 disables
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries"`
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default provider and model selections.
type DefaultsCfg struct {
	LLMProvider     string `mapstructure:"llm_provider" yaml:"llm_provider"`
	TextModel       string `mapstructure:"text_model" yaml:"text_model"`
	VisionModel     string `mapstructure:"vision_model" yaml:"vision_model"`
	VisionMaxTokens int    `mapstructure:"vision_max_tokens" yaml:"vision_max_tokens"`
	ImageDetail     string `mapstructure:"image_detail" yaml:"image_detail"`
}

// LogCfg configures the process logger.
type LogCfg struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:         "127.0.0.1",
			Port:         "8000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
		},
		Storage: StorageCfg{
			Index:             "memory",
			MaxUploadMB:       int(store.DefaultMaxBytes >> 20),
			AllowedExtensions: append([]string(nil), store.DefaultExtensions...),
		},
		OCR: OCRCfg{
			Languages:  []string{"tur", "eng"},
			Rasterizer: "pdftoppm",
			DPI:        300,
		},
		LLMProviders: map[string]LLMProviderCfg{
			"openai": {
				Type:           "openai",
				Model:          "gpt-4o-mini",
				APIKey:         "${OPENAI_API_KEY}",
				RateLimit:      60,
				TimeoutSeconds: 120,
				Enabled:        true,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider:     "openai",
			TextModel:       "gpt-4o-mini",
			VisionModel:     "gpt-4o",
			VisionMaxTokens: 4096,
			ImageDetail:     "high",
		},
		Log: LogCfg{
			Level:  "info",
			Format: "text",
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// MaxUploadBytes returns the upload cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	if c.Storage.MaxUploadMB <= 0 {
		return store.DefaultMaxBytes
	}
	return int64(c.Storage.MaxUploadMB) << 20
}
