package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/scriptdecode/internal/retry"
)

// FileConfig is the single-file configuration schema.
type FileConfig struct {
	Input   string `yaml:"input" json:"input"`
	Output  string `yaml:"output" json:"output"`
	Verbose bool   `yaml:"verbose" json:"verbose"`

	LLM struct {
		BaseURL  string `yaml:"base" json:"base"`
		Model    string `yaml:"model" json:"model"`
		APIKey   string `yaml:"key" json:"key"`
		MaxBytes int    `yaml:"maxBytes" json:"maxBytes"`
	} `yaml:"llm" json:"llm"`

	Generate struct {
		Topic    string `yaml:"topic" json:"topic"`
		Duration int    `yaml:"duration" json:"duration"`
		Tone     string `yaml:"tone" json:"tone"`
		Language string `yaml:"language" json:"language"`
	} `yaml:"generate" json:"generate"`

	Decode struct {
		MaxRetries *int          `yaml:"maxRetries" json:"maxRetries"`
		RetryBase  time.Duration `yaml:"retryBase" json:"retryBase"`
	} `yaml:"decode" json:"decode"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
		Only        bool          `yaml:"only" json:"only"`
	} `yaml:"cache" json:"cache"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// YAML accepts most JSON, so try it first.
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse config: %w", err)
		}
	}
	return fc, nil
}

// Flag defaults that a config file may replace.
const (
	DefaultInput    = "-"
	DefaultCacheDir = ".scriptdecode-cache"
)

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// still at their zero or flag-default value, so explicit flags and env win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if (cfg.InputPath == "" || cfg.InputPath == DefaultInput) && fc.Input != "" {
		cfg.InputPath = fc.Input
	}
	if cfg.OutputPath == "" && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.MaxCompletionBytes == 0 && fc.LLM.MaxBytes > 0 {
		cfg.MaxCompletionBytes = fc.LLM.MaxBytes
	}

	if cfg.Topic == "" && fc.Generate.Topic != "" {
		cfg.Topic = fc.Generate.Topic
	}
	if cfg.DurationSeconds == 0 && fc.Generate.Duration > 0 {
		cfg.DurationSeconds = fc.Generate.Duration
	}
	if cfg.Tone == "" && fc.Generate.Tone != "" {
		cfg.Tone = fc.Generate.Tone
	}
	if cfg.LanguageHint == "" && fc.Generate.Language != "" {
		cfg.LanguageHint = fc.Generate.Language
	}

	// maxRetries is a pointer so a file can set 0 explicitly.
	if (cfg.MaxRetries == 0 || cfg.MaxRetries == retry.DefaultMaxRetries) && fc.Decode.MaxRetries != nil {
		cfg.MaxRetries = *fc.Decode.MaxRetries
	}
	if (cfg.RetryBaseDelay == 0 || cfg.RetryBaseDelay == retry.DefaultBaseDelay) && fc.Decode.RetryBase > 0 {
		cfg.RetryBaseDelay = fc.Decode.RetryBase
	}

	if (cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if !cfg.LLMCacheOnly && fc.Cache.Only {
		cfg.LLMCacheOnly = true
	}
}

// ValidateConfig performs minimal validation of required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Topic) == "" && strings.TrimSpace(cfg.InputPath) == "" {
		return errors.New("config: input path or topic is required")
	}
	if strings.TrimSpace(cfg.Topic) != "" && strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required to generate (or set LLM_MODEL)")
	}
	if cfg.MaxRetries < 0 || cfg.RetryBaseDelay < 0 || cfg.MaxCompletionBytes < 0 || cfg.DurationSeconds < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}
