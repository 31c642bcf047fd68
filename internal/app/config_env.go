package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, envKey string) {
		if *dst == "" {
			*dst = os.Getenv(envKey)
		}
	}
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.LanguageHint, "LANGUAGE")

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = EnvInt("DECODE_MAX_RETRIES", 0)
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = EnvDuration("DECODE_RETRY_BASE", 0)
	}
	if cfg.CacheMaxAge == 0 {
		cfg.CacheMaxAge = EnvDuration("CACHE_MAX_AGE", 0)
	}
	if !cfg.Verbose {
		cfg.Verbose = EnvBool("VERBOSE", false)
	}
	if !cfg.LLMCacheOnly {
		cfg.LLMCacheOnly = EnvBool("LLM_CACHE_ONLY", false)
	}
}

// EnvInt returns the integer value of envKey, or def when unset or invalid.
func EnvInt(envKey string, def int) int {
	if s := strings.TrimSpace(os.Getenv(envKey)); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// EnvDuration parses envKey with time.ParseDuration, or returns def.
func EnvDuration(envKey string, def time.Duration) time.Duration {
	if s := strings.TrimSpace(os.Getenv(envKey)); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return def
}

// EnvBool accepts 1/true/yes/on and 0/false/no/off; anything else is def.
func EnvBool(envKey string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envKey))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}
