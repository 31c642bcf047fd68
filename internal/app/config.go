package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// InputPath is the raw completion to decode; "-" reads stdin. Ignored
	// when Topic is set.
	InputPath string
	// OutputPath receives the JSON report; empty or "-" writes stdout.
	OutputPath string

	// Generation: when Topic is set the completion is requested from the LLM.
	Topic           string
	DurationSeconds int
	Tone            string
	LanguageHint    string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	// MaxCompletionBytes caps a streamed completion; zero means unlimited.
	MaxCompletionBytes int

	// Decoding
	MaxRetries     int
	RetryBaseDelay time.Duration

	// Cache of raw completions
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	LLMCacheOnly     bool

	Verbose bool
}
