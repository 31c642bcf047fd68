package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/scriptdecode/internal/app"
	"github.com/hyperifyio/scriptdecode/internal/retry"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// .env is optional; real environment variables win.
	if err := app.LoadEnvFiles(".env"); err != nil {
		log.Warn().Err(err).Msg("load .env")
	}

	var (
		inputPath   string
		outputPath  string
		configPath  string
		topic       string
		duration    int
		tone        string
		language    string
		llmBaseURL  string
		llmModel    string
		llmKey      string
		maxBytes    int
		maxRetries  int
		retryBase   time.Duration
		cacheDir    string
		cacheMaxAge time.Duration
		cacheClear  bool
		cacheStrict bool
		cacheOnly   bool
		verbose     bool
		showVersion bool
	)

	flag.StringVar(&inputPath, "input", app.DefaultInput, "Path to the raw completion to decode ('-' reads stdin)")
	flag.StringVar(&outputPath, "output", "", "Path to write the JSON report (default stdout)")
	flag.StringVar(&configPath, "config", os.Getenv("SCRIPTDECODE_CONFIG"), "Optional YAML or JSON config file")
	flag.StringVar(&topic, "topic", "", "Generate a script about this topic instead of reading input")
	flag.IntVar(&duration, "duration", 0, "Target script duration in seconds when generating")
	flag.StringVar(&tone, "tone", "", "Optional tone for generation, e.g. 'calm'")
	flag.StringVar(&language, "lang", "", "Optional language hint, e.g. 'en' or 'fi'")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for OpenAI-compatible server")
	flag.IntVar(&maxBytes, "llm.maxBytes", 0, "Cap on streamed completion size in bytes (0 disables)")
	flag.IntVar(&maxRetries, "retries", app.EnvInt("DECODE_MAX_RETRIES", retry.DefaultMaxRetries), "Decode retries after the first attempt")
	flag.DurationVar(&retryBase, "retry.base", app.EnvDuration("DECODE_RETRY_BASE", retry.DefaultBaseDelay), "Initial decode retry delay; doubles per retry")
	flag.StringVar(&cacheDir, "cache.dir", app.DefaultCacheDir, "Completion cache directory ('' disables)")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cached completions before purge; 0 disables")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.BoolVar(&cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	flag.BoolVar(&cacheOnly, "cache.only", false, "Serve completions from cache only; never call the model")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("scriptdecode %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return
	}

	cfg := app.Config{
		InputPath:          inputPath,
		OutputPath:         outputPath,
		Topic:              topic,
		DurationSeconds:    duration,
		Tone:               tone,
		LanguageHint:       language,
		LLMBaseURL:         llmBaseURL,
		LLMModel:           llmModel,
		LLMAPIKey:          llmKey,
		MaxCompletionBytes: maxBytes,
		MaxRetries:         maxRetries,
		RetryBaseDelay:     retryBase,
		CacheDir:           cacheDir,
		CacheMaxAge:        cacheMaxAge,
		CacheClear:         cacheClear,
		CacheStrictPerms:   cacheStrict,
		LLMCacheOnly:       cacheOnly,
		Verbose:            verbose,
	}
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvToConfig(&cfg)

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		// Exit code policy: 2 when nothing could be recovered, 1 otherwise.
		if errors.Is(err, app.ErrNothingRecovered) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
