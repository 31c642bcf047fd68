package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/scriptdecode/internal/cache"
	"github.com/hyperifyio/scriptdecode/internal/decode"
	"github.com/hyperifyio/scriptdecode/internal/llm"
	"github.com/hyperifyio/scriptdecode/internal/retry"
	"github.com/hyperifyio/scriptdecode/internal/script"
)

// ErrNothingRecovered is returned when no stage produced a script. Per the
// exit code policy this maps to a non-zero exit.
var ErrNothingRecovered = errors.New("no script recovered")

// Report is the JSON document written to the output.
type Report struct {
	Stage          string `json:"stage"`
	ScriptTitle    string `json:"scriptTitle,omitempty"`
	Script         string `json:"script,omitempty"`
	ScriptDuration int    `json:"scriptDuration"`
	Error          string `json:"error,omitempty"`
	ErrorType      string `json:"errorType,omitempty"`
	InputBytes     int    `json:"inputBytes"`
}

type App struct {
	cfg     Config
	gen     *llm.Generator
	decoder *script.Decoder

	// Stdin and Stdout back the "-" input and output paths.
	Stdin  io.Reader
	Stdout io.Writer
}

func New(_ context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{
		cfg:    cfg,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		decoder: &script.Decoder{Retry: retry.Policy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
			Name:       "decode",
		}},
	}

	if strings.TrimSpace(cfg.Topic) != "" {
		var store *cache.Completions
		if cfg.CacheDir != "" {
			if cfg.CacheClear {
				if err := cache.ClearDir(cfg.CacheDir); err != nil {
					log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
				}
			}
			if cfg.CacheMaxAge > 0 {
				if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
					log.Warn().Err(err).Msg("cache purge failed")
				} else if n > 0 {
					log.Info().Int("removed", n).Msg("purged expired completions")
				}
			}
			store = &cache.Completions{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
		}
		a.gen = &llm.Generator{
			Client:    llm.NewOpenAIProvider(cfg.LLMBaseURL, cfg.LLMAPIKey, newLLMHTTPClient()),
			Model:     cfg.LLMModel,
			Cache:     store,
			CacheOnly: cfg.LLMCacheOnly,
			MaxBytes:  cfg.MaxCompletionBytes,
			Verbose:   cfg.Verbose,
		}
	}
	return a, nil
}

func (a *App) Close() {}

// Run obtains the raw completion, decodes it, and writes the report. The
// report is written even when nothing was recovered.
func (a *App) Run(ctx context.Context) error {
	raw, err := a.input(ctx)
	if err != nil {
		return err
	}
	log.Debug().Int("bytes", len(raw)).Msg("input loaded")

	res, derr := a.decoder.Decode(ctx, raw)
	rep := Report{
		Stage:          string(res.Stage),
		ScriptTitle:    res.Script.ScriptTitle,
		Script:         res.Script.Script,
		ScriptDuration: res.Script.ScriptDuration,
		Error:          res.Error,
		InputBytes:     len(raw),
	}
	if derr != nil {
		if rep.Error == "" {
			rep.Error = derr.Error()
		}
		rep.ErrorType = string(decode.KindOf(derr))
		if rep.Stage == "" {
			rep.Stage = "failed"
		}
	}
	if err := a.writeReport(rep); err != nil {
		return err
	}

	switch {
	case derr == nil:
		log.Info().Str("stage", rep.Stage).Str("title", rep.ScriptTitle).Int("script_len", len(rep.Script)).Msg("script decoded")
		return nil
	case errors.Is(derr, decode.ErrHTMLResponse), errors.Is(derr, script.ErrNoScript):
		return fmt.Errorf("%w: %w", ErrNothingRecovered, derr)
	default:
		return fmt.Errorf("decode: %w", derr)
	}
}

func (a *App) input(ctx context.Context) (string, error) {
	if a.gen != nil {
		if !a.cfg.LLMCacheOnly {
			if ok, err := llm.HasModel(ctx, a.gen.Client, a.gen.Model); err != nil {
				log.Debug().Err(err).Msg("model list unavailable")
			} else if !ok {
				log.Warn().Str("model", a.gen.Model).Msg("model not listed by server")
			}
		}
		text, err := a.gen.Generate(ctx, llm.Request{
			Topic:           a.cfg.Topic,
			DurationSeconds: a.cfg.DurationSeconds,
			Tone:            a.cfg.Tone,
			Language:        a.cfg.LanguageHint,
		})
		if err != nil && text == "" {
			return "", fmt.Errorf("generate: %w", err)
		}
		if err != nil {
			log.Warn().Err(err).Msg("decoding partial completion")
		}
		return text, nil
	}
	if a.cfg.InputPath == "-" {
		b, err := io.ReadAll(a.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(a.cfg.InputPath)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

func (a *App) writeReport(rep Report) error {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	b = append(b, '\n')
	if a.cfg.OutputPath == "" || a.cfg.OutputPath == "-" {
		_, err = a.Stdout.Write(b)
		return err
	}
	if err := os.WriteFile(a.cfg.OutputPath, b, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
