// Package script decodes script completions, degrading from strict JSON to
// regex field recovery and finally to a heuristic text block.
package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/scriptdecode/internal/decode"
	"github.com/hyperifyio/scriptdecode/internal/fallback"
	"github.com/hyperifyio/scriptdecode/internal/retry"
)

// Data is the script shape carried inside the "data" envelope.
type Data = fallback.ScriptData

// Stage names which step produced a Result.
type Stage string

const (
	StageJSON          Stage = "json"
	StageHTMLError     Stage = "html_error"
	StageFallbackRegex Stage = "fallback_regex"
	StageBasicContent  Stage = "basic_content"
)

// ErrNoScript is returned when every stage failed.
var ErrNoScript = errors.New("no script recovered")

// Result is the outcome of Decode.
type Result struct {
	Stage  Stage `json:"stage"`
	Script Data  `json:"script"`
	// Error carries the upstream message for StageHTMLError.
	Error string `json:"error,omitempty"`
}

// Decoder chains the stages. The zero value uses the default repairer and a
// single attempt; set Retry.MaxRetries for backoff.
type Decoder struct {
	Extractor *decode.Extractor
	Retry     retry.Policy
}

// Decode runs strict decoding with retries. Only when retries are exhausted
// does it fall back to regex recovery, then to basic content scanning. An
// HTML error page yields a StageHTMLError result together with an
// HTML_RESPONSE error.
func (d *Decoder) Decode(ctx context.Context, content string) (Result, error) {
	p, err := decode.ParseWithPolicy[Data](ctx, d.Extractor, content, d.Retry)
	if err == nil {
		if p.IsHTMLError() {
			return Result{Stage: StageHTMLError, Error: p.Error}, &decode.Error{Kind: decode.KindHTMLResponse, Err: errors.New(p.Error)}
		}
		return Result{Stage: StageJSON, Script: p.Data}, nil
	}
	if !errors.Is(err, decode.ErrRetryExhausted) {
		return Result{}, err
	}

	if data, ok := fallback.ExtractFallbackData(content); ok {
		log.Warn().Str("stage", string(StageFallbackRegex)).Int("script_len", len(data.Script)).Msg("strict decoding failed; recovered fields by regex")
		return Result{Stage: StageFallbackRegex, Script: data}, nil
	}
	if text, ok := fallback.ExtractBasicScriptContent(content); ok {
		log.Warn().Str("stage", string(StageBasicContent)).Int("script_len", len(text)).Msg("strict decoding failed; using basic content block")
		return Result{Stage: StageBasicContent, Script: Data{ScriptTitle: fallback.DefaultTitle, Script: text}}, nil
	}
	return Result{}, fmt.Errorf("%w: %w", ErrNoScript, err)
}
