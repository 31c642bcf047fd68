// Package llm asks an OpenAI-compatible model for a script and returns the
// raw streamed completion, unparsed.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/scriptdecode/internal/cache"
	"github.com/hyperifyio/scriptdecode/internal/stream"
)

// Request describes the script to generate.
type Request struct {
	Topic           string
	DurationSeconds int
	Tone            string
	Language        string
}

// Generator streams a script completion from the model.
type Generator struct {
	Client Client
	Model  string
	Cache  *cache.Completions
	// CacheOnly returns from cache and fails fast on a miss.
	CacheOnly bool
	// MaxBytes caps the collected completion; zero means unlimited.
	MaxBytes int
	Verbose  bool
}

const systemMessage = "You write narration scripts. Respond with JSON only, no markdown and no commentary, in exactly this shape: {\"data\": {\"scriptTitle\": string, \"script\": string, \"scriptDuration\": number}}. scriptDuration is the spoken length in seconds. Escape newlines inside strings as \\n."

// Generate returns the raw completion text. When the stream breaks part way
// the text received so far is returned together with the error so the
// caller can still attempt decoding.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	if g.Client == nil || g.Model == "" {
		return "", errors.New("generator not configured")
	}
	if strings.TrimSpace(req.Topic) == "" {
		return "", errors.New("empty topic")
	}
	user := buildUserPrompt(req)
	key := cache.KeyFrom(g.Model, systemMessage+"\n\n"+user)
	if g.Cache != nil {
		if text, ok, _ := g.Cache.Get(ctx, key); ok {
			log.Debug().Str("stage", "generate").Msg("completion cache hit")
			return text, nil
		}
	}
	if g.CacheOnly {
		return "", errors.New("generate cache-only: not found")
	}
	if g.Verbose {
		log.Debug().Str("stage", "generate").Str("model", g.Model).Int("system_len", len(systemMessage)).Int("user_len", len(user)).Msg("generate prompt")
	}

	s, err := g.Client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: g.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.7,
		N:           1,
		Stream:      true,
	})
	if err != nil {
		return "", fmt.Errorf("generate call: %w", err)
	}
	defer s.Close()

	text, err := stream.Accumulator{MaxBytes: g.MaxBytes}.Collect(ctx, streamSource{s: s})
	if err != nil {
		log.Warn().Err(err).Int("received", len(text)).Msg("completion stream ended early")
		return text, fmt.Errorf("read stream: %w", err)
	}
	if g.Cache != nil && text != "" {
		if err := g.Cache.Save(ctx, key, text); err != nil {
			log.Warn().Err(err).Msg("completion cache save failed")
		}
	}
	return text, nil
}

func buildUserPrompt(r Request) string {
	var sb strings.Builder
	sb.WriteString("Topic: ")
	sb.WriteString(strings.TrimSpace(r.Topic))
	if r.DurationSeconds > 0 {
		sb.WriteString(fmt.Sprintf("\nTarget duration: %d seconds", r.DurationSeconds))
	}
	if r.Tone != "" {
		sb.WriteString("\nTone: ")
		sb.WriteString(r.Tone)
	}
	if r.Language != "" {
		sb.WriteString("\nLanguage: ")
		sb.WriteString(r.Language)
	}
	return sb.String()
}
