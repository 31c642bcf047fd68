package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type chatRequest struct {
	Model    string `json:"model"`
	Stream   bool   `json:"stream"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const sampleScript = `{"data":{"scriptTitle":"The Lighthouse Keeper","script":"Night falls over the harbor.\nThe lamp turns, and the ships find their way home.","scriptDuration":45}}`

// completionFor returns the raw text the stub answers with. mode selects one
// of the malformed shapes real models produce.
func completionFor(mode string) string {
	switch mode {
	case "fenced":
		return "Here is your script:\n```json\n" + sampleScript + "\n```\nLet me know if you want changes."
	case "duplicate":
		return sampleScript + "\n" + sampleScript
	case "truncated":
		return sampleScript[:len(sampleScript)-3]
	case "html":
		return "<!DOCTYPE html><html><head><title>502 Bad Gateway</title></head><body><h1>Bad Gateway</h1></body></html>"
	case "prose":
		return "Title: \"The Lighthouse Keeper\"\n\nNARRATOR: Night falls over the harbor. The lamp turns, and the ships find their way home across the dark water."
	default:
		return sampleScript
	}
}

// modeFor lets a request override the server mode with a "stub:<mode>" token
// anywhere in the user message.
func modeFor(def string, req chatRequest) string {
	for _, m := range req.Messages {
		if m.Role != "user" {
			continue
		}
		if i := strings.Index(m.Content, "stub:"); i >= 0 {
			rest := m.Content[i+len("stub:"):]
			if j := strings.IndexAny(rest, " \n\t."); j >= 0 {
				rest = rest[:j]
			}
			if rest != "" {
				return rest
			}
		}
	}
	return def
}

// chunk splits s into pieces of at most n bytes.
func chunk(s string, n int) []string {
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func newMux(model, mode string, delay time.Duration) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		m := modeFor(mode, req)
		content := completionFor(m)
		log.Debug().Str("mode", m).Bool("stream", req.Stream).Int("bytes", len(content)).Msg("completion")

		if m == "html" {
			// Gateways answer with a page instead of an event stream.
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(content))
			return
		}
		if !req.Stream {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "stub", "object": "chat.completion", "model": model,
				"choices": []map[string]any{
					{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
				},
			})
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, c := range chunk(content, 16) {
			b, _ := json.Marshal(map[string]any{
				"id": "stub", "object": "chat.completion.chunk", "model": model,
				"choices": []map[string]any{{"index": 0, "delta": map[string]string{"content": c}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", b)
			if flusher != nil {
				flusher.Flush()
			}
			if delay > 0 {
				time.Sleep(delay)
			}
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	return mux
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}
	mode := strings.TrimSpace(os.Getenv("STUB_MODE"))
	var delay time.Duration
	if s := os.Getenv("STUB_CHUNK_DELAY"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			delay = d
		}
	}

	log.Info().Str("addr", addr).Str("model", model).Str("mode", mode).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model, mode, delay)); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
