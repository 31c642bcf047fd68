package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperifyio/scriptdecode/internal/cache"
)

// sseServer streams each chunk as one chat.completion.chunk event.
func sseServer(t *testing.T, chunks []string, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		*calls++
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			ev := map[string]any{
				"id":      "chunk",
				"object":  "chat.completion.chunk",
				"created": 1,
				"model":   "test-model",
				"choices": []map[string]any{{"index": 0, "delta": map[string]any{"content": c}}},
			}
			b, _ := json.Marshal(ev)
			fmt.Fprintf(w, "data: %s\n\n", b)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestGenerate_CollectsStreamAndCaches(t *testing.T) {
	calls := 0
	chunks := []string{"```json\n", `{"data":{"scriptTitle":"Tides",`, `"script":"Water moves.","scriptDuration":20}}`, "\n```"}
	srv := sseServer(t, chunks, &calls)
	defer srv.Close()

	c := &cache.Completions{Dir: t.TempDir()}
	g := &Generator{Client: NewOpenAIProvider(srv.URL+"/v1", "test", nil), Model: "test-model", Cache: c}
	got, err := g.Generate(context.Background(), Request{Topic: "tides", DurationSeconds: 20})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if want := strings.Join(chunks, ""); got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	cached := &Generator{Client: NewOpenAIProvider(srv.URL+"/v1", "test", nil), Model: "test-model", Cache: c, CacheOnly: true}
	again, err := cached.Generate(context.Background(), Request{Topic: "tides", DurationSeconds: 20})
	if err != nil {
		t.Fatalf("cache-only generate: %v", err)
	}
	if again != got || calls != 1 {
		t.Fatalf("expected cache hit without a second call; calls=%d", calls)
	}
}

func TestGenerate_CacheOnlyMiss(t *testing.T) {
	g := &Generator{Client: NewOpenAIProvider("http://127.0.0.1:1/v1", "x", nil), Model: "m", Cache: &cache.Completions{Dir: t.TempDir()}, CacheOnly: true}
	if _, err := g.Generate(context.Background(), Request{Topic: "t"}); err == nil {
		t.Fatal("expected cache-only miss error")
	}
}

func TestGenerate_NotConfigured(t *testing.T) {
	if _, err := (&Generator{}).Generate(context.Background(), Request{Topic: "t"}); err == nil {
		t.Fatal("expected error without client")
	}
	g := &Generator{Client: NewOpenAIProvider("", "x", nil), Model: "m"}
	if _, err := g.Generate(context.Background(), Request{Topic: "  "}); err == nil {
		t.Fatal("expected error for empty topic")
	}
}

func TestBuildUserPrompt(t *testing.T) {
	p := buildUserPrompt(Request{Topic: " volcanoes ", DurationSeconds: 90, Tone: "calm", Language: "fi"})
	for _, want := range []string{"Topic: volcanoes", "Target duration: 90 seconds", "Tone: calm", "Language: fi"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt %q missing %q", p, want)
		}
	}
}

func TestHasModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","data":[{"id":"served","object":"model"}]}`)
	}))
	defer srv.Close()
	p := NewOpenAIProvider(srv.URL+"/v1", "k", nil)
	ok, err := HasModel(context.Background(), p, "served")
	if err != nil || !ok {
		t.Fatalf("served model: ok=%v err=%v", ok, err)
	}
	ok, err = HasModel(context.Background(), p, "absent")
	if err != nil || ok {
		t.Fatalf("absent model: ok=%v err=%v", ok, err)
	}
}
