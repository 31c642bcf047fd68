package llm

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the subset of the OpenAI API the generator needs. It mirrors
// *openai.Client so any OpenAI-compatible backend can be adapted.
type Client interface {
	CreateChatCompletionStream(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

// ModelLister is an optional capability; detect it with a type assertion.
type ModelLister interface {
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// OpenAIProvider adapts *openai.Client to Client and ModelLister.
type OpenAIProvider struct {
	Inner *openai.Client
}

func (p *OpenAIProvider) CreateChatCompletionStream(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error) {
	return p.Inner.CreateChatCompletionStream(ctx, request)
}

func (p *OpenAIProvider) ListModels(ctx context.Context) (openai.ModelsList, error) {
	return p.Inner.ListModels(ctx)
}

// HasModel reports whether model is served by c. Clients that cannot list
// models report true.
func HasModel(ctx context.Context, c Client, model string) (bool, error) {
	ml, ok := c.(ModelLister)
	if !ok {
		return true, nil
	}
	list, err := ml.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range list.Models {
		if m.ID == model {
			return true, nil
		}
	}
	return false, nil
}

// NewOpenAIProvider builds a provider for an OpenAI-compatible base URL.
// An empty baseURL keeps the library default; a nil httpClient keeps the
// library's client.
func NewOpenAIProvider(baseURL, apiKey string, httpClient *http.Client) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}
}

// streamSource adapts a completion stream to stream.ChunkSource.
type streamSource struct {
	s *openai.ChatCompletionStream
}

func (src streamSource) Recv() (string, error) {
	resp, err := src.s.Recv()
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}
