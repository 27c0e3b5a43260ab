package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

const (
	jinaBaseURL   = "https://api.jina.ai/v1"
	jinaModel     = "jina-embeddings-v3"
	ollamaDefault = "http://localhost:11434"
	ollamaModel   = "nomic-embed-text"
)

// CompatibleProvider calls an OpenAI-style /embeddings endpoint.
// Jina and Ollama both expose one.
type CompatibleProvider struct {
	name       string
	client     *goopenai.Client
	model      string
	dimensions int
}

// NewCompatibleProvider returns a provider for baseURL. dimensions 0 keeps the model's native width.
func NewCompatibleProvider(name, apiKey, baseURL, model string, dimensions int) *CompatibleProvider {
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	return &CompatibleProvider{
		name:       name,
		client:     goopenai.NewClientWithConfig(cfg),
		model:      model,
		dimensions: dimensions,
	}
}

// NewJinaProvider truncates jina-embeddings-v3 output to the corpus width
func NewJinaProvider(apiKey string) *CompatibleProvider {
	return NewCompatibleProvider("jina", apiKey, jinaBaseURL, jinaModel, CorpusDimensions)
}

// NewOllamaProvider targets a local Ollama server (nomic-embed-text is 768 wide already)
func NewOllamaProvider(baseURL string, model string) *CompatibleProvider {
	if baseURL == "" {
		baseURL = ollamaDefault
	}
	if model == "" {
		model = ollamaModel
	}
	return NewCompatibleProvider("ollama", "ollama", strings.TrimRight(baseURL, "/")+"/v1", model, 0)
}

func (p *CompatibleProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input:      []string{text},
		Model:      goopenai.EmbeddingModel(p.model),
		Dimensions: p.dimensions,
	})
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%s embedding error (status %d): %s", p.name, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("%s embedding request failed: %w", p.name, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%s returned an empty embedding", p.name)
	}
	return resp.Data[0].Embedding, nil
}
