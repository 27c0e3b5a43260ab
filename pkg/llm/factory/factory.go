package factory

import (
	"fmt"
	"strings"

	"subsidy-intake-be/pkg/llm"
	"subsidy-intake-be/pkg/llm/openai"
)

const (
	OllamaDefaultURL     = "http://localhost:11434"
	HuggingFaceRouterURL = "https://router.huggingface.co/v1"
)

// NewLLMProvider builds a chat client. Every supported backend speaks the
// OpenAI chat completions protocol, so they differ only in URL and key.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = OllamaDefaultURL
		}
		return openai.NewProvider("ollama", strings.TrimRight(baseURL, "/")+"/v1", modelName), nil
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		return openai.NewProvider(apiKey, baseURL, modelName), nil
	case "huggingface":
		if baseURL == "" {
			baseURL = HuggingFaceRouterURL
		}
		return openai.NewProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
