package llm

import (
	"fmt"
	"strings"
)

const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
	ProviderOllama = "ollama"
)

// NewClient creates an LLM client based on provider configuration.
func NewClient(provider, model, baseURL string) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderOpenAI:
		return NewOpenAIClient(model, baseURL)
	case ProviderGroq:
		if baseURL == "" {
			baseURL = groqBaseURL
		}
		return NewOpenAIClient(model, baseURL)
	case ProviderOllama:
		return NewOllamaClient(model, baseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
