package factory

import (
	"fmt"

	"github.com/hoanghaiduong/gym-food-rag/pkg/llm"
	"github.com/hoanghaiduong/gym-food-rag/pkg/llm/ollama"
	"github.com/hoanghaiduong/gym-food-rag/pkg/llm/openai"
)

type Config struct {
	Provider    string // "ollama" or "openai"
	Model       string
	Temperature float64
	OllamaURL   string
	APIKey      string
	OpenAIURL   string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "", "ollama":
		baseURL := cfg.OllamaURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model, cfg.Temperature), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai LLM provider requires OPENAI_API_KEY")
		}
		return openai.NewOpenAIProvider(cfg.APIKey, cfg.OpenAIURL, cfg.Model, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
