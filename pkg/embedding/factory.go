package embedding

import "fmt"

type DenseConfig struct {
	Provider     string // "ollama" or "openai"
	OllamaURL    string
	OllamaModel  string
	OpenAIAPIKey string
	OpenAIURL    string
	OpenAIModel  string
	Dimensions   int
}

// NewDenseEmbedder picks the backend by name and wraps it with the memo.
func NewDenseEmbedder(cfg DenseConfig) (DenseEmbedder, error) {
	var inner DenseEmbedder
	switch cfg.Provider {
	case "", "ollama":
		inner = NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, cfg.Dimensions)
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai embedding provider requires OPENAI_API_KEY")
		}
		inner = NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIURL, cfg.OpenAIModel, cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	return NewCachedDenseEmbedder(inner, DefaultMemoTTL), nil
}
