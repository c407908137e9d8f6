package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaProvider implements DenseEmbedder for local Ollama models (bge-m3 by default).
type OllamaProvider struct {
	BaseURL    string
	Model      string
	Dimensions int
	httpClient *http.Client
}

func NewOllamaProvider(baseURL string, model string, dimensions int) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "bge-m3"
	}
	return &OllamaProvider{
		BaseURL:    baseURL,
		Model:      model,
		Dimensions: dimensions,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (p *OllamaProvider) EmbedDense(ctx context.Context, text string) ([]float32, error) {
	jsonBody, err := json.Marshal(ollamaEmbedRequest{Model: p.Model, Input: text})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/embed", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embedding error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var ollamaResp ollamaEmbedResponse
	if err := json.Unmarshal(bodyBytes, &ollamaResp); err != nil {
		return nil, err
	}
	if len(ollamaResp.Embeddings) == 0 {
		return nil, fmt.Errorf("ollama returned no embeddings")
	}

	values := normalizeVector(ollamaResp.Embeddings[0])
	if err := checkDimensions(values, p.Dimensions); err != nil {
		return nil, err
	}
	return values, nil
}
