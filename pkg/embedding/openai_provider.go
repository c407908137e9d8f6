package embedding

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements DenseEmbedder against any OpenAI-compatible /v1/embeddings endpoint.
type OpenAIProvider struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

func NewOpenAIProvider(apiKey, baseURL, model string, dimensions int) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(model),
		dimensions: dimensions,
	}
}

func (p *OpenAIProvider) EmbedDense(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          p.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if p.dimensions > 0 {
		req.Dimensions = p.dimensions
	}

	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, parseAPIError(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	values := normalizeVector(resp.Data[0].Embedding)
	if err := checkDimensions(values, p.dimensions); err != nil {
		return nil, err
	}
	return values, nil
}

func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("embedding API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("embedding request failed: %w", err)
}
