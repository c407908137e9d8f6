package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TEISparseProvider calls a text-embeddings-inference server hosting a SPLADE model.
type TEISparseProvider struct {
	BaseURL    string
	httpClient *http.Client
}

func NewTEISparseProvider(baseURL string) *TEISparseProvider {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &TEISparseProvider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type teiSparseRequest struct {
	Inputs    string `json:"inputs"`
	RawScores bool   `json:"raw_scores"`
}

type teiSparseValue struct {
	Index int32   `json:"index"`
	Value float32 `json:"value"`
}

func (p *TEISparseProvider) EmbedSparse(ctx context.Context, text string) (map[int32]float32, error) {
	jsonBody, err := json.Marshal(teiSparseRequest{Inputs: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/embed_sparse", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sparse embed request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sparse embedding error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	// One list of (index, value) pairs per input
	var batches [][]teiSparseValue
	if err := json.Unmarshal(bodyBytes, &batches); err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, fmt.Errorf("sparse embedding returned no vectors")
	}

	weights := make(map[int32]float32, len(batches[0]))
	for _, v := range batches[0] {
		if v.Value != 0 {
			weights[v.Index] = v.Value
		}
	}
	return weights, nil
}
