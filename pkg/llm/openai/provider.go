package openai

import (
	"context"
	"fmt"

	"github.com/hoanghaiduong/gym-food-rag/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, vLLM, LM Studio, Groq).
type OpenAIProvider struct {
	client      *goopenai.Client
	modelName   string
	temperature float64
}

var _ llm.LLMProvider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, baseURL, modelName string, temperature float64) *OpenAIProvider {
	clientCfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	return &OpenAIProvider{
		client:      goopenai.NewClientWithConfig(clientCfg),
		modelName:   modelName,
		temperature: temperature,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(llm.Options{Temperature: p.temperature, Model: p.modelName}, opts...)

	messages := make([]goopenai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		messages[i] = goopenai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := goopenai.ChatCompletionRequest{
		Model:       options.Model,
		Messages:    messages,
		Temperature: float32(options.Temperature),
	}
	if options.MaxTokens > 0 {
		req.MaxTokens = options.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
