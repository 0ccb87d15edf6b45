package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/xiaoyuanzhu-com/review-digest/log"
	"golang.org/x/time/rate"
)

var openaiLogger = log.GetLogger("OpenAI")

// ErrEmptyCompletion is returned when the API answers without any choices.
var ErrEmptyCompletion = errors.New("openai returned no choices")

// OpenAIConfig holds the settings for the chat completion client
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// RPS and Burst bound outgoing requests; RPS <= 0 disables limiting.
	RPS   float64
	Burst int
}

// OpenAIClient wraps the OpenAI client
type OpenAIClient struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

// CompletionOptions holds options for completions
type CompletionOptions struct {
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float32
}

// CompletionResponse represents a completion response
type CompletionResponse struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// Usage reports token consumption for one completion
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// NewOpenAIClient returns nil when no API key is configured.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.APIKey == "" {
		openaiLogger.Warn().Msg("OPENAI_API_KEY not configured, summaries disabled")
		return nil
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" && cfg.BaseURL != "https://api.openai.com/v1" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	c := &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	openaiLogger.Info().Str("model", model).Str("baseURL", clientConfig.BaseURL).Float64("rps", cfg.RPS).Msg("OpenAI initialized")
	return c
}

// Model returns the chat model used for completions.
func (o *OpenAIClient) Model() string {
	return o.model
}

// Complete performs a chat completion
func (o *OpenAIClient) Complete(ctx context.Context, opts CompletionOptions) (*CompletionResponse, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var messages []openai.ChatCompletionMessage
	if opts.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: opts.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: opts.Prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	openaiLogger.Debug().
		Str("model", o.model).
		Int("systemChars", len(opts.SystemPrompt)).
		Int("promptChars", len(opts.Prompt)).
		Msg("openai request")

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		openaiLogger.Error().Err(err).Msg("completion failed")
		return nil, err
	}

	if len(resp.Choices) == 0 {
		openaiLogger.Error().Interface("response", resp).Msg("openai response has no choices")
		return nil, ErrEmptyCompletion
	}

	out := &CompletionResponse{
		Content:      strings.TrimSpace(resp.Choices[0].Message.Content),
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	openaiLogger.Info().
		Str("finishReason", out.FinishReason).
		Int("promptTokens", out.Usage.PromptTokens).
		Int("completionTokens", out.Usage.CompletionTokens).
		Msg("openai response")

	return out, nil
}
