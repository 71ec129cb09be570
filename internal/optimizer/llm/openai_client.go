package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	optimizeSystemPrompt = "You are a Dockerfile optimization assistant."
	chatSystemPrompt     = "You are a helpful assistant for Dockerfile optimization."
	optimizeInstruction  = "Optimize the following Dockerfile for minimal image size and best practices.\n\n"
)

// ErrEmptyCompletion is returned when the API answers without any choice.
var ErrEmptyCompletion = errors.New("completion returned no choices")

// Options configures an OpenAIClient. Model is required; an empty BaseURL
// keeps the SDK default.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds each call; zero leaves only the caller's context.
	Timeout time.Duration
}

// OpenAIClient talks to the OpenAI chat-completion API. Calls are blocking
// and never retried.
type OpenAIClient struct {
	client  openai.Client
	model   string
	metrics Metrics
}

// NewOpenAIClient builds a client with retries disabled.
func NewOpenAIClient(opts Options) *OpenAIClient {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	return &OpenAIClient{
		client: openai.NewClient(reqOpts...),
		model:  opts.Model,
	}
}

// Optimize asks the model to rewrite dockerfile for size and best practices.
func (c *OpenAIClient) Optimize(ctx context.Context, dockerfile string) (string, error) {
	return c.complete(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(optimizeSystemPrompt),
			openai.UserMessage(optimizeInstruction + dockerfile),
		},
		Temperature: openai.Float(0),
	})
}

// Chat sends an already composed prompt.
func (c *OpenAIClient) Chat(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(chatSystemPrompt),
			openai.UserMessage(prompt),
		},
	})
}

// Metrics returns the upstream call counters.
func (c *OpenAIClient) Metrics() MetricsSnapshot {
	return c.metrics.Snapshot()
}

func (c *OpenAIClient) complete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	start := time.Now()
	text, err := c.doComplete(ctx, params)
	c.metrics.record(time.Since(start), err)
	return text, err
}

func (c *OpenAIClient) doComplete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
