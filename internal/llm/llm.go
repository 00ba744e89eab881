package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pavelanni/conceptbridge/internal/llm/prompts"
	"github.com/pavelanni/conceptbridge/internal/quiz"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api      *openai.Client
	model    string
	jsonMode bool
}

// New creates a new LLM client. With jsonMode the request asks the server for
// a JSON object response; not every OpenAI-compatible server supports it.
func New(baseURL, apiKey, modelName string, jsonMode bool) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:      openai.NewClientWithConfig(config),
		model:    modelName,
		jsonMode: jsonMode,
	}
}

// Ping checks that the endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// Generate asks the model for numQuestions multiple-choice items about the
// transcript and returns the raw response text for the quiz parser.
func (c *Client) Generate(ctx context.Context, transcript string, numQuestions int) (string, error) {
	system, user, err := prompts.BuildQuizPrompt(transcript, numQuestions, quiz.OptionsPerQuestion)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.4,
	}
	if c.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)
	return raw, nil
}
