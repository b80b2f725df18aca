package oracle

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		// Log the actual error for debugging (this helps users diagnose API key issues)
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// Judge asks the model whether the source text supports the statement.
func (p *OpenAIProvider) Judge(ctx context.Context, req JudgeRequest) (*Judgment, error) {
	raw, err := p.complete(ctx, judgeSystemPrompt, buildJudgeUserPrompt(req), req.Model)
	if err != nil {
		return nil, err
	}
	return parseJudgment(raw)
}

// Extract asks the model to propose candidate claims from source text.
func (p *OpenAIProvider) Extract(ctx context.Context, req ExtractRequest) ([]ExtractedClaim, error) {
	raw, err := p.complete(ctx, extractSystemPrompt, buildExtractUserPrompt(req), req.Model)
	if err != nil {
		return nil, err
	}
	return parseExtraction(raw)
}

// complete runs one chat completion under the per-call timeout.
func (p *OpenAIProvider) complete(ctx context.Context, system, user, model string) (string, error) {
	if model == "" {
		model = p.config.Model
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: 0, // Deterministic output for verification work
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return "", fmt.Errorf("%w: openai: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response from openai", ErrUnavailable)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
