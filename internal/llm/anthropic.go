package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
)

const (
	// MiniMaxBaseURL is the Anthropic-compatible endpoint of the MiniMax domestic API
	MiniMaxBaseURL = "https://api.minimaxi.com/anthropic/v1"
	// MiniMaxModel is the default model served by MiniMaxBaseURL
	MiniMaxModel = "MiniMax-M2.1"

	defaultClaudeModel = "claude-sonnet-4-20250514"
)

// AnthropicProvider implements Provider for any endpoint speaking the
// Anthropic Messages API (Anthropic itself, MiniMax)
type AnthropicProvider struct {
	name   string
	model  string
	client *anthropic.Client
}

// AnthropicConfig holds configuration for an Anthropic-compatible provider
type AnthropicConfig struct {
	Name    string // registry name, default: claude
	APIKey  string
	BaseURL string // default: https://api.anthropic.com/v1
	Model   string // default: claude-sonnet-4-20250514
	Timeout time.Duration
}

// NewAnthropicProvider creates a new Anthropic-compatible provider
func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	if cfg.Name == "" {
		cfg.Name = "claude"
	}
	if cfg.Model == "" {
		cfg.Model = defaultClaudeModel
	}

	opts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(newLLMHTTPClient(cfg.Timeout)),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}

	return &AnthropicProvider{
		name:   cfg.Name,
		model:  cfg.Model,
		client: anthropic.NewClient(cfg.APIKey, opts...),
	}
}

// NewMiniMaxProvider creates a provider for the MiniMax Anthropic-compatible API
func NewMiniMaxProvider(apiKey, model string, timeout time.Duration) *AnthropicProvider {
	if model == "" {
		model = MiniMaxModel
	}
	return NewAnthropicProvider(AnthropicConfig{
		Name:    "minimax",
		APIKey:  apiKey,
		BaseURL: MiniMaxBaseURL,
		Model:   model,
		Timeout: timeout,
	})
}

func (p *AnthropicProvider) Name() string {
	return p.name
}

func (p *AnthropicProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	resp, err := p.client.CreateMessages(ctx, p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	content := extractText(p.name, resp)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	return &Response{
		Content:      content,
		FinishReason: string(resp.StopReason),
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}

func (p *AnthropicProvider) buildRequest(req *Request) anthropic.MessagesRequest {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	system := req.System
	messages := make([]anthropic.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = m.Content
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantTextMessage(m.Content))
		default:
			messages = append(messages, anthropic.NewUserTextMessage(m.Content))
		}
	}

	out := anthropic.MessagesRequest{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		out.Temperature = &temp
	}
	return out
}

// extractText concatenates the text blocks of a reply. Reasoning models behind
// compatible endpoints may leak thinking blocks; those are logged, not returned.
func extractText(provider string, resp anthropic.MessagesResponse) string {
	var b strings.Builder
	thinking := 0
	for _, block := range resp.Content {
		switch {
		case block.Type == anthropic.MessagesContentTypeText && block.Text != nil:
			b.WriteString(*block.Text)
		case string(block.Type) == "thinking":
			thinking++
		}
	}

	if thinking > 0 {
		slog.Debug("dropped thinking blocks from reply", "provider", provider, "blocks", thinking)
	}
	if b.Len() == 0 {
		slog.Debug("reply has no text block", "provider", provider, "blocks", len(resp.Content))
	}
	return b.String()
}
