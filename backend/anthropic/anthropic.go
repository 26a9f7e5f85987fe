// Package anthropic adapts orca.Generator to the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/orcarun/orca"
)

const defaultMaxTokens int64 = 1024

// Backend implements orca.Generator against the Anthropic Messages API.
type Backend struct {
	sdk       anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// Option configures a Backend.
type Option func(*Backend)

// WithModel overrides the default model.
func WithModel(m anthropic.Model) Option {
	return func(b *Backend) { b.model = m }
}

// WithMaxTokens overrides the default max-tokens budget for every request.
func WithMaxTokens(n int64) Option {
	return func(b *Backend) { b.maxTokens = n }
}

// New returns a Backend authenticated with apiKey.
func New(apiKey string, opts ...Option) *Backend {
	b := &Backend{
		sdk:       anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     anthropic.ModelClaudeSonnet4_5_20250929,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Capabilities implements orca.Generator.
func (b *Backend) Capabilities() orca.Capabilities {
	return orca.Capabilities{AcceptsText: true, AcceptsChat: true}
}

// Generate implements orca.Generator.
func (b *Backend) Generate(ctx context.Context, prompt orca.Prompt) (*orca.LLMResponse, error) {
	params := anthropic.MessageNewParams{MaxTokens: b.maxTokens, Model: b.model}

	switch p := prompt.(type) {
	case orca.TextPrompt:
		params.Messages = []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(p.Text))}
	case orca.RecordPrompt:
		params.Messages = []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(p.RenderText()))}
	case orca.ChatPromptValue:
		system, messages, err := toAnthropicMessages(p.Messages)
		if err != nil {
			return nil, err
		}
		if system != "" {
			params.System = []anthropic.TextBlockParam{{Text: system}}
		}
		params.Messages = messages
	default:
		return nil, orca.ErrWrongPromptShape
	}

	msg, err := b.sdk.Messages.New(ctx, params)
	if err != nil {
		return nil, &orca.UpstreamError{Status: 0, Body: err.Error()}
	}
	return parseMessage(msg), nil
}

func toAnthropicMessages(messages []orca.ChatMessage) (string, []anthropic.MessageParam, error) {
	var system strings.Builder
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case orca.RoleSystem:
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(m.Content)
		case orca.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case orca.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			return "", nil, fmt.Errorf("%w: unsupported role %q", orca.ErrWrongPromptShape, m.Role)
		}
	}
	return system.String(), out, nil
}

func parseMessage(msg *anthropic.Message) *orca.LLMResponse {
	var text strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}
	return &orca.LLMResponse{
		Prompt: orca.TextPrompt{Text: text.String()},
		Model:  string(msg.Model),
		Usage: &orca.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}

var _ orca.Generator = (*Backend)(nil)
