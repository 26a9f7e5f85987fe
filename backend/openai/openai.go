// Package openai adapts orca.Generator and orca.Embedder to the OpenAI
// Chat Completions and Embeddings APIs.
package openai

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/orcarun/orca"
)

// Backend implements orca.Generator and orca.Embedder against OpenAI.
type Backend struct {
	sdk            openai.Client
	model          shared.ChatModel
	embeddingModel openai.EmbeddingModel
}

// Option configures a Backend.
type Option func(*Backend)

// WithModel overrides the default chat completion model.
func WithModel(m shared.ChatModel) Option {
	return func(b *Backend) { b.model = m }
}

// WithEmbeddingModel overrides the default embedding model.
func WithEmbeddingModel(m openai.EmbeddingModel) Option {
	return func(b *Backend) { b.embeddingModel = m }
}

// New returns a Backend authenticated with apiKey.
func New(apiKey string, opts ...Option) *Backend {
	b := &Backend{
		sdk:            openai.NewClient(option.WithAPIKey(apiKey)),
		model:          openai.ChatModelGPT4o,
		embeddingModel: openai.EmbeddingModelTextEmbedding3Small,
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
	var messages []openai.ChatCompletionMessageParamUnion

	switch p := prompt.(type) {
	case orca.TextPrompt:
		messages = []openai.ChatCompletionMessageParamUnion{openai.UserMessage(p.Text)}
	case orca.RecordPrompt:
		messages = []openai.ChatCompletionMessageParamUnion{openai.UserMessage(p.RenderText())}
	case orca.ChatPromptValue:
		messages = make([]openai.ChatCompletionMessageParamUnion, 0, len(p.Messages))
		for _, m := range p.Messages {
			switch m.Role {
			case orca.RoleSystem:
				messages = append(messages, openai.SystemMessage(m.Content))
			case orca.RoleUser:
				messages = append(messages, openai.UserMessage(m.Content))
			case orca.RoleAssistant:
				messages = append(messages, openai.AssistantMessage(m.Content))
			default:
				return nil, orca.ErrWrongPromptShape
			}
		}
	default:
		return nil, orca.ErrWrongPromptShape
	}

	completion, err := b.sdk.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    b.model,
	})
	if err != nil {
		return nil, &orca.UpstreamError{Status: 0, Body: err.Error()}
	}
	if len(completion.Choices) == 0 {
		return nil, &orca.ResponseParseError{Err: orca.ErrMalformedChat}
	}
	text := completion.Choices[0].Message.Content
	return &orca.LLMResponse{
		Prompt: orca.TextPrompt{Text: text},
		Model:  string(completion.Model),
		Usage: &orca.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}

// Embed implements orca.Embedder.
func (b *Backend) Embed(ctx context.Context, text string) (orca.Embedding, error) {
	resp, err := b.sdk.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: b.embeddingModel,
	})
	if err != nil {
		return nil, &orca.UpstreamError{Status: 0, Body: err.Error()}
	}
	if len(resp.Data) == 0 {
		return nil, &orca.ResponseParseError{Err: orca.ErrMalformedChat}
	}
	vec := resp.Data[0].Embedding
	out := make(orca.Embedding, len(vec))
	for i, f := range vec {
		out[i] = float32(f)
	}
	return out, nil
}

var (
	_ orca.Generator = (*Backend)(nil)
	_ orca.Embedder  = (*Backend)(nil)
)
