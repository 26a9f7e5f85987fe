package orca

import "context"

// Embedding is a dense vector produced by an Embedder.
type Embedding []float32

// LLMResponse is a back-end's answer to a Generate call.
type LLMResponse struct {
	Prompt Prompt
	Model  string
	// Usage is a provider-reported token accounting, if any; nil when the
	// back-end does not report it.
	Usage *Usage
}

// Usage reports token accounting for a single Generate call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Capabilities reports what prompt shapes a Generator accepts, so a
// pipeline can fail fast with ErrWrongPromptShape instead of dispatching a
// request the back-end cannot serve.
type Capabilities struct {
	AcceptsText bool
	AcceptsChat bool
}

// Generator dispatches a rendered Prompt to a remote or local LLM and
// returns its response (§4.4). Implementations live in backend/* submodules
// so the root module never imports a provider SDK directly.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (*LLMResponse, error)
	Capabilities() Capabilities
}

// Embedder produces a vector embedding for a string. Implementations live
// alongside their Generator counterpart in a backend/* submodule.
type Embedder interface {
	Embed(ctx context.Context, text string) (Embedding, error)
}

// CheckShape validates that prompt's concrete kind is one caps declares
// support for, returning ErrWrongPromptShape otherwise.
func (caps Capabilities) CheckShape(prompt Prompt) error {
	switch prompt.(type) {
	case TextPrompt, RecordPrompt:
		if !caps.AcceptsText {
			return ErrWrongPromptShape
		}
	case ChatPromptValue:
		if !caps.AcceptsChat {
			return ErrWrongPromptShape
		}
	}
	return nil
}
