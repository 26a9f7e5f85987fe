package pipeline

import (
	"context"
	"testing"

	"go.uber.org/goleak"

	"github.com/orcarun/orca"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeGenerator is an orca.Generator stub that echoes the rendered prompt
// back with a fixed suffix, recording every prompt it was asked to
// generate.
type fakeGenerator struct {
	caps     orca.Capabilities
	suffix   string
	seen     []orca.Prompt
	failNext bool
}

func newFakeGenerator(suffix string) *fakeGenerator {
	return &fakeGenerator{
		caps:   orca.Capabilities{AcceptsText: true, AcceptsChat: true},
		suffix: suffix,
	}
}

func (g *fakeGenerator) Generate(_ context.Context, prompt orca.Prompt) (*orca.LLMResponse, error) {
	g.seen = append(g.seen, prompt)
	if g.failNext {
		return nil, errBoom
	}
	return &orca.LLMResponse{
		Prompt: orca.TextPrompt{Text: prompt.RenderText() + g.suffix},
		Model:  "fake-model",
	}, nil
}

func (g *fakeGenerator) Capabilities() orca.Capabilities { return g.caps }

var errBoom = textErr("boom")

type textErr string

func (e textErr) Error() string { return string(e) }
