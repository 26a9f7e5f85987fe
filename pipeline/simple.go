package pipeline

import (
	"context"

	"github.com/orcarun/orca"
)

// Simple is a single render/generate round trip: load a template, a
// context, optionally a record and a memory, then execute (§4.7).
type Simple struct {
	Engine    *orca.TemplateEngine
	Generator orca.Generator
	Memory    orca.Memory

	templateName string
	ctx          *orca.Context
}

// NewSimple returns a Simple pipeline backed by engine and generator.
func NewSimple(engine *orca.TemplateEngine, generator orca.Generator) *Simple {
	return &Simple{Engine: engine, Generator: generator, ctx: orca.NewContext()}
}

// LoadTemplate selects the registered template to render.
func (p *Simple) LoadTemplate(name string) { p.templateName = name }

// LoadContext replaces the pipeline's variable context.
func (p *Simple) LoadContext(ctx *orca.Context) { p.ctx = ctx }

// LoadRecord inserts r's content into the context under key.
func (p *Simple) LoadRecord(key string, r orca.Record) error {
	return p.ctx.InsertRecord(key, r)
}

// LoadMemory attaches a Memory whose Load() output is available to the
// template under the "memory" variable, and which is updated with the
// rendered prompt and response after Execute.
func (p *Simple) LoadMemory(m orca.Memory) { p.Memory = m }

// DuplicateTemplate returns an unregistered copy of the loaded template, for
// callers that need to mutate it without touching the shared registry.
func (p *Simple) DuplicateTemplate() (*orca.Template, error) {
	return p.Engine.DuplicateTemplate(p.templateName)
}

// Execute renders the loaded template and dispatches it to the generator.
func (p *Simple) Execute(ctx context.Context) (*Result, error) {
	if p.Memory != nil {
		p.ctx.Set("memory", p.Memory.Load())
	}
	prompt, err := p.Engine.Render(p.templateName, p.ctx)
	if err != nil {
		return nil, err
	}
	if err := p.Generator.Capabilities().CheckShape(prompt); err != nil {
		return nil, err
	}
	resp, err := p.Generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if p.Memory != nil {
		p.Memory.Save(prompt.RenderText(), resp.Prompt.RenderText())
	}
	return &Result{Prompt: prompt, Response: resp}, nil
}
