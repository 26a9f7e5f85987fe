package pipeline

import (
	"context"
	"fmt"

	"github.com/orcarun/orca"
)

// Sequential chains a series of templates into one conversation: each link
// executes in turn, and its response is re-injected into the next link as a
// `{{#user}}...{{/user}}` turn before that link renders (§4.8).
type Sequential struct {
	Engine    *orca.TemplateEngine
	Generator orca.Generator

	links []string
	ctx   *orca.Context
}

// NewSequential returns an empty Sequential pipeline.
func NewSequential(engine *orca.TemplateEngine, generator orca.Generator) *Sequential {
	return &Sequential{Engine: engine, Generator: generator, ctx: orca.NewContext()}
}

// Link appends a registered template name to the chain.
func (p *Sequential) Link(templateName string) { p.links = append(p.links, templateName) }

// LoadContext sets the variable context shared by every link.
func (p *Sequential) LoadContext(ctx *orca.Context) { p.ctx = ctx }

// Execute runs each link in order, returning one Result per link.
func (p *Sequential) Execute(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, 0, len(p.links))
	var prevResponse string
	for i, name := range p.links {
		if i > 0 {
			inject := fmt.Sprintf("{{#user}}%s{{/user}}", prevResponse)
			if err := p.Engine.AddToTemplate(name, inject); err != nil {
				return nil, err
			}
		}
		prompt, err := p.Engine.Render(name, p.ctx)
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
		prevResponse = resp.Prompt.RenderText()
		results = append(results, &Result{Prompt: prompt, Response: resp})
	}
	return results, nil
}
