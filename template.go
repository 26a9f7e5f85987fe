package orca

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Template is a compiled, named piece of template source. It is safe to
// render concurrently; the owning TemplateEngine's AddToTemplate replaces
// a registered Template under its write lock rather than mutating it.
type Template struct {
	Name   string
	Source string
	nodes  []node
}

// compileTemplate parses src into a Template named name.
func compileTemplate(name, src string) (*Template, error) {
	nodes, err := parseTemplate(src)
	if err != nil {
		return nil, &RenderError{Template: name, Err: err}
	}
	return &Template{Name: name, Source: src, nodes: nodes}, nil
}

// Clone returns a copy of t whose fields can be changed without affecting
// the original. The copy is not registered on any engine.
func (t *Template) Clone() *Template {
	out := *t
	out.nodes = append([]node(nil), t.nodes...)
	return &out
}

// TemplateEngine owns a named registry of compiled templates and renders
// them against a Context into a Prompt (§4.2).
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine returns an empty engine.
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{templates: make(map[string]*Template)}
}

// RegisterTemplate compiles src and stores it under name, overwriting any
// existing template with that name.
func (e *TemplateEngine) RegisterTemplate(name, src string) error {
	tmpl, err := compileTemplate(name, src)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[name] = tmpl
	return nil
}

// GetTemplate returns the template registered under name.
func (e *TemplateEngine) GetTemplate(name string) (*Template, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	tmpl, ok := e.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return tmpl, nil
}

// DuplicateTemplate returns an independent copy of the template registered
// under name, without registering the copy. Pipelines use this to branch a
// template per record without disturbing the shared registry (§4.7, §4.9).
func (e *TemplateEngine) DuplicateTemplate(name string) (*Template, error) {
	tmpl, err := e.GetTemplate(name)
	if err != nil {
		return nil, err
	}
	return tmpl.Clone(), nil
}

// AddToTemplate appends extra source to the template registered under name
// and recompiles it in place. Used by SequentialPipeline to re-inject a
// `{{#user}}...{{/user}}` turn between links (§4.8).
func (e *TemplateEngine) AddToTemplate(name, extraSource string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	tmpl, ok := e.templates[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	merged, err := compileTemplate(name, injectSource(tmpl.Source, extraSource))
	if err != nil {
		return err
	}
	e.templates[name] = merged
	return nil
}

// injectSource appends extra to src. When src is wrapped in a {{#chat}}
// envelope, the envelope is stripped, extra is concatenated inside it, and
// the envelope is restored, so the injected turn lands inside the chat array
// rather than as a sibling fragment trailing it (§4.2: "the engine strips
// the envelope, concatenates, and re-wraps").
func injectSource(src, extra string) string {
	const chatOpen, chatClose = "{{#chat}}", "{{/chat}}"
	trimmed := strings.TrimSpace(src)
	if strings.HasPrefix(trimmed, chatOpen) && strings.HasSuffix(trimmed, chatClose) {
		body := trimmed[len(chatOpen) : len(trimmed)-len(chatClose)]
		return chatOpen + body + extra + chatClose
	}
	return src + extra
}

// Render renders the named template against ctx and classifies the result
// as a chat or text Prompt.
func (e *TemplateEngine) Render(name string, ctx *Context) (Prompt, error) {
	tmpl, err := e.GetTemplate(name)
	if err != nil {
		return nil, err
	}
	return RenderTemplate(tmpl, ctx)
}

// RenderTemplate renders tmpl directly, bypassing the registry. Pipelines
// use this on duplicated templates that were never registered.
func RenderTemplate(tmpl *Template, ctx *Context) (Prompt, error) {
	scope := &renderScope{frame: ctx.Map()}
	var sb strings.Builder
	if err := renderNodes(tmpl.nodes, &sb, scope); err != nil {
		return nil, &RenderError{Template: tmpl.Name, Err: err}
	}
	return classifyRendered(tmpl.Name, sb.String())
}

// classifyRendered decides whether rendered output is a chat array or a
// plain text body (§4.2 rule 5): output that looks like a JSON array is
// required to parse as one, or the render fails loudly rather than silently
// falling back to text.
func classifyRendered(name, rendered string) (Prompt, error) {
	trimmed := strings.TrimSpace(rendered)
	if !strings.HasPrefix(trimmed, "[") {
		return TextPrompt{Text: rendered}, nil
	}
	var messages []ChatMessage
	if err := json.Unmarshal([]byte(trimmed), &messages); err != nil {
		return nil, &RenderError{Template: name, Err: fmt.Errorf("%w: %v", ErrMalformedChat, err)}
	}
	return ChatPromptValue{Messages: messages}, nil
}
