package mapreduce

import (
	"context"

	"github.com/orcarun/orca"
)

// worker pulls tasks from a shared channel and renders+generates each
// against an independently duplicated copy of the map template, so
// concurrent workers never mutate a shared Template.
type worker struct {
	engine       *orca.TemplateEngine
	generator    orca.Generator
	templateName string
	recordKey    string
	tasks        <-chan Task
	results      chan<- WorkerMsg
}

func (w *worker) run(ctx context.Context) {
	for t := range w.tasks {
		msg := WorkerMsg{Index: t.Index, RecordName: t.Record.Header}
		tmpl, err := w.engine.DuplicateTemplate(w.templateName)
		if err != nil {
			msg.Err = &orca.MapFailureError{RecordName: t.Record.Header, Cause: err}
			w.results <- msg
			continue
		}
		c := orca.NewContext()
		if err := c.InsertRecord(w.recordKey, t.Record); err != nil {
			msg.Err = &orca.MapFailureError{RecordName: t.Record.Header, Cause: err}
			w.results <- msg
			continue
		}
		prompt, err := orca.RenderTemplate(tmpl, c)
		if err != nil {
			msg.Err = &orca.MapFailureError{RecordName: t.Record.Header, Cause: err}
			w.results <- msg
			continue
		}
		resp, err := w.generator.Generate(ctx, prompt)
		if err != nil {
			msg.Err = &orca.MapFailureError{RecordName: t.Record.Header, Cause: err}
			w.results <- msg
			continue
		}
		msg.Response = resp.Prompt.RenderText()
		w.results <- msg
	}
}
