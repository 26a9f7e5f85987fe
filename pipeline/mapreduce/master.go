package mapreduce

import (
	"context"
	"sync"

	"github.com/orcarun/orca"
)

// master owns the worker pool for one map-reduce run: it feeds records into
// a shared task channel that every worker pulls from, collects every map
// result, builds the group record in input order, and runs the reduce phase.
type master struct {
	engine         *orca.TemplateEngine
	generator      orca.Generator
	mapTemplate    string
	reduceTemplate string
	recordKey      string
	groupKey       string
	workers        int
}

func (m *master) run(ctx context.Context, records []orca.Record) (*orca.LLMResponse, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan Task)
	results := make(chan WorkerMsg)

	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		w := &worker{
			engine:       m.engine,
			generator:    m.generator,
			templateName: m.mapTemplate,
			recordKey:    m.recordKey,
			tasks:        tasks,
			results:      results,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(ctx)
		}()
	}

	go func() {
		defer close(tasks)
		for i, r := range records {
			select {
			case tasks <- Task{Index: i, Record: r}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	msgs := make([]WorkerMsg, len(records))
	var firstErr error
	for msg := range results {
		if msg.Err != nil {
			if firstErr == nil {
				firstErr = msg.Err
				cancel()
			}
			continue
		}
		msgs[msg.Index] = msg
	}
	if firstErr != nil {
		return nil, firstErr
	}

	segments := make(orca.SegmentContent, len(records))
	for i, msg := range msgs {
		segments[i] = msg.Response
	}
	group := orca.Record{Header: "group", Content: segments}

	reduceTmpl, err := m.engine.DuplicateTemplate(m.reduceTemplate)
	if err != nil {
		return nil, &orca.ReduceFailureError{Cause: err}
	}
	rc := orca.NewContext()
	if err := rc.InsertRecord(m.groupKey, group); err != nil {
		return nil, &orca.ReduceFailureError{Cause: err}
	}
	prompt, err := orca.RenderTemplate(reduceTmpl, rc)
	if err != nil {
		return nil, &orca.ReduceFailureError{Cause: err}
	}
	resp, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, &orca.ReduceFailureError{Cause: err}
	}
	return resp, nil
}
