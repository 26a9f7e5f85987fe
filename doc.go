// Package orca composes prompt templates, LLM back-ends, document records, and
// a vector-search index into reusable pipelines. A caller registers named
// templates on a TemplateEngine, supplies a Context of values, and executes a
// Pipeline; the engine renders a Prompt, the pipeline dispatches it to a
// back-end, optionally threads it through Memory, and returns a
// pipeline.Result.
package orca
