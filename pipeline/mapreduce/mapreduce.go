package mapreduce

import (
	"context"

	"github.com/orcarun/orca"
)

// Pipeline is the public map-reduce entry point: accumulate records with
// WithRecord, then Execute to fan them out across Workers map-phase workers
// and reduce the results into a single response.
type Pipeline struct {
	Engine         *orca.TemplateEngine
	Generator      orca.Generator
	MapTemplate    string
	ReduceTemplate string
	// RecordKey is the context variable name the map template's record is
	// bound under. Defaults to "record".
	RecordKey string
	// GroupKey is the context variable name the reduce template's group
	// record is bound under. Defaults to "group".
	GroupKey string
	// Workers is the map-phase pool size. Defaults to 1.
	Workers int

	records []orca.Record
}

// New returns an empty Pipeline wired to engine and generator.
func New(engine *orca.TemplateEngine, generator orca.Generator, mapTemplate, reduceTemplate string) *Pipeline {
	return &Pipeline{
		Engine:         engine,
		Generator:      generator,
		MapTemplate:    mapTemplate,
		ReduceTemplate: reduceTemplate,
		RecordKey:      "record",
		GroupKey:       "group",
		Workers:        1,
	}
}

// WithRecord appends r to the set of records the map phase will process.
func (p *Pipeline) WithRecord(r orca.Record) *Pipeline {
	p.records = append(p.records, r)
	return p
}

// WithRecords appends every record in rs.
func (p *Pipeline) WithRecords(rs []orca.Record) *Pipeline {
	p.records = append(p.records, rs...)
	return p
}

// Execute runs the map phase across Workers goroutines and then the reduce
// phase, returning the reduce generator's response.
func (p *Pipeline) Execute(ctx context.Context) (*orca.LLMResponse, error) {
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	recordKey := p.RecordKey
	if recordKey == "" {
		recordKey = "record"
	}
	groupKey := p.GroupKey
	if groupKey == "" {
		groupKey = "group"
	}
	m := &master{
		engine:         p.Engine,
		generator:      p.Generator,
		mapTemplate:    p.MapTemplate,
		reduceTemplate: p.ReduceTemplate,
		recordKey:      recordKey,
		groupKey:       groupKey,
		workers:        workers,
	}
	return m.run(ctx, p.records)
}
