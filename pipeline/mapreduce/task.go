// Package mapreduce fans a record set out across a worker pool that each
// render and generate against a map template, then feeds the concatenated
// map outputs through a reduce template (§4.9).
package mapreduce

import "github.com/orcarun/orca"

// Task is one unit of map-phase work: render the map template against a
// single record.
type Task struct {
	Index  int
	Record orca.Record
}

// WorkerMsg is a worker's report back to the master for one completed (or
// failed) Task.
type WorkerMsg struct {
	Index      int
	RecordName string
	Response   string
	Err        error
}
