// Package pipeline composes a TemplateEngine and a Generator into a single
// render/generate round trip (Simple) or a chained sequence of rounds
// (Sequential). The fan-out/fan-in map-reduce shape lives in the
// pipeline/mapreduce subpackage (§4.7-§4.9).
package pipeline

import "github.com/orcarun/orca"

// Result is the outcome of one render/generate round trip: the Prompt that
// was sent, and the back-end's response.
type Result struct {
	Prompt   orca.Prompt
	Response *orca.LLMResponse
}
