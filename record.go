package orca

import "strings"

// contentSeparator joins multiple content segments into their canonical
// string form.
const contentSeparator = "\n******************\n"

// Content is a Record's payload: either a single string or an ordered list
// of string segments produced by a split.
type Content interface {
	String() string
	Clone() Content
	isContent()
}

// TextContent is a single unsegmented string body.
type TextContent string

func (c TextContent) isContent()     {}
func (c TextContent) String() string { return string(c) }
func (c TextContent) Clone() Content { return c }

// SegmentContent is an ordered list of string segments, as produced by
// Record.Split.
type SegmentContent []string

func (c SegmentContent) isContent() {}

func (c SegmentContent) String() string {
	return strings.Join([]string(c), contentSeparator)
}

func (c SegmentContent) Clone() Content {
	out := make(SegmentContent, len(c))
	copy(out, c)
	return out
}

// Record is a retrievable unit of content: a header, a body, and free-form
// metadata. Records are the unit embedded, indexed, and retrieved by a
// VectorStore, and may also stand in for a Prompt via RecordPrompt.
type Record struct {
	Header   string
	Content  Content
	Metadata map[string]string
}

// NewRecord builds a Record with TextContent and no metadata.
func NewRecord(header, body string) Record {
	return Record{Header: header, Content: TextContent(body)}
}

// WithMetadata returns a copy of r with key set in its metadata map.
func (r Record) WithMetadata(key, value string) Record {
	out := r.Clone()
	if out.Metadata == nil {
		out.Metadata = make(map[string]string, 1)
	}
	out.Metadata[key] = value
	return out
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := Record{Header: r.Header}
	if r.Content != nil {
		out.Content = r.Content.Clone()
	}
	if r.Metadata != nil {
		out.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// TokenCounter estimates the number of tokens a string would consume
// against some model's tokenizer. Implementations may be exact (a real
// tokenizer) or approximate.
type TokenCounter interface {
	Count(s string) int
}

// CharFallbackCounter approximates token count as rune count divided by
// CharsPerToken, used when no real tokenizer is configured.
type CharFallbackCounter struct {
	CharsPerToken int
}

// Count implements TokenCounter.
func (c CharFallbackCounter) Count(s string) int {
	perToken := c.CharsPerToken
	if perToken <= 0 {
		perToken = 4
	}
	n := len([]rune(s))
	if n == 0 {
		return 0
	}
	count := n / perToken
	if n%perToken != 0 {
		count++
	}
	return count
}

// Split breaks the record's content into chunks contiguous substrings and
// returns one Record per chunk, each carrying the same header and metadata.
// chunks must be >= 1. Splitting is on rune boundaries, by even share of the
// total length; it does not respect token or word boundaries.
func (r Record) Split(chunks int) []Record {
	return r.splitBy(chunks, nil)
}

// SplitWithTokenizer behaves like Split but sizes each chunk by counter's
// token estimate rather than raw length, so segments aim for a roughly even
// token budget instead of a roughly even character count.
func (r Record) SplitWithTokenizer(chunks int, counter TokenCounter) []Record {
	return r.splitBy(chunks, counter)
}

func (r Record) splitBy(chunks int, counter TokenCounter) []Record {
	if chunks < 1 {
		chunks = 1
	}
	body := r.Content.String()
	runes := []rune(body)
	if len(runes) == 0 || chunks == 1 {
		return []Record{r.Clone()}
	}

	weight := func(s string) int {
		if counter != nil {
			return counter.Count(s)
		}
		return len([]rune(s))
	}
	total := weight(body)
	target := total / chunks
	if target < 1 {
		target = 1
	}

	var segments []string
	start := 0
	for start < len(runes) {
		// Once chunks-1 segments exist, the rest of the body folds into one
		// final chunk, so an uneven remainder never grows the result past
		// chunks segments.
		if len(segments) == chunks-1 {
			segments = append(segments, string(runes[start:]))
			break
		}
		end := start
		for end < len(runes) && weight(string(runes[start:end])) < target {
			end++
		}
		if end <= start {
			end = start + 1
		}
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
		start = end
	}

	out := make([]Record, len(segments))
	for i, seg := range segments {
		c := r.Clone()
		c.Content = TextContent(seg)
		out[i] = c
	}
	return out
}
