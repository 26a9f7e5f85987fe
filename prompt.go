package orca

// Prompt is a polymorphic value carrying either a rendered text body or a
// chat transcript (§3). Back-ends type-switch on the concrete variant at
// their boundary; the rest of the runtime is written once against Prompt.
type Prompt interface {
	// RenderText returns the canonical string form: the body itself for a
	// text prompt, a JSON array of messages for a chat prompt.
	RenderText() string
	// ToChat returns the message sequence if this Prompt is a ChatPrompt,
	// or ErrNotChatPrompt otherwise. A TextPrompt never succeeds here, even
	// if its body happens to parse as a JSON message array (§9 Open
	// Question 3) — chat-ness is a property of construction, not content.
	ToChat() ([]ChatMessage, error)
	// Append returns a new Prompt combining this one with other. Text
	// appends to Text by concatenation; Chat appends to Chat by sequence
	// extension; a RecordPrompt accepts a TextPrompt and yields Text. Any
	// other pairing fails with ErrIncompatiblePrompt.
	Append(other Prompt) (Prompt, error)
	// Clone returns a deep copy.
	Clone() Prompt

	isPrompt()
}

// TextPrompt is a single rendered string body.
type TextPrompt struct {
	Text string
}

func (t TextPrompt) isPrompt() {}

func (t TextPrompt) RenderText() string { return t.Text }

func (t TextPrompt) ToChat() ([]ChatMessage, error) {
	return nil, ErrNotChatPrompt
}

func (t TextPrompt) Append(other Prompt) (Prompt, error) {
	o, ok := other.(TextPrompt)
	if !ok {
		return nil, ErrIncompatiblePrompt
	}
	return TextPrompt{Text: t.Text + o.Text}, nil
}

func (t TextPrompt) Clone() Prompt { return TextPrompt{Text: t.Text} }

// ChatPromptValue is an ordered chat transcript.
type ChatPromptValue struct {
	Messages []ChatMessage
}

func (c ChatPromptValue) isPrompt() {}

func (c ChatPromptValue) RenderText() string {
	b, err := marshalChatMessages(c.Messages)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func (c ChatPromptValue) ToChat() ([]ChatMessage, error) {
	out := make([]ChatMessage, len(c.Messages))
	copy(out, c.Messages)
	return out, nil
}

func (c ChatPromptValue) Append(other Prompt) (Prompt, error) {
	o, ok := other.(ChatPromptValue)
	if !ok {
		return nil, ErrIncompatiblePrompt
	}
	merged := make([]ChatMessage, 0, len(c.Messages)+len(o.Messages))
	merged = append(merged, c.Messages...)
	merged = append(merged, o.Messages...)
	return ChatPromptValue{Messages: merged}, nil
}

func (c ChatPromptValue) Clone() Prompt {
	out := make([]ChatMessage, len(c.Messages))
	copy(out, c.Messages)
	return ChatPromptValue{Messages: out}
}

// RecordPrompt wraps a Record so it can be passed wherever a Prompt is
// expected. It renders to the record's content text and is never a chat
// prompt.
type RecordPrompt struct {
	Record Record
}

func (r RecordPrompt) isPrompt() {}

func (r RecordPrompt) RenderText() string { return r.Record.Content.String() }

func (r RecordPrompt) ToChat() ([]ChatMessage, error) {
	return nil, ErrNotChatPrompt
}

// Append renders the record to text and concatenates, yielding a TextPrompt.
// A RecordPrompt is a read-only view over a Record, not an appendable
// variant in its own right.
func (r RecordPrompt) Append(other Prompt) (Prompt, error) {
	o, ok := other.(TextPrompt)
	if !ok {
		return nil, ErrIncompatiblePrompt
	}
	return TextPrompt{Text: r.RenderText() + o.Text}, nil
}

func (r RecordPrompt) Clone() Prompt { return RecordPrompt{Record: r.Record.Clone()} }

var (
	_ Prompt = TextPrompt{}
	_ Prompt = ChatPromptValue{}
	_ Prompt = RecordPrompt{}
)
