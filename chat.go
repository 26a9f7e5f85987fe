package orca

import "encoding/json"

// marshalChatMessages renders a chat transcript to its canonical JSON array
// form, the same shape a {{#chat}} template block produces.
func marshalChatMessages(messages []ChatMessage) ([]byte, error) {
	if messages == nil {
		messages = []ChatMessage{}
	}
	return json.Marshal(messages)
}
