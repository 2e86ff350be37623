// Package chat holds the bounded conversation history and the chat
// completion client.
package chat

import "encoding/json"

// Roles used on the wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged message in the conversation. Turns are never
// mutated after creation; serialization happens through encoding/json so
// every special character survives the trip onto the wire.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserTurn creates a user turn.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn creates an assistant turn.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// History is a bounded, ordered buffer of conversation turns. Insertion
// order is conversation order. The optional system prompt is not stored in
// the buffer and not counted against the limit; it is prepended at render
// time. History is owned exclusively by the pipeline driver and is not safe
// for concurrent use.
type History struct {
	prompt string
	limit  int
	turns  []Turn
}

// NewHistory creates a history with the given system prompt (empty for none)
// and size limit. A limit of zero keeps no turns at all.
func NewHistory(prompt string, limit int) *History {
	return &History{prompt: prompt, limit: limit}
}

// Append pushes a turn to the back, evicting the oldest turn first whenever
// the buffer would exceed the limit.
func (h *History) Append(turn Turn) {
	if h.limit == 0 {
		return
	}
	h.turns = append(h.turns, turn)
	if len(h.turns) > h.limit {
		h.turns = h.turns[1:]
	}
}

// Len returns the number of stored turns.
func (h *History) Len() int {
	return len(h.turns)
}

// Turns returns a copy of the stored turns in conversation order.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Render produces exactly the message array the chat endpoint expects: the
// system turn first when a prompt is configured, then the stored turns in
// order. Render never mutates the history, so consecutive calls yield
// identical output.
func (h *History) Render() []Turn {
	out := make([]Turn, 0, len(h.turns)+1)
	if h.prompt != "" {
		out = append(out, Turn{Role: RoleSystem, Content: h.prompt})
	}
	return append(out, h.turns...)
}

// MarshalJSON renders the history as the wire message array.
func (h *History) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Render())
}
