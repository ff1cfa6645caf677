// Package prompt contains domain types for prompt content.
package prompt

// Message roles, matching the OpenAI chat format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat-style message with a role and text content.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Text wraps raw text as a single user message.
func Text(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}

// Breakdown is a per-role token count breakdown across a message list.
type Breakdown struct {
	System    int `json:"system"`
	User      int `json:"user"`
	Assistant int `json:"assistant"`
	Other     int `json:"other"`
	Total     int `json:"total"`
}

// Add records count tokens against the given role.
func (b *Breakdown) Add(role string, count int) {
	switch role {
	case RoleSystem:
		b.System += count
	case RoleUser:
		b.User += count
	case RoleAssistant:
		b.Assistant += count
	default:
		b.Other += count
	}
	b.Total += count
}
