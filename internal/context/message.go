package context

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a model-agnostic chat message used across the context pipeline.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage wraps text as a single user turn.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// SystemMessage wraps text as a single system turn.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}
