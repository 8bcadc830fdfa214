package domain

// Message roles understood by the relay and the upstream chat API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is the provider-agnostic chat message shape shared by the widget,
// the relay and the LLM integration.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
