package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// The backend and older providers still emit "model" for assistant turns.
	ChatMessageRoleModel = "model"
)

const (
	// Conversation titles announced locally before the backend lists them.
	ConversationTitleMaxRunes = 50
	DefaultConversationTitle  = "New conversation"

	// Provider selection left empty lets the backend choose its default.
	DefaultProviderLabel = "default"
)

// Backend endpoints, relative to the configured API base URL.
const (
	EndpointLogin         = "/auth/login"
	EndpointProviders     = "/llm/providers"
	EndpointChat          = "/chat/"
	EndpointConversations = "/chat/conversations"
	EndpointHistory       = "/chat/history"
)
