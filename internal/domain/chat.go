package domain

// ChatMessage is the provider-agnostic role+text turn shape fed to the
// generation backends. Stored structured content is flattened to text via
// Content.PromptText before it becomes a ChatMessage.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
