package usecase

import "chat-pipeline/internal/domain"

// BuildContext maps conversation history onto the role+text turn sequence
// the generation backends accept. Structured content is flattened to its
// canonical text serialization; the backend contract is text-per-turn even
// though stored content may be multi-part.
func BuildContext(history []domain.Message) []domain.ChatMessage {
	turns := make([]domain.ChatMessage, 0, len(history))
	for _, msg := range history {
		turns = append(turns, domain.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content.PromptText(),
		})
	}
	return turns
}
