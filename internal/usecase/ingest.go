package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"chat-pipeline/internal/domain"
	"chat-pipeline/internal/queue"
	"chat-pipeline/internal/repository"
)

const (
	// GET /messages upper limit, enforced rather than silently clamped.
	maxMessagesLimit = 100

	userMessageSource = "api"
)

// ChatService is the ingestion-side service: it persists user turns,
// enqueues processing jobs and serves conversation reads.
type ChatService struct {
	store repository.Store
	queue queue.Publisher

	now   func() time.Time
	newID func() string
}

// SubmitInput is one inbound chat request.
type SubmitInput struct {
	UserID    string
	SessionID string
	Content   string
}

// SubmitOutput acknowledges an accepted request; the caller polls
// conversation state with the returned message ID and timestamp.
type SubmitOutput struct {
	MessageID string
	Status    string
	Timestamp string
}

// NewChatService creates the ingestion service.
func NewChatService(store repository.Store, q queue.Publisher) (*ChatService, error) {
	if store == nil {
		return nil, errors.New("usecase: store must not be nil")
	}
	if q == nil {
		return nil, errors.New("usecase: queue must not be nil")
	}
	return &ChatService{
		store: store,
		queue: q,
		now:   time.Now,
		newID: uuid.NewString,
	}, nil
}

// Submit validates the request, persists the user turn, then enqueues a job
// referencing it. An enqueue failure after the write leaves the turn durable
// but unprocessed; there is no compensating delete, and the caller must
// treat the request as failed.
func (s *ChatService) Submit(ctx context.Context, in SubmitInput) (SubmitOutput, error) {
	if in.UserID == "" || in.SessionID == "" || in.Content == "" {
		return SubmitOutput{}, newError(ErrorValidation, "missing_required_fields", nil)
	}

	messageID := s.newID()
	timestamp := domain.Timestamp(s.now())

	msg := domain.Message{
		PK:            domain.PartitionKey(in.UserID, in.SessionID),
		SK:            timestamp,
		MessageID:     messageID,
		Role:          domain.RoleUser,
		Content:       domain.TextContent(in.Content),
		CreatedAt:     timestamp,
		SessionStatus: domain.SessionStatusActive,
		Metadata: domain.Metadata{User: &domain.UserMetadata{
			Tokens: domain.CountTokens(in.Content),
			Source: userMessageSource,
		}},
	}

	if err := s.store.Append(ctx, msg); err != nil {
		return SubmitOutput{}, newError(ErrorStorage, "store_write_error", err)
	}
	slog.Info("saved user message", "message_id", messageID)

	job := domain.Job{
		UserID:    in.UserID,
		SessionID: in.SessionID,
		MessageID: messageID,
		Timestamp: timestamp,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		// The user turn is already durable and will never be processed.
		return SubmitOutput{}, newError(ErrorDownstream, "enqueue_error", err)
	}

	return SubmitOutput{
		MessageID: messageID,
		Status:    "processing",
		Timestamp: timestamp,
	}, nil
}

// GetMessages returns up to limit messages of a conversation in
// chronological order. limit must stay within [1, 100]; out-of-range values
// are rejected, not clamped. The absent-parameter default lives at the HTTP
// boundary.
func (s *ChatService) GetMessages(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error) {
	if userID == "" || sessionID == "" {
		return nil, newError(ErrorValidation, "missing_required_fields", nil)
	}
	if limit < 1 || limit > maxMessagesLimit {
		return nil, newError(ErrorValidation, "limit_out_of_range", nil)
	}

	msgs, err := s.store.QueryRecent(ctx, userID, sessionID, limit)
	if err != nil {
		return nil, newError(ErrorStorage, "store_read_error", err)
	}
	return msgs, nil
}

// ListSessions returns the user's active session IDs as an unordered,
// deduplicated set.
func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, newError(ErrorValidation, "missing_user_id", nil)
	}

	sessions, err := s.store.ListActiveSessionIDs(ctx, userID)
	if err != nil {
		return nil, newError(ErrorStorage, "store_read_error", err)
	}
	return sessions, nil
}
