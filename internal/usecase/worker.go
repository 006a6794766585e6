package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"chat-pipeline/internal/domain"
	"chat-pipeline/internal/llm"
	"chat-pipeline/internal/repository"
)

const defaultHistoryLimit = 20

// WorkerService processes one job at a time through a strict linear
// sequence: load history, build context, invoke generation, persist the
// reply. Any failure propagates so the queue redelivers and the whole
// sequence restarts; there is no partial resume. A job that failed after
// generation will regenerate on redelivery, which can produce a second
// assistant turn citing the same user message. That duplication is a known
// gap of the at-least-once design, left in place deliberately.
type WorkerService struct {
	store        repository.Store
	backend      llm.Backend
	historyLimit int

	now   func() time.Time
	newID func() string
}

// NewWorkerService creates the worker service. historyLimit bounds the
// context window read for each job; values <= 0 fall back to 20.
func NewWorkerService(store repository.Store, backend llm.Backend, historyLimit int) (*WorkerService, error) {
	if store == nil {
		return nil, errors.New("usecase: store must not be nil")
	}
	if backend == nil {
		return nil, errors.New("usecase: backend must not be nil")
	}
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &WorkerService{
		store:        store,
		backend:      backend,
		historyLimit: historyLimit,
		now:          time.Now,
		newID:        uuid.NewString,
	}, nil
}

// ProcessJob runs one delivered job to completion. Returning nil
// acknowledges the job; any error tells the channel to redeliver it.
func (s *WorkerService) ProcessJob(ctx context.Context, job domain.Job) error {
	if job.UserID == "" || job.SessionID == "" || job.MessageID == "" {
		return newError(ErrorValidation, "malformed_job_payload", nil)
	}
	slog.Info("processing job", "message_id", job.MessageID)

	history, err := s.store.QueryRecent(ctx, job.UserID, job.SessionID, s.historyLimit)
	if err != nil {
		return newError(ErrorStorage, "history_read_error", err)
	}
	slog.Info("loaded conversation history", "message_id", job.MessageID, "turns", len(history))

	turns := BuildContext(history)

	// Generation dominates pipeline cost and is the only externally
	// variable step, so latency is measured here and nowhere else.
	start := s.now()
	resp, err := s.backend.Generate(ctx, turns)
	latency := s.now().Sub(start)
	if err != nil {
		return newError(ErrorGeneration, "generate_error", err)
	}

	timestamp := domain.Timestamp(s.now())
	reply := domain.Message{
		PK:            domain.PartitionKey(job.UserID, job.SessionID),
		SK:            timestamp,
		MessageID:     s.newID(),
		Role:          domain.RoleAssistant,
		Content:       resp.Content,
		CreatedAt:     timestamp,
		SessionStatus: domain.SessionStatusActive,
		Model:         s.backend.ModelID(),
		Metadata: domain.Metadata{Assistant: &domain.AssistantMetadata{
			LatencyMs:     latency.Milliseconds(),
			InputTokens:   resp.Usage.InputTokens,
			OutputTokens:  resp.Usage.OutputTokens,
			UserMessageID: job.MessageID,
		}},
	}

	if err := s.store.Append(ctx, reply); err != nil {
		return newError(ErrorStorage, "reply_write_error", err)
	}
	slog.Info("saved assistant message",
		"message_id", reply.MessageID,
		"user_message_id", job.MessageID,
		"latency_ms", latency.Milliseconds(),
	)
	return nil
}
