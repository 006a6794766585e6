package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"chat-pipeline/internal/domain"
)

// JobProcessor is the worker-side contract consumed by the SQS handler.
type JobProcessor interface {
	ProcessJob(ctx context.Context, job domain.Job) error
}

// Worker consumes SQS events. Every failure is returned to the Lambda
// runtime so the queue's redelivery and dead-lettering apply; the handler
// never swallows an error.
type Worker struct {
	proc JobProcessor
}

// NewWorker creates the SQS worker handler.
func NewWorker(proc JobProcessor) (*Worker, error) {
	if proc == nil {
		return nil, errors.New("handler: job processor must not be nil")
	}
	return &Worker{proc: proc}, nil
}

// Handle processes each record of the batch in order and stops at the first
// failure.
func (w *Worker) Handle(ctx context.Context, event events.SQSEvent) error {
	slog.Info("worker invoked", "records", len(event.Records))

	for _, record := range event.Records {
		var job domain.Job
		if err := json.Unmarshal([]byte(record.Body), &job); err != nil {
			return fmt.Errorf("handler: decode job payload %s: %w", record.MessageId, err)
		}
		if err := w.proc.ProcessJob(ctx, job); err != nil {
			return fmt.Errorf("handler: process job %s: %w", record.MessageId, err)
		}
	}
	return nil
}
