package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"chat-pipeline/internal/domain"
)

// sqsAPI is the minimal SQS interface required by Client.
// Defined here for testability.
type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher defines the job enqueue operation consumed by the ingestion
// service. The queue provides at-least-once delivery; publishing is
// fire-and-forget from the caller's perspective.
type Publisher interface {
	Enqueue(ctx context.Context, job domain.Job) error
}

// Client publishes job descriptors to an SQS queue.
type Client struct {
	api      sqsAPI
	queueURL string
}

// New creates a new queue Client.
func New(api sqsAPI, queueURL string) (*Client, error) {
	if api == nil {
		return nil, errors.New("queue: api must not be nil")
	}
	if strings.TrimSpace(queueURL) == "" {
		return nil, errors.New("queue: queue URL must not be empty")
	}
	return &Client{api: api, queueURL: queueURL}, nil
}

// Enqueue sends the job as a JSON message body.
func (c *Client) Enqueue(ctx context.Context, job domain.Job) error {
	if job.UserID == "" || job.SessionID == "" || job.MessageID == "" {
		return errors.New("queue: Enqueue: user, session and message IDs are required")
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: Enqueue marshal: %w", err)
	}

	_, err = c.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("queue: Enqueue send: %w", err)
	}
	slog.Info("enqueued job", "message_id", job.MessageID)
	return nil
}
