package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"chat-pipeline/internal/domain"
)

type stubProcessor struct {
	errs map[string]error
	jobs []domain.Job
}

func (s *stubProcessor) ProcessJob(_ context.Context, job domain.Job) error {
	s.jobs = append(s.jobs, job)
	return s.errs[job.MessageID]
}

func sqsEvent(bodies ...string) events.SQSEvent {
	event := events.SQSEvent{}
	for i, body := range bodies {
		event.Records = append(event.Records, events.SQSMessage{
			MessageId: string(rune('a' + i)),
			Body:      body,
		})
	}
	return event
}

func TestNewWorker_ValidatesDependency(t *testing.T) {
	_, err := NewWorker(nil)
	require.Error(t, err)
}

func TestWorkerHandle_ProcessesBatchInOrder(t *testing.T) {
	proc := &stubProcessor{}
	w, err := NewWorker(proc)
	require.NoError(t, err)

	err = w.Handle(context.Background(), sqsEvent(
		`{"user_id":"u1","session_id":"s1","message_id":"m1"}`,
		`{"user_id":"u1","session_id":"s1","message_id":"m2"}`,
	))
	require.NoError(t, err)
	require.Len(t, proc.jobs, 2)
	require.Equal(t, "m1", proc.jobs[0].MessageID)
	require.Equal(t, "m2", proc.jobs[1].MessageID)
}

func TestWorkerHandle_MalformedBodyFailsLoudly(t *testing.T) {
	proc := &stubProcessor{}
	w, err := NewWorker(proc)
	require.NoError(t, err)

	err = w.Handle(context.Background(), sqsEvent(`{not json`))
	require.Error(t, err)
	require.Empty(t, proc.jobs)
}

func TestWorkerHandle_ProcessorErrorStopsBatch(t *testing.T) {
	boom := errors.New("generation failed")
	proc := &stubProcessor{errs: map[string]error{"m1": boom}}
	w, err := NewWorker(proc)
	require.NoError(t, err)

	err = w.Handle(context.Background(), sqsEvent(
		`{"user_id":"u1","session_id":"s1","message_id":"m1"}`,
		`{"user_id":"u1","session_id":"s1","message_id":"m2"}`,
	))
	require.ErrorIs(t, err, boom)
	// Processing stops at the failed record so the whole batch redelivers.
	require.Len(t, proc.jobs, 1)
}
