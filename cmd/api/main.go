package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"

	"chat-pipeline/handler"
	"chat-pipeline/internal/config"
	"chat-pipeline/internal/queue"
	"chat-pipeline/internal/repository"
	"chat-pipeline/internal/usecase"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadAPI()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.TableName, cfg.SessionStatusIndex)
	if err != nil {
		slog.Error("failed to create conversation store", "err", err)
		os.Exit(1)
	}
	jobQueue, err := queue.New(awssqs.NewFromConfig(awsCfg), cfg.QueueURL)
	if err != nil {
		slog.Error("failed to create job queue", "err", err)
		os.Exit(1)
	}

	svc, err := usecase.NewChatService(store, jobQueue)
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}
	h, err := handler.NewAPI(svc)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
