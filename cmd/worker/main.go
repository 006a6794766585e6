package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsbedrock "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"chat-pipeline/handler"
	"chat-pipeline/internal/config"
	"chat-pipeline/internal/integrations/paramstore"
	"chat-pipeline/internal/llm"
	"chat-pipeline/internal/repository"
	"chat-pipeline/internal/usecase"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadWorker()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// SessionStatusIndex is unused on the worker path; pass the default so
	// the store constructor stays shared with the API Lambda.
	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.TableName, "SessionStatusIndex")
	if err != nil {
		slog.Error("failed to create conversation store", "err", err)
		os.Exit(1)
	}

	params, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}

	backend, err := llm.New(cfg.Provider, llm.Settings{
		BedrockClient:  awsbedrock.NewFromConfig(awsCfg),
		BedrockModelID: cfg.BedrockModelID,
		Params:         params,
		ParamPrefix:    cfg.ParamPrefix,
		OpenAIModel:    cfg.OpenAIModel,
		OpenAIBaseURL:  cfg.OpenAIBaseURL,
	})
	if err != nil {
		slog.Error("failed to create generation backend", "err", err)
		os.Exit(1)
	}

	svc, err := usecase.NewWorkerService(store, backend, cfg.HistoryLimit)
	if err != nil {
		slog.Error("failed to create worker service", "err", err)
		os.Exit(1)
	}
	h, err := handler.NewWorker(svc)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
