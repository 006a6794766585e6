package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// API holds the ingestion Lambda configuration.
type API struct {
	TableName          string `env:"DYNAMODB_TABLE,required"`
	QueueURL           string `env:"SQS_QUEUE_URL,required"`
	SessionStatusIndex string `env:"SESSION_STATUS_INDEX" envDefault:"SessionStatusIndex"`
}

// Worker holds the worker Lambda configuration.
type Worker struct {
	TableName    string `env:"DYNAMODB_TABLE,required"`
	HistoryLimit int    `env:"HISTORY_LIMIT" envDefault:"20"`

	// Generation backend selection; see internal/llm for the registry.
	Provider       string `env:"LLM_PROVIDER" envDefault:"bedrock"`
	BedrockModelID string `env:"BEDROCK_MODEL_ID" envDefault:"amazon.nova-lite-v1:0"`
	OpenAIModel    string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL  string `env:"OPENAI_BASE_URL"`
	// ParamPrefix locates the OpenAI API token in SSM Parameter Store;
	// required only when LLM_PROVIDER=openai.
	ParamPrefix string `env:"PARAM_PREFIX"`
}

// LoadAPI parses the ingestion Lambda configuration from the environment.
func LoadAPI() (API, error) {
	var cfg API
	if err := env.Parse(&cfg); err != nil {
		return API{}, fmt.Errorf("config: parse api config: %w", err)
	}
	return cfg, nil
}

// LoadWorker parses the worker Lambda configuration from the environment.
func LoadWorker() (Worker, error) {
	var cfg Worker
	if err := env.Parse(&cfg); err != nil {
		return Worker{}, fmt.Errorf("config: parse worker config: %w", err)
	}
	return cfg, nil
}
