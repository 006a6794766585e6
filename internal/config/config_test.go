package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAPI(t *testing.T) {
	t.Setenv("DYNAMODB_TABLE", "chat-table")
	t.Setenv("SQS_QUEUE_URL", "https://sqs.example/q")

	cfg, err := LoadAPI()
	require.NoError(t, err)
	require.Equal(t, "chat-table", cfg.TableName)
	require.Equal(t, "https://sqs.example/q", cfg.QueueURL)
	require.Equal(t, "SessionStatusIndex", cfg.SessionStatusIndex)
}

func TestLoadAPI_MissingRequired(t *testing.T) {
	// t.Setenv registers the restore; unset afterwards so `required` trips
	// even when the host environment carries these variables.
	for _, key := range []string{"DYNAMODB_TABLE", "SQS_QUEUE_URL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	_, err := LoadAPI()
	require.Error(t, err)
}

func TestLoadWorker_Defaults(t *testing.T) {
	t.Setenv("DYNAMODB_TABLE", "chat-table")

	cfg, err := LoadWorker()
	require.NoError(t, err)
	require.Equal(t, "bedrock", cfg.Provider)
	require.Equal(t, "amazon.nova-lite-v1:0", cfg.BedrockModelID)
	require.Equal(t, 20, cfg.HistoryLimit)
}

func TestLoadWorker_Overrides(t *testing.T) {
	t.Setenv("DYNAMODB_TABLE", "chat-table")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("PARAM_PREFIX", "/chat")
	t.Setenv("HISTORY_LIMIT", "5")

	cfg, err := LoadWorker()
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.Provider)
	require.Equal(t, "gpt-4o", cfg.OpenAIModel)
	require.Equal(t, "/chat", cfg.ParamPrefix)
	require.Equal(t, 5, cfg.HistoryLimit)
}
