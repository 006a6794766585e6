package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_BuildsRegisteredProviders(t *testing.T) {
	settings := Settings{
		BedrockClient:  &fakeBedrock{},
		BedrockModelID: "amazon.nova-lite-v1:0",
		Params:         tokenParams(),
		ParamPrefix:    "/chat",
		OpenAIModel:    "gpt-4o-mini",
	}

	b, err := New("bedrock", settings)
	require.NoError(t, err)
	require.IsType(t, &Bedrock{}, b)
	require.Equal(t, "amazon.nova-lite-v1:0", b.ModelID())

	o, err := New("OpenAI", settings)
	require.NoError(t, err)
	require.IsType(t, &OpenAI{}, o)
	require.Equal(t, "gpt-4o-mini", o.ModelID())
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New("llama-farm", Settings{})
	require.ErrorContains(t, err, "unknown provider")
}

func TestNew_PropagatesConstructorFailure(t *testing.T) {
	_, err := New("bedrock", Settings{BedrockModelID: "model"})
	require.Error(t, err)
}

func TestProviders_Sorted(t *testing.T) {
	require.Equal(t, []string{"bedrock", "openai"}, Providers())
}
