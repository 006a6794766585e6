package llm

import (
	"fmt"
	"sort"
	"strings"

	"chat-pipeline/internal/integrations/paramstore"
)

// Provider names accepted by New.
const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
)

// Settings carries everything any registered provider constructor might
// need; each constructor picks the fields it cares about.
type Settings struct {
	// Bedrock.
	BedrockClient  bedrockAPI
	BedrockModelID string

	// OpenAI. The API token is resolved from SSM under ParamPrefix.
	Params        paramstore.Getter
	ParamPrefix   string
	OpenAIModel   string
	OpenAIBaseURL string
}

type constructor func(Settings) (Backend, error)

// registry maps a configured provider name to its constructor.
var registry = map[string]constructor{
	ProviderBedrock: func(s Settings) (Backend, error) {
		return NewBedrock(s.BedrockClient, s.BedrockModelID)
	},
	ProviderOpenAI: func(s Settings) (Backend, error) {
		return NewOpenAI(s.Params, s.ParamPrefix, s.OpenAIModel, s.OpenAIBaseURL)
	},
}

// New constructs the backend registered under the given provider name.
func New(provider string, s Settings) (Backend, error) {
	build, ok := registry[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, fmt.Errorf("llm: unknown provider %q (known: %s)", provider, strings.Join(Providers(), ", "))
	}
	return build(s)
}

// Providers lists the registered provider names.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
