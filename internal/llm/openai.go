package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"chat-pipeline/internal/domain"
	"chat-pipeline/internal/integrations/paramstore"
)

// tokenPayload is the expected JSON shape stored in SSM for the API token.
type tokenPayload struct {
	Token string `json:"token"`
}

// OpenAI generates replies through an OpenAI-compatible chat completions
// endpoint. The API token lives in SSM Parameter Store and is resolved on
// the first call, then reused for the process lifetime.
type OpenAI struct {
	params      paramstore.Getter
	paramPrefix string
	model       string
	baseURL     string

	clientOnce sync.Once
	client     *openai.Client
	clientErr  error
}

// NewOpenAI creates an OpenAI backend. baseURL may be empty for the default
// endpoint.
func NewOpenAI(params paramstore.Getter, paramPrefix, model, baseURL string) (*OpenAI, error) {
	if params == nil {
		return nil, errors.New("llm: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("llm: parameter prefix must not be empty")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("llm: openai model must not be empty")
	}
	return &OpenAI{
		params:      params,
		paramPrefix: paramPrefix,
		model:       model,
		baseURL:     strings.TrimSpace(baseURL),
	}, nil
}

func (c *OpenAI) ModelID() string {
	return c.model
}

func (c *OpenAI) Generate(ctx context.Context, turns []domain.ChatMessage) (Response, error) {
	client, err := c.resolveClient(ctx)
	if err != nil {
		return Response{}, &Error{Provider: ProviderOpenAI, Err: err}
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		role, err := openaiRole(turn.Role)
		if err != nil {
			return Response{}, &Error{Provider: ProviderOpenAI, Err: err}
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return Response{}, &Error{Provider: ProviderOpenAI, Err: err}
	}
	if len(resp.Choices) == 0 {
		return Response{}, &Error{Provider: ProviderOpenAI, Err: errors.New("no choices in response")}
	}

	return Response{
		Content: domain.TextContent(resp.Choices[0].Message.Content),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func openaiRole(role string) (string, error) {
	switch role {
	case string(domain.RoleUser):
		return openai.ChatMessageRoleUser, nil
	case string(domain.RoleAssistant):
		return openai.ChatMessageRoleAssistant, nil
	default:
		return "", fmt.Errorf("unsupported role %q", role)
	}
}

// resolveClient fetches the API token from SSM on the first call and builds
// the SDK client once.
func (c *OpenAI) resolveClient(ctx context.Context) (*openai.Client, error) {
	c.clientOnce.Do(func() {
		token, err := fetchAPIToken(ctx, c.params, c.paramPrefix+"/open-ai-token")
		if err != nil {
			c.clientErr = err
			return
		}
		cfg := openai.DefaultConfig(token)
		if c.baseURL != "" {
			cfg.BaseURL = c.baseURL
		}
		c.client = openai.NewClientWithConfig(cfg)
	})
	return c.client, c.clientErr
}

func fetchAPIToken(ctx context.Context, getter paramstore.Getter, name string) (string, error) {
	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("fetch token from paramstore: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("unmarshal paramstore token value as JSON: %w", err)
	}
	if tp.Token == "" {
		return "", errors.New("API token is empty")
	}
	return tp.Token, nil
}
