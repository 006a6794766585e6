package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-pipeline/internal/domain"
)

type fakeParams struct {
	vals  map[string]string
	err   error
	calls int
}

func (f *fakeParams) GetParameter(_ context.Context, name string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.vals[name]
	if !ok {
		return "", fmt.Errorf("param not found: %s", name)
	}
	return v, nil
}

func tokenParams() *fakeParams {
	return &fakeParams{vals: map[string]string{
		"/chat/open-ai-token": `{"token":"sk-test"}`,
	}}
}

func completionsServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewOpenAI_ValidatesArguments(t *testing.T) {
	_, err := NewOpenAI(nil, "/chat", "gpt-4o-mini", "")
	require.Error(t, err)
	_, err = NewOpenAI(tokenParams(), " ", "gpt-4o-mini", "")
	require.Error(t, err)
	_, err = NewOpenAI(tokenParams(), "/chat", "", "")
	require.Error(t, err)
}

func TestOpenAIGenerate_HappyPath(t *testing.T) {
	var gotAuth string
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := completionsServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"choices":[{"message":{"role":"assistant","content":"Hi!"}}],
			"usage":{"prompt_tokens":9,"completion_tokens":3}
		}`)
	})

	params := tokenParams()
	c, err := NewOpenAI(params, "/chat", "gpt-4o-mini", srv.URL+"/v1")
	require.NoError(t, err)

	resp, err := c.Generate(context.Background(), []domain.ChatMessage{
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hey"},
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer sk-test", gotAuth)
	require.Equal(t, "gpt-4o-mini", gotBody.Model)
	require.Len(t, gotBody.Messages, 2)
	require.Equal(t, "user", gotBody.Messages[0].Role)
	require.Equal(t, "assistant", gotBody.Messages[1].Role)

	require.Equal(t, "Hi!", resp.Content.Text)
	require.Equal(t, 9, resp.Usage.InputTokens)
	require.Equal(t, 3, resp.Usage.OutputTokens)
}

func TestOpenAIGenerate_ResolvesTokenOnce(t *testing.T) {
	srv := completionsServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}],"usage":{}}`)
	})

	params := tokenParams()
	c, err := NewOpenAI(params, "/chat", "gpt-4o-mini", srv.URL+"/v1")
	require.NoError(t, err)

	turns := []domain.ChatMessage{{Role: "user", Content: "hi"}}
	_, err = c.Generate(context.Background(), turns)
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), turns)
	require.NoError(t, err)
	require.Equal(t, 1, params.calls)
}

func TestOpenAIGenerate_SurfacesUpstreamStatus(t *testing.T) {
	srv := completionsServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	})

	c, err := NewOpenAI(tokenParams(), "/chat", "gpt-4o-mini", srv.URL+"/v1")
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), []domain.ChatMessage{{Role: "user", Content: "hi"}})
	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	require.Equal(t, ProviderOpenAI, llmErr.Provider)
}

func TestOpenAIGenerate_RejectsUnknownRole(t *testing.T) {
	c, err := NewOpenAI(tokenParams(), "/chat", "gpt-4o-mini", "")
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), []domain.ChatMessage{{Role: "tool", Content: "nope"}})
	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
}

func TestOpenAIGenerate_TokenFetchFailure(t *testing.T) {
	params := &fakeParams{err: errors.New("ssm down")}
	c, err := NewOpenAI(params, "/chat", "gpt-4o-mini", "")
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), []domain.ChatMessage{{Role: "user", Content: "hi"}})
	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	require.ErrorContains(t, err, "ssm down")
}

func TestOpenAIGenerate_RejectsMalformedTokenPayload(t *testing.T) {
	params := &fakeParams{vals: map[string]string{"/chat/open-ai-token": `not-json`}}
	c, err := NewOpenAI(params, "/chat", "gpt-4o-mini", "")
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), []domain.ChatMessage{{Role: "user", Content: "hi"}})
	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
}
