package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"chat-pipeline/internal/domain"
)

// bedrockAPI is the minimal Bedrock runtime interface required by Bedrock.
// Defined here for testability.
type bedrockAPI interface {
	Converse(ctx context.Context, in *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Bedrock generates replies through the Bedrock Converse API.
type Bedrock struct {
	api     bedrockAPI
	modelID string
}

// NewBedrock creates a Bedrock backend for the given model.
func NewBedrock(api bedrockAPI, modelID string) (*Bedrock, error) {
	if api == nil {
		return nil, errors.New("llm: bedrock api must not be nil")
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errors.New("llm: bedrock model id must not be empty")
	}
	return &Bedrock{api: api, modelID: modelID}, nil
}

func (b *Bedrock) ModelID() string {
	return b.modelID
}

// Generate maps the two-role turn sequence onto Bedrock conversation roles,
// invokes Converse once, and returns the reply with token usage. Unknown
// roles are rejected rather than guessed.
func (b *Bedrock) Generate(ctx context.Context, turns []domain.ChatMessage) (Response, error) {
	messages := make([]types.Message, 0, len(turns))
	for _, turn := range turns {
		role, err := bedrockRole(turn.Role)
		if err != nil {
			return Response{}, &Error{Provider: ProviderBedrock, Err: err}
		}
		messages = append(messages, types.Message{
			Role: role,
			Content: []types.ContentBlock{
				&types.ContentBlockMemberText{Value: turn.Content},
			},
		})
	}

	out, err := b.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:  aws.String(b.modelID),
		Messages: messages,
	})
	if err != nil {
		return Response{}, &Error{Provider: ProviderBedrock, Err: err}
	}

	content, err := converseContent(out)
	if err != nil {
		return Response{}, &Error{Provider: ProviderBedrock, Err: err}
	}

	var usage Usage
	if out.Usage != nil {
		usage.InputTokens = int(aws.ToInt32(out.Usage.InputTokens))
		usage.OutputTokens = int(aws.ToInt32(out.Usage.OutputTokens))
	}
	return Response{Content: content, Usage: usage}, nil
}

func bedrockRole(role string) (types.ConversationRole, error) {
	switch role {
	case string(domain.RoleUser):
		return types.ConversationRoleUser, nil
	case string(domain.RoleAssistant):
		return types.ConversationRoleAssistant, nil
	default:
		return "", fmt.Errorf("unsupported role %q", role)
	}
}

// converseContent extracts the reply payload. A single text block stays
// plain text; multi-block replies are preserved as structured content.
func converseContent(out *bedrockruntime.ConverseOutput) (domain.Content, error) {
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return domain.Content{}, errors.New("response has no message output")
	}
	blocks := msg.Value.Content
	if len(blocks) == 0 {
		return domain.Content{}, errors.New("response message has no content blocks")
	}

	parts := make([]domain.ContentPart, 0, len(blocks))
	for _, block := range blocks {
		text, ok := block.(*types.ContentBlockMemberText)
		if !ok {
			return domain.Content{}, fmt.Errorf("unsupported content block %T", block)
		}
		parts = append(parts, domain.ContentPart{Type: "text", Text: text.Value})
	}
	if len(parts) == 1 {
		return domain.TextContent(parts[0].Text), nil
	}
	return domain.StructuredContent(parts), nil
}
