package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"chat-pipeline/internal/domain"
)

// defaultQueryLimit bounds QueryRecent when the caller passes no limit.
const defaultQueryLimit = 10

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store defines the conversation-log operations consumed by the services.
type Store interface {
	Append(ctx context.Context, msg domain.Message) error
	QueryRecent(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error)
	ListActiveSessionIDs(ctx context.Context, userID string) ([]string, error)
}

// Client wraps a DynamoDB table holding the append-only conversation log.
type Client struct {
	api                dynamodbAPI
	tableName          string
	sessionStatusIndex string
}

// New creates a new repository Client. sessionStatusIndex names the GSI
// keyed on session_status used by ListActiveSessionIDs.
func New(api dynamodbAPI, tableName, sessionStatusIndex string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	if strings.TrimSpace(sessionStatusIndex) == "" {
		return nil, errors.New("repository: session status index must not be empty")
	}
	return &Client{api: api, tableName: tableName, sessionStatusIndex: sessionStatusIndex}, nil
}

// Append writes a message unconditionally. Message IDs are random UUIDs, so
// collisions are not defended against with a condition expression.
func (c *Client) Append(ctx context.Context, msg domain.Message) error {
	if msg.PK == "" || msg.SK == "" {
		return errors.New("repository: Append: PK and SK are required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      messageItem(msg),
	})
	if err != nil {
		return fmt.Errorf("repository: Append: %w", err)
	}
	return nil
}

// QueryRecent returns up to limit most-recent messages for a conversation in
// chronological order. The limit bounds the context window handed to the
// generation backend.
func (c *Client) QueryRecent(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	pk := domain.PartitionKey(userID, sessionID)

	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
		// Read newest first so LIMIT keeps the most recent turns.
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: QueryRecent query: %w", err)
	}

	msgs := make([]domain.Message, 0, len(out.Items))
	for _, item := range out.Items {
		msg, err := itemToMessage(item)
		if err != nil {
			return nil, fmt.Errorf("repository: QueryRecent unmarshal: %w", err)
		}
		msgs = append(msgs, msg)
	}
	// Reverse to chronological order before returning.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ListActiveSessionIDs scans the session-status index for the user's active
// entries and extracts the session segment from each partition key.
// Malformed keys are skipped, not fatal. This is a convenience read, not a
// hot path.
func (c *Client) ListActiveSessionIDs(ctx context.Context, userID string) ([]string, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		IndexName:              aws.String(c.sessionStatusIndex),
		KeyConditionExpression: aws.String("session_status = :status"),
		FilterExpression:       aws.String("begins_with(PK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: domain.SessionStatusActive},
			":prefix": &types.AttributeValueMemberS{Value: "USER#" + userID + "#"},
		},
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: ListActiveSessionIDs query: %w", err)
	}

	seen := make(map[string]struct{})
	sessions := make([]string, 0, len(out.Items))
	for _, item := range out.Items {
		pk, err := strAttr(item, "PK")
		if err != nil {
			slog.Warn("skipping item without PK on session status index", "err", err)
			continue
		}
		session, err := domain.SessionFromPartitionKey(pk)
		if err != nil {
			slog.Warn("skipping malformed partition key", "pk", pk)
			continue
		}
		if _, ok := seen[session]; ok {
			continue
		}
		seen[session] = struct{}{}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func messageItem(msg domain.Message) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: msg.PK},
		"SK":             &types.AttributeValueMemberS{Value: msg.SK},
		"message_id":     &types.AttributeValueMemberS{Value: msg.MessageID},
		"role":           &types.AttributeValueMemberS{Value: string(msg.Role)},
		"content":        contentAttr(msg.Content),
		"created_at":     &types.AttributeValueMemberS{Value: msg.CreatedAt},
		"session_status": &types.AttributeValueMemberS{Value: msg.SessionStatus},
		"metadata":       metadataAttr(msg.Metadata),
	}
	if msg.Model != "" {
		item["model"] = &types.AttributeValueMemberS{Value: msg.Model}
	}
	return item
}

func contentAttr(c domain.Content) types.AttributeValue {
	if !c.IsStructured() {
		return &types.AttributeValueMemberS{Value: c.Text}
	}
	parts := make([]types.AttributeValue, 0, len(c.Parts))
	for _, p := range c.Parts {
		parts = append(parts, &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"type": &types.AttributeValueMemberS{Value: p.Type},
			"text": &types.AttributeValueMemberS{Value: p.Text},
		}})
	}
	return &types.AttributeValueMemberL{Value: parts}
}

func metadataAttr(meta domain.Metadata) types.AttributeValue {
	switch {
	case meta.User != nil:
		return &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"tokens": numAttr(int64(meta.User.Tokens)),
			"source": &types.AttributeValueMemberS{Value: meta.User.Source},
		}}
	case meta.Assistant != nil:
		return &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"latency_ms":      numAttr(meta.Assistant.LatencyMs),
			"input_tokens":    numAttr(int64(meta.Assistant.InputTokens)),
			"output_tokens":   numAttr(int64(meta.Assistant.OutputTokens)),
			"user_message_id": &types.AttributeValueMemberS{Value: meta.Assistant.UserMessageID},
		}}
	default:
		return &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}}
	}
}

func itemToMessage(item map[string]types.AttributeValue) (domain.Message, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return domain.Message{}, err
	}
	sk, err := strAttr(item, "SK")
	if err != nil {
		return domain.Message{}, err
	}
	messageID, err := strAttr(item, "message_id")
	if err != nil {
		return domain.Message{}, err
	}
	role, err := strAttr(item, "role")
	if err != nil {
		return domain.Message{}, err
	}
	content, err := contentFromAttr(item["content"])
	if err != nil {
		return domain.Message{}, err
	}
	createdAt, _ := strAttr(item, "created_at")         // allow empty
	sessionStatus, _ := strAttr(item, "session_status") // allow empty
	model, _ := strAttr(item, "model")                  // assistant turns only

	msg := domain.Message{
		PK:            pk,
		SK:            sk,
		MessageID:     messageID,
		Role:          domain.Role(role),
		Content:       content,
		CreatedAt:     createdAt,
		SessionStatus: sessionStatus,
		Model:         model,
	}
	msg.Metadata = metadataFromAttr(item["metadata"], msg.Role)
	return msg, nil
}

func contentFromAttr(av types.AttributeValue) (domain.Content, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return domain.TextContent(v.Value), nil
	case *types.AttributeValueMemberL:
		parts := make([]domain.ContentPart, 0, len(v.Value))
		for _, el := range v.Value {
			m, ok := el.(*types.AttributeValueMemberM)
			if !ok {
				return domain.Content{}, errors.New("repository: content part is not a map")
			}
			partType, _ := strAttr(m.Value, "type")
			text, err := strAttr(m.Value, "text")
			if err != nil {
				return domain.Content{}, err
			}
			parts = append(parts, domain.ContentPart{Type: partType, Text: text})
		}
		return domain.StructuredContent(parts), nil
	default:
		return domain.Content{}, errors.New("repository: missing or unsupported content attribute")
	}
}

func metadataFromAttr(av types.AttributeValue, role domain.Role) domain.Metadata {
	m, ok := av.(*types.AttributeValueMemberM)
	if !ok {
		return domain.Metadata{}
	}
	switch role {
	case domain.RoleAssistant:
		latency, _ := intAttr(m.Value, "latency_ms")
		inputTokens, _ := intAttr(m.Value, "input_tokens")
		outputTokens, _ := intAttr(m.Value, "output_tokens")
		userMessageID, _ := strAttr(m.Value, "user_message_id")
		return domain.Metadata{Assistant: &domain.AssistantMetadata{
			LatencyMs:     int64(latency),
			InputTokens:   inputTokens,
			OutputTokens:  outputTokens,
			UserMessageID: userMessageID,
		}}
	default:
		tokens, _ := intAttr(m.Value, "tokens")
		source, _ := strAttr(m.Value, "source")
		return domain.Metadata{User: &domain.UserMetadata{Tokens: tokens, Source: source}}
	}
}

func numAttr(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
