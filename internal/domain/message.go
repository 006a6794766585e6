package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SessionStatusActive is the only session status written today; other
// values are reserved for archival states.
const SessionStatusActive = "active"

// Message is a single persisted conversation turn. PK/SK naming and the
// USER#/SESSION# composite format are part of the storage contract.
type Message struct {
	PK            string   `json:"pk"`
	SK            string   `json:"sk"`
	MessageID     string   `json:"message_id"`
	Role          Role     `json:"role"`
	Content       Content  `json:"content"`
	CreatedAt     string   `json:"created_at"`
	SessionStatus string   `json:"session_status"`
	Model         string   `json:"model,omitempty"`
	Metadata      Metadata `json:"metadata"`
}

// PartitionKey builds the composite conversation key.
func PartitionKey(userID, sessionID string) string {
	return "USER#" + userID + "#SESSION#" + sessionID
}

// SessionFromPartitionKey extracts the session segment from a partition key.
// Returns an error for keys that do not follow the composite format.
func SessionFromPartitionKey(pk string) (string, error) {
	_, session, ok := strings.Cut(pk, "#SESSION#")
	if !ok || session == "" {
		return "", fmt.Errorf("domain: malformed partition key %q", pk)
	}
	return session, nil
}

// Timestamp formats t as the ISO-8601 UTC sort key. Microsecond precision
// keeps concurrent appends within a partition ordered in practice; identical
// timestamps leave relative order undefined.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}

// UserMetadata annotates user turns.
type UserMetadata struct {
	Tokens int    `json:"tokens"`
	Source string `json:"source"`
}

// AssistantMetadata annotates assistant turns. UserMessageID references the
// user turn this reply answers; that turn always precedes the reply in
// partition order.
type AssistantMetadata struct {
	LatencyMs     int64  `json:"latency_ms"`
	InputTokens   int    `json:"input_tokens"`
	OutputTokens  int    `json:"output_tokens"`
	UserMessageID string `json:"user_message_id"`
}

// Metadata is the role-dependent annotation on a Message: exactly one of
// User or Assistant is set, matching the Message role.
type Metadata struct {
	User      *UserMetadata
	Assistant *AssistantMetadata
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	switch {
	case m.User != nil:
		return json.Marshal(m.User)
	case m.Assistant != nil:
		return json.Marshal(m.Assistant)
	default:
		return []byte("{}"), nil
	}
}

// CountTokens is the whitespace-token estimate recorded on user turns.
func CountTokens(content string) int {
	return len(strings.Fields(content))
}
