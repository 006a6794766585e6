package domain

// Job is the transient queue payload referencing a just-stored user turn.
// It may be delivered more than once; processing must tolerate redelivery.
type Job struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
	// Timestamp is informational only; consumers must not rely on it.
	Timestamp string `json:"timestamp,omitempty"`
}
