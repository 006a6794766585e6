package domain

import (
	"encoding/json"
	"fmt"
)

// ContentPart is one block of a structured payload, as returned by backends
// that produce multi-part content.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Content is a message payload: plain text, or a structured multi-part
// payload stored as-is. Payloads are immutable once written.
type Content struct {
	Text  string
	Parts []ContentPart
}

// TextContent wraps plain text.
func TextContent(text string) Content {
	return Content{Text: text}
}

// StructuredContent wraps a multi-part payload.
func StructuredContent(parts []ContentPart) Content {
	return Content{Parts: parts}
}

// IsStructured reports whether the payload is multi-part.
func (c Content) IsStructured() bool {
	return len(c.Parts) > 0
}

// PromptText returns the text form fed to the generation backend: plain text
// as-is, structured payloads as their canonical JSON serialization.
func (c Content) PromptText() string {
	if !c.IsStructured() {
		return c.Text
	}
	b, err := json.Marshal(c.Parts)
	if err != nil {
		// []ContentPart cannot fail to marshal.
		return c.Text
	}
	return string(b)
}

// MarshalJSON emits plain text as a JSON string and structured payloads as
// the part array, preserving the stored shape on the wire.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsStructured() {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*c = Content{Text: text}
		return nil
	}
	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("domain: content is neither text nor parts: %w", err)
	}
	*c = Content{Parts: parts}
	return nil
}
