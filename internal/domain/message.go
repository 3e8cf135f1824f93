// Package domain contains the core record types for PromptLab.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of a prompt/response exchange. Immutable once created.
type Message struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
}

// ApproxTokens estimates a token count as the number of whitespace-delimited
// words. The backend does not report exact token counts on every call path,
// so all token accounting in metrics is this approximation.
func ApproxTokens(s string) int {
	return len(strings.Fields(s))
}
