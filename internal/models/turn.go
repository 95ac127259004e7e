// ABOUTME: Turn represents a single atomic unit of conversation content
// ABOUTME: Core data structure for the conversation engine, append-only once persisted
package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool_result"
)

// ToolCall is a model-issued request to invoke a named tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Turn is one immutable record in a conversation. Seq is assigned by the
// store on append and is zero for turns not yet persisted.
type Turn struct {
	Seq        int64      `json:"seq,omitempty"`
	Role       Role       `json:"role"`
	Content    Content    `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewUserTurn creates a user turn with validation
func NewUserTurn(text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("user message cannot be empty")
	}
	return &Turn{
		Role:      RoleUser,
		Content:   Text(text),
		Timestamp: time.Now().UTC(),
	}, nil
}

// NewAssistantTurn creates an assistant turn carrying final content,
// tool call requests, or both.
func NewAssistantTurn(content Content, toolCalls []ToolCall) *Turn {
	return &Turn{
		Role:      RoleAssistant,
		Content:   content,
		ToolCalls: toolCalls,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolResultTurn creates a tool result turn back-referencing the
// tool call that requested it.
func NewToolResultTurn(toolCallID, toolName string, payload json.RawMessage) *Turn {
	return &Turn{
		Role:       RoleTool,
		Content:    Text(string(payload)),
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Timestamp:  time.Now().UTC(),
	}
}

// IsFinal reports whether the turn is a final user-facing assistant answer:
// assistant role with no pending tool calls and non-empty content.
func (t *Turn) IsFinal() bool {
	return t.Role == RoleAssistant && len(t.ToolCalls) == 0 && !t.Content.IsEmpty()
}

// RequestsTools reports whether the turn carries tool call requests.
func (t *Turn) RequestsTools() bool {
	return t.Role == RoleAssistant && len(t.ToolCalls) > 0
}
