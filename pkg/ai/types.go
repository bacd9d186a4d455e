// ABOUTME: Core AI SDK types: ChatResponse snapshots, ContentBlock, Usage, request shapes
// ABOUTME: Shared across providers; the streaming assembler emits ChatResponse values

package ai

import "encoding/json"

// Role represents a message role in the conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StopReason indicates why the model stopped generating.
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopMaxTokens    StopReason = "max_tokens"
	StopStopSequence StopReason = "stop_sequence"
	StopToolUse      StopReason = "tool_use"
)

// ContentType identifies the kind of content block.
type ContentType string

const (
	ContentText             ContentType = "text"
	ContentTextDelta        ContentType = "text_delta"
	ContentToolUse          ContentType = "tool_use"
	ContentToolResult       ContentType = "tool_result"
	ContentThinking         ContentType = "thinking"
	ContentThinkingDelta    ContentType = "thinking_delta"
	ContentSignatureDelta   ContentType = "signature_delta"
	ContentRedactedThinking ContentType = "redacted_thinking"
)

// ContentBlock is one unit of model output inside a ChatResponse.
// Only the fields relevant to Type are set.
type ContentBlock struct {
	Type      ContentType    `json:"type"`
	Index     *int           `json:"index,omitempty"`     // Streamed block index
	Text      string         `json:"text,omitempty"`      // text, text_delta
	ID        string         `json:"id,omitempty"`        // tool_use, tool_result
	Name      string         `json:"name,omitempty"`      // tool_use
	Input     map[string]any `json:"input,omitempty"`     // tool_use, always parsed
	Thinking  string         `json:"thinking,omitempty"`  // thinking, thinking_delta
	Signature string         `json:"signature,omitempty"` // thinking, signature_delta
	Data      string         `json:"data,omitempty"`      // redacted_thinking
	IsError   bool           `json:"is_error,omitempty"`  // tool_result
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	CacheRead    int `json:"cache_read_input_tokens,omitempty"`
	CacheCreate  int `json:"cache_creation_input_tokens,omitempty"`
}

// ChatResponse is a point-in-time view of a streaming chat completion.
// Type mirrors the tag of the event that produced it ("MESSAGE_START",
// "CONTENT_BLOCK_DELTA", ...). Content holds only the blocks relevant to that
// event, not the whole message.
type ChatResponse struct {
	ID           string         `json:"id,omitempty"`
	Type         string         `json:"type,omitempty"`
	Role         Role           `json:"role,omitempty"`
	Model        string         `json:"model,omitempty"`
	Content      []ContentBlock `json:"content"`
	StopReason   StopReason     `json:"stop_reason,omitempty"`
	StopSequence string         `json:"stop_sequence,omitempty"`
	Usage        *Usage         `json:"usage,omitempty"`
}

// Message represents a conversation message sent to the model.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// NewTextMessage creates a message with a single text content block.
func NewTextMessage(role Role, text string) Message {
	return Message{
		Role:    role,
		Content: []ContentBlock{{Type: ContentText, Text: text}},
	}
}

// Tool defines a tool the model can invoke.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"input_schema"` // JSON Schema
}

// Request holds the conversation and tools for an LLM call.
type Request struct {
	Model    string    `json:"model"`
	System   string    `json:"system,omitempty"`
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
}

// StreamOptions configures streaming behavior.
type StreamOptions struct {
	MaxTokens      int      `json:"max_tokens,omitempty"`
	Temperature    float64  `json:"temperature,omitempty"`
	TopP           float64  `json:"top_p,omitempty"`
	StopSequences  []string `json:"stop_sequences,omitempty"`
	ThinkingBudget int      `json:"thinking_budget,omitempty"` // 0 disables extended thinking
}

// AssistantMessage is the final result of a streaming response.
type AssistantMessage struct {
	ID           string         `json:"id"`
	Model        string         `json:"model"`
	Role         Role           `json:"role"`
	Content      []ContentBlock `json:"content"`
	StopReason   StopReason     `json:"stop_reason"`
	StopSequence string         `json:"stop_sequence,omitempty"`
	Usage        Usage          `json:"usage"`
}

// Text concatenates all text blocks of the message.
func (m *AssistantMessage) Text() string {
	var out string
	for _, c := range m.Content {
		if c.Type == ContentText {
			out += c.Text
		}
	}
	return out
}

// ToolUses returns the tool_use blocks of the message in order.
func (m *AssistantMessage) ToolUses() []ContentBlock {
	var out []ContentBlock
	for _, c := range m.Content {
		if c.Type == ContentToolUse {
			out = append(out, c)
		}
	}
	return out
}
