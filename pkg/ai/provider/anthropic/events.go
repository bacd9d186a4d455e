// ABOUTME: Typed model of the Anthropic Messages streaming events and content-block bodies
// ABOUTME: StreamEvent is a sealed interface; Tag() yields the upper-case snapshot tag

package anthropic

import (
	"strings"

	"github.com/mauromedda/chatstream/pkg/ai"
)

// EventType is the wire discriminator of a stream event.
type EventType string

const (
	EventMessageStart      EventType = "message_start"
	EventMessageDelta      EventType = "message_delta"
	EventMessageStop       EventType = "message_stop"
	EventContentBlockStart EventType = "content_block_start"
	EventContentBlockDelta EventType = "content_block_delta"
	EventContentBlockStop  EventType = "content_block_stop"
	EventPing              EventType = "ping"
	EventError             EventType = "error"

	// EventToolUseAggregate never appears on the wire; the windowing stage
	// produces it when it collapses a tool call.
	EventToolUseAggregate EventType = "tool_use_aggregate"
)

// Tag returns the snapshot tag for the event type, e.g. "CONTENT_BLOCK_DELTA".
func (t EventType) Tag() string {
	return strings.ToUpper(string(t))
}

// StreamEvent is one decoded streaming event. The set of implementations is
// closed to this package.
type StreamEvent interface {
	Type() EventType
	streamEvent()
}

// MessageStartEvent opens a message. Content is normally empty.
type MessageStartEvent struct {
	Message ai.ChatResponse
}

// MessageDelta carries message-level changes.
type MessageDelta struct {
	StopReason   ai.StopReason
	StopSequence string
}

// MessageDeltaUsage is the cumulative output token count.
type MessageDeltaUsage struct {
	OutputTokens int
}

// MessageDeltaEvent updates stop information and output usage.
type MessageDeltaEvent struct {
	Delta MessageDelta
	Usage *MessageDeltaUsage
}

// MessageStopEvent ends a message.
type MessageStopEvent struct{}

// ContentBlockStartEvent opens the content block at Index.
type ContentBlockStartEvent struct {
	Index        int
	ContentBlock ContentBlockBody
}

// ContentBlockDeltaEvent extends the content block at Index.
type ContentBlockDeltaEvent struct {
	Index int
	Delta ContentBlockDeltaBody
}

// ContentBlockStopEvent closes the content block at Index.
type ContentBlockStopEvent struct {
	Index int
}

// PingEvent is a keep-alive.
type PingEvent struct{}

// APIError is the payload of an error event.
type APIError struct {
	Type    string
	Message string
}

func (e *APIError) Error() string {
	return "anthropic stream error: " + e.Type + ": " + e.Message
}

// ErrorEvent reports a server-side failure inside the stream.
type ErrorEvent struct {
	Error APIError
}

func (*MessageStartEvent) Type() EventType      { return EventMessageStart }
func (*MessageDeltaEvent) Type() EventType      { return EventMessageDelta }
func (*MessageStopEvent) Type() EventType       { return EventMessageStop }
func (*ContentBlockStartEvent) Type() EventType { return EventContentBlockStart }
func (*ContentBlockDeltaEvent) Type() EventType { return EventContentBlockDelta }
func (*ContentBlockStopEvent) Type() EventType  { return EventContentBlockStop }
func (*PingEvent) Type() EventType              { return EventPing }
func (*ErrorEvent) Type() EventType             { return EventError }
func (*ToolUseAggregateEvent) Type() EventType  { return EventToolUseAggregate }

func (*MessageStartEvent) streamEvent()      {}
func (*MessageDeltaEvent) streamEvent()      {}
func (*MessageStopEvent) streamEvent()       {}
func (*ContentBlockStartEvent) streamEvent() {}
func (*ContentBlockDeltaEvent) streamEvent() {}
func (*ContentBlockStopEvent) streamEvent()  {}
func (*PingEvent) streamEvent()              {}
func (*ErrorEvent) streamEvent()             {}
func (*ToolUseAggregateEvent) streamEvent()  {}

// BlockType is the wire discriminator of a content block.
type BlockType string

const (
	BlockText             BlockType = "text"
	BlockToolUse          BlockType = "tool_use"
	BlockThinking         BlockType = "thinking"
	BlockRedactedThinking BlockType = "redacted_thinking"
)

// ContentBlockBody is the body of a content_block_start event.
type ContentBlockBody interface {
	BlockType() BlockType
	contentBlockBody()
}

type TextBlock struct {
	Text string
}

type ToolUseBlock struct {
	ID    string
	Name  string
	Input map[string]any
}

type ThinkingBlock struct {
	Thinking  string
	Signature string
}

// RedactedThinkingBlock holds encrypted reasoning the API does not reveal.
type RedactedThinkingBlock struct {
	Data string
}

func (*TextBlock) BlockType() BlockType             { return BlockText }
func (*ToolUseBlock) BlockType() BlockType          { return BlockToolUse }
func (*ThinkingBlock) BlockType() BlockType         { return BlockThinking }
func (*RedactedThinkingBlock) BlockType() BlockType { return BlockRedactedThinking }

func (*TextBlock) contentBlockBody()             {}
func (*ToolUseBlock) contentBlockBody()          {}
func (*ThinkingBlock) contentBlockBody()         {}
func (*RedactedThinkingBlock) contentBlockBody() {}

// DeltaType is the wire discriminator of a content-block delta.
type DeltaType string

const (
	DeltaText      DeltaType = "text_delta"
	DeltaInputJSON DeltaType = "input_json_delta"
	DeltaThinking  DeltaType = "thinking_delta"
	DeltaSignature DeltaType = "signature_delta"
)

// ContentBlockDeltaBody is the body of a content_block_delta event.
type ContentBlockDeltaBody interface {
	DeltaType() DeltaType
	contentBlockDelta()
}

type TextDelta struct {
	Text string
}

// InputJSONDelta is one fragment of a tool call's JSON arguments.
type InputJSONDelta struct {
	PartialJSON string
}

type ThinkingDelta struct {
	Thinking string
}

type SignatureDelta struct {
	Signature string
}

func (*TextDelta) DeltaType() DeltaType      { return DeltaText }
func (*InputJSONDelta) DeltaType() DeltaType { return DeltaInputJSON }
func (*ThinkingDelta) DeltaType() DeltaType  { return DeltaThinking }
func (*SignatureDelta) DeltaType() DeltaType { return DeltaSignature }

func (*TextDelta) contentBlockDelta()      {}
func (*InputJSONDelta) contentBlockDelta() {}
func (*ThinkingDelta) contentBlockDelta()  {}
func (*SignatureDelta) contentBlockDelta() {}
