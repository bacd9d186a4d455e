// ABOUTME: Folds streamed ChatResponse snapshots into one final AssistantMessage
// ABOUTME: Concatenates text/thinking deltas per block index; keeps tool uses in order

package ai

// Snapshot tags carried in ChatResponse.Type.
const (
	TagMessageStart      = "MESSAGE_START"
	TagMessageDelta      = "MESSAGE_DELTA"
	TagMessageStop       = "MESSAGE_STOP"
	TagContentBlockStart = "CONTENT_BLOCK_START"
	TagContentBlockDelta = "CONTENT_BLOCK_DELTA"
	TagContentBlockStop  = "CONTENT_BLOCK_STOP"
	TagPing              = "PING"
	TagError             = "ERROR"
	TagToolUseAggregate  = "TOOL_USE_AGGREGATE"
)

// MessageCollector accumulates snapshots of a single stream. It is not safe
// for concurrent use.
type MessageCollector struct {
	msg     AssistantMessage
	byIndex map[int]int // stream block index -> position in msg.Content
}

// NewMessageCollector creates an empty collector.
func NewMessageCollector() *MessageCollector {
	return &MessageCollector{byIndex: make(map[int]int)}
}

// Add folds one snapshot into the message.
func (c *MessageCollector) Add(r *ChatResponse) {
	if r == nil {
		return
	}
	if r.ID != "" {
		c.msg.ID = r.ID
	}
	if r.Model != "" {
		c.msg.Model = r.Model
	}
	if r.Role != "" {
		c.msg.Role = r.Role
	}
	if r.StopReason != "" {
		c.msg.StopReason = r.StopReason
	}
	if r.StopSequence != "" {
		c.msg.StopSequence = r.StopSequence
	}
	if r.Usage != nil {
		c.msg.Usage = *r.Usage
	}

	// A message_delta snapshot still carries the previous event's blocks.
	if r.Type == TagMessageDelta {
		return
	}
	for _, block := range r.Content {
		c.addBlock(block)
	}
}

func (c *MessageCollector) addBlock(b ContentBlock) {
	switch b.Type {
	case ContentText, ContentThinking, ContentRedactedThinking:
		c.open(b)
	case ContentTextDelta:
		c.target(b, ContentText).Text += b.Text
	case ContentThinkingDelta:
		c.target(b, ContentThinking).Thinking += b.Thinking
	case ContentSignatureDelta:
		c.target(b, ContentThinking).Signature += b.Signature
	case ContentToolUse:
		c.msg.Content = append(c.msg.Content, ContentBlock{
			Type:  ContentToolUse,
			ID:    b.ID,
			Name:  b.Name,
			Input: b.Input,
		})
	}
}

// open starts a new block, replacing any earlier block at the same index.
func (c *MessageCollector) open(b ContentBlock) {
	b.Index = nil
	if b.Type == ContentText {
		b.Signature = ""
	}
	c.msg.Content = append(c.msg.Content, b)
	if idx := indexOf(b); idx >= 0 {
		c.byIndex[idx] = len(c.msg.Content) - 1
	}
}

// target returns the open block a delta belongs to, creating one of kind
// when the delta arrives without a matching start.
func (c *MessageCollector) target(delta ContentBlock, kind ContentType) *ContentBlock {
	if idx := indexOf(delta); idx >= 0 {
		if pos, ok := c.byIndex[idx]; ok && c.msg.Content[pos].Type == kind {
			return &c.msg.Content[pos]
		}
	}
	c.msg.Content = append(c.msg.Content, ContentBlock{Type: kind})
	pos := len(c.msg.Content) - 1
	if idx := indexOf(delta); idx >= 0 {
		c.byIndex[idx] = pos
	}
	return &c.msg.Content[pos]
}

func indexOf(b ContentBlock) int {
	if b.Index == nil {
		return -1
	}
	return *b.Index
}

// Message returns a copy of the accumulated message.
func (c *MessageCollector) Message() *AssistantMessage {
	out := c.msg
	out.Content = append([]ContentBlock(nil), c.msg.Content...)
	if out.Role == "" {
		out.Role = RoleAssistant
	}
	return &out
}
