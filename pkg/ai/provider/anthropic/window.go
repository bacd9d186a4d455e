// ABOUTME: Two-state machine grouping the events of one tool call into a single window
// ABOUTME: Each window is folded with MergeToolUseEvents from a fresh aggregate seed

package anthropic

type windowState int

const (
	outsideTool windowState = iota
	insideTool
)

func (s windowState) String() string {
	if s == insideTool {
		return "inside_tool"
	}
	return "outside_tool"
}

// toolWindow partitions the event sequence. Outside a tool call every event is
// its own window; from a tool_use start up to the next content_block_stop the
// events form one window that reduces to a single event.
type toolWindow struct {
	state   windowState
	acc     StreamEvent
	members int
}

// Push feeds the next event. It returns the reduced event and true when a
// window closes, and false while a tool window is still accumulating.
func (w *toolWindow) Push(ev StreamEvent) (StreamEvent, bool) {
	switch w.state {
	case outsideTool:
		if !IsToolUseStart(ev) {
			return ev, true
		}
		w.state = insideTool
		w.acc = MergeToolUseEvents(NewToolUseAggregate(), ev)
		w.members = 1
		return nil, false
	default:
		w.acc = MergeToolUseEvents(w.acc, ev)
		w.members++
		if !IsToolUseFinish(ev) {
			return nil, false
		}
		out := w.acc
		w.acc, w.members, w.state = nil, 0, outsideTool
		return out, true
	}
}

// Open reports whether a tool window is still accumulating, i.e. the stream
// would be truncated if it ended now.
func (w *toolWindow) Open() bool {
	return w.state == insideTool
}

// IsToolUseStart reports whether ev opens a tool-use content block.
func IsToolUseStart(ev StreamEvent) bool {
	start, ok := ev.(*ContentBlockStartEvent)
	if !ok || start == nil {
		return false
	}
	_, ok = start.ContentBlock.(*ToolUseBlock)
	return ok
}

// IsToolUseFinish reports whether ev closes a content block.
func IsToolUseFinish(ev StreamEvent) bool {
	stop, ok := ev.(*ContentBlockStopEvent)
	return ok && stop != nil
}
