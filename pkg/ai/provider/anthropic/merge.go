// ABOUTME: Reducer folding tool-call events into a ToolUseAggregateEvent
// ABOUTME: Events that are not part of a tool call pass through unchanged

package anthropic

// MergeToolUseEvents folds current into the aggregate held by previous.
// It returns previous when current was absorbed and current otherwise.
// When previous is not a *ToolUseAggregateEvent, current is returned as is.
func MergeToolUseEvents(previous, current StreamEvent) StreamEvent {
	agg, ok := previous.(*ToolUseAggregateEvent)
	if !ok || agg == nil {
		return current
	}

	switch ev := current.(type) {
	case *ContentBlockStartEvent:
		if ev == nil {
			break
		}
		if tu, ok := ev.ContentBlock.(*ToolUseBlock); ok {
			agg.WithIndex(ev.Index).WithID(tu.ID).WithName(tu.Name).AppendPartialJSON("")
			return agg
		}
	case *ContentBlockDeltaEvent:
		if ev == nil {
			break
		}
		if d, ok := ev.Delta.(*InputJSONDelta); ok {
			agg.AppendPartialJSON(d.PartialJSON)
			return agg
		}
	case *ContentBlockStopEvent:
		if !agg.IsEmpty() {
			agg.SquashIntoContentBlock()
			return agg
		}
	}
	return current
}
