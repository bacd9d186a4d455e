// ABOUTME: ToolUseAggregateEvent collects one tool call's id, name and fragmented JSON input
// ABOUTME: SquashIntoContentBlock parses the joined fragments and records a completed ToolUse

package anthropic

import (
	"encoding/json"
	"maps"
	"strings"

	"github.com/mauromedda/chatstream/internal/log"
	"github.com/mauromedda/chatstream/pkg/ai/partjson"
)

// ToolUse is a finished tool invocation with parsed arguments.
type ToolUse struct {
	Index int
	ID    string
	Name  string
	Input map[string]any
}

// ToolUseAggregateEvent is the synthetic event that stands in for a whole
// tool-call window. It is mutable and owned by a single pipeline.
type ToolUseAggregateEvent struct {
	index       *int
	id          *string
	name        *string
	partialJSON strings.Builder
	completed   []ToolUse
}

// NewToolUseAggregate returns an empty aggregate.
func NewToolUseAggregate() *ToolUseAggregateEvent {
	return &ToolUseAggregateEvent{}
}

func (a *ToolUseAggregateEvent) WithIndex(i int) *ToolUseAggregateEvent {
	a.index = &i
	return a
}

func (a *ToolUseAggregateEvent) WithID(id string) *ToolUseAggregateEvent {
	a.id = &id
	return a
}

func (a *ToolUseAggregateEvent) WithName(name string) *ToolUseAggregateEvent {
	a.name = &name
	return a
}

// AppendPartialJSON concatenates one argument fragment.
func (a *ToolUseAggregateEvent) AppendPartialJSON(fragment string) *ToolUseAggregateEvent {
	a.partialJSON.WriteString(fragment)
	return a
}

// IsEmpty reports whether there is no tool call ready to squash: any of
// index, id or name unset, or no non-blank JSON collected.
func (a *ToolUseAggregateEvent) IsEmpty() bool {
	return a.index == nil || a.id == nil || a.name == nil ||
		strings.TrimSpace(a.partialJSON.String()) == ""
}

// SquashIntoContentBlock finalizes the in-flight call and resets the scalar
// state for the next one. It does nothing when IsEmpty is true.
func (a *ToolUseAggregateEvent) SquashIntoContentBlock() {
	if a.IsEmpty() {
		return
	}
	a.completed = append(a.completed, ToolUse{
		Index: *a.index,
		ID:    *a.id,
		Name:  *a.name,
		Input: parseInput(*a.name, a.partialJSON.String()),
	})
	a.index, a.id, a.name = nil, nil, nil
	a.partialJSON.Reset()
}

// ToolUses returns the completed calls in completion order.
func (a *ToolUseAggregateEvent) ToolUses() []ToolUse {
	out := make([]ToolUse, len(a.completed))
	for i, tu := range a.completed {
		tu.Input = maps.Clone(tu.Input)
		out[i] = tu
	}
	return out
}

// PartialJSON returns the argument text collected so far.
func (a *ToolUseAggregateEvent) PartialJSON() string {
	return a.partialJSON.String()
}

// PartialInput is a best-effort view of the in-flight arguments, for progress
// display. It never fails; unparseable prefixes yield an empty map.
func (a *ToolUseAggregateEvent) PartialInput() map[string]any {
	m, _ := partjson.Parse(a.partialJSON.String())
	if m == nil {
		return map[string]any{}
	}
	return m
}

// parseInput decodes complete tool arguments. Blank or malformed input becomes
// an empty map so a bad call cannot abort the stream.
func parseInput(tool, raw string) map[string]any {
	out := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		log.Warn("anthropic: tool %q produced malformed input JSON (%d bytes): %v", tool, len(raw), err)
		return map[string]any{}
	}
	return out
}
