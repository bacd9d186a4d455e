// ABOUTME: Tests for ToolUseAggregateEvent: emptiness rules, squash, malformed input
// ABOUTME: Includes the fragment reassembly round-trip and order sensitivity properties

package anthropic

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestAggregatorIsEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		agg  *ToolUseAggregateEvent
		want bool
	}{
		{"fresh", NewToolUseAggregate(), true},
		{"no json", NewToolUseAggregate().WithIndex(0).WithID("a").WithName("n").AppendPartialJSON(""), true},
		{"blank json", NewToolUseAggregate().WithIndex(0).WithID("a").WithName("n").AppendPartialJSON("  \n"), true},
		{"missing index", NewToolUseAggregate().WithID("a").WithName("n").AppendPartialJSON("{}"), true},
		{"missing id", NewToolUseAggregate().WithIndex(0).WithName("n").AppendPartialJSON("{}"), true},
		{"missing name", NewToolUseAggregate().WithIndex(0).WithID("a").AppendPartialJSON("{}"), true},
		{"ready", NewToolUseAggregate().WithIndex(0).WithID("a").WithName("n").AppendPartialJSON("{}"), false},
	}
	for _, tt := range tests {
		if got := tt.agg.IsEmpty(); got != tt.want {
			t.Errorf("%s: IsEmpty() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAggregatorSquashResetsState(t *testing.T) {
	t.Parallel()

	agg := NewToolUseAggregate().WithIndex(2).WithID("call_1").WithName("getWeather").
		AppendPartialJSON(`{"location":`).AppendPartialJSON(`"Paris"}`)
	agg.SquashIntoContentBlock()

	if !agg.IsEmpty() {
		t.Error("aggregator not empty after squash")
	}
	if agg.PartialJSON() != "" {
		t.Errorf("got PartialJSON %q, want empty", agg.PartialJSON())
	}

	uses := agg.ToolUses()
	if len(uses) != 1 {
		t.Fatalf("got %d tool uses, want 1", len(uses))
	}
	want := ToolUse{Index: 2, ID: "call_1", Name: "getWeather", Input: map[string]any{"location": "Paris"}}
	if !reflect.DeepEqual(uses[0], want) {
		t.Errorf("got %+v, want %+v", uses[0], want)
	}

	// A second call reuses the same state.
	agg.WithIndex(3).WithID("call_2").WithName("getTime").AppendPartialJSON(`{"tz":"CET"}`)
	agg.SquashIntoContentBlock()
	uses = agg.ToolUses()
	if len(uses) != 2 || uses[1].ID != "call_2" || uses[1].Input["tz"] != "CET" {
		t.Errorf("got %+v, want second call appended", uses)
	}
}

func TestAggregatorSquashEmptyIsNoop(t *testing.T) {
	t.Parallel()

	agg := NewToolUseAggregate().WithIndex(0).WithID("x").WithName("y")
	agg.SquashIntoContentBlock()
	if n := len(agg.ToolUses()); n != 0 {
		t.Errorf("got %d tool uses, want 0", n)
	}
}

func TestAggregatorMalformedJSONBecomesEmptyMap(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`{"a":`, `not json`, `[1,2]`, `null`, `"str"`} {
		agg := NewToolUseAggregate().WithIndex(0).WithID("id").WithName("tool").AppendPartialJSON(raw)
		agg.SquashIntoContentBlock()

		uses := agg.ToolUses()
		if len(uses) != 1 {
			t.Fatalf("%q: got %d tool uses, want 1", raw, len(uses))
		}
		if uses[0].Input == nil || len(uses[0].Input) != 0 {
			t.Errorf("%q: got Input %v, want empty map", raw, uses[0].Input)
		}
	}
}

func TestAggregatorReassemblyMatchesDirectParse(t *testing.T) {
	t.Parallel()

	tests := [][]string{
		{`{"location":"Paris"}`},
		{`{"loc`, `ation":"Paris"}`},
		{`{`, `"unit":"celsius",`, `"days":[1,2,`, `3],"nested":{"ok":tr`, `ue,"note":"a \"quoted\" wo`, `rd"}}`},
		{`{"emoji":"été`, ` 🌞"}`},
	}
	for _, fragments := range tests {
		agg := NewToolUseAggregate().WithIndex(0).WithID("id").WithName("tool").AppendPartialJSON("")
		for _, f := range fragments {
			agg.AppendPartialJSON(f)
		}
		agg.SquashIntoContentBlock()

		var want map[string]any
		if err := json.Unmarshal([]byte(strings.Join(fragments, "")), &want); err != nil {
			t.Fatalf("fixture %q is not valid JSON: %v", fragments, err)
		}
		if got := agg.ToolUses()[0].Input; !reflect.DeepEqual(got, want) {
			t.Errorf("fragments %q: got %v, want %v", fragments, got, want)
		}
	}
}

func TestAggregatorIsOrderSensitive(t *testing.T) {
	t.Parallel()

	fragments := []string{`{"a":"x`, `y","b":`, `"z"}`}
	reordered := []string{`{"a":"x`, `"z"}`, `y","b":`}

	squash := func(parts []string) map[string]any {
		agg := NewToolUseAggregate().WithIndex(0).WithID("id").WithName("tool")
		for _, p := range parts {
			agg.AppendPartialJSON(p)
		}
		agg.SquashIntoContentBlock()
		return agg.ToolUses()[0].Input
	}

	inOrder := squash(fragments)
	if !reflect.DeepEqual(inOrder, map[string]any{"a": "xy", "b": "z"}) {
		t.Fatalf("in-order input = %v", inOrder)
	}
	if got := squash(reordered); reflect.DeepEqual(got, inOrder) {
		t.Errorf("reordered fragments produced the same input %v", got)
	}
}

func TestAggregatorPartialInput(t *testing.T) {
	t.Parallel()

	agg := NewToolUseAggregate().WithIndex(0).WithID("id").WithName("write_file")
	if got := agg.PartialInput(); len(got) != 0 {
		t.Errorf("got %v, want empty map before any fragment", got)
	}

	agg.AppendPartialJSON(`{"path":"main.go","content":"package ma`)
	got := agg.PartialInput()
	if got["path"] != "main.go" {
		t.Errorf("got path %v, want %q", got["path"], "main.go")
	}
	if got["content"] != "package ma" {
		t.Errorf("got content %v, want %q", got["content"], "package ma")
	}
}

func TestAggregatorToolUsesIsACopy(t *testing.T) {
	t.Parallel()

	agg := NewToolUseAggregate().WithIndex(0).WithID("id").WithName("tool").AppendPartialJSON(`{"k":"v"}`)
	agg.SquashIntoContentBlock()

	uses := agg.ToolUses()
	uses[0].Input["k"] = "changed"
	if agg.ToolUses()[0].Input["k"] != "v" {
		t.Error("mutating ToolUses() result changed the aggregator")
	}
}
