// ABOUTME: Tests for Projector.Apply: per-event content replacement, tags and usage merging
// ABOUTME: Also covers contract violations and the forward-compatible fallback for other events

package anthropic

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mauromedda/chatstream/pkg/ai"
)

func messageStart(id string, in int) *MessageStartEvent {
	return &MessageStartEvent{Message: ai.ChatResponse{
		ID:    id,
		Type:  "message",
		Role:  ai.RoleAssistant,
		Model: "m",
		Usage: &ai.Usage{InputTokens: in},
	}}
}

func TestProjectorMessageStart(t *testing.T) {
	t.Parallel()

	var p Projector
	got, err := p.Apply(messageStart("msg_1", 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "msg_1" || got.Role != ai.RoleAssistant || got.Model != "m" {
		t.Errorf("got %+v", got)
	}
	if got.Type != ai.TagMessageStart {
		t.Errorf("got Type %q, want %q", got.Type, ai.TagMessageStart)
	}
	if got.Content == nil || len(got.Content) != 0 {
		t.Errorf("got Content %#v, want empty non-nil slice", got.Content)
	}
	if got.Usage == nil || got.Usage.InputTokens != 10 {
		t.Errorf("got Usage %+v, want input 10", got.Usage)
	}
}

func TestProjectorBlocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ev      StreamEvent
		wantTag string
		want    ai.ContentBlock
	}{
		{"text start", &ContentBlockStartEvent{Index: 0, ContentBlock: &TextBlock{Text: "Hi"}}, ai.TagContentBlockStart,
			ai.ContentBlock{Type: ai.ContentText, Index: intPtr(0), Text: "Hi"}},
		{"thinking start", &ContentBlockStartEvent{Index: 1, ContentBlock: &ThinkingBlock{Thinking: "t", Signature: "s"}}, ai.TagContentBlockStart,
			ai.ContentBlock{Type: ai.ContentThinking, Index: intPtr(1), Thinking: "t", Signature: "s"}},
		{"redacted start", &ContentBlockStartEvent{Index: 2, ContentBlock: &RedactedThinkingBlock{Data: "enc"}}, ai.TagContentBlockStart,
			ai.ContentBlock{Type: ai.ContentRedactedThinking, Index: intPtr(2), Data: "enc"}},
		{"text delta", &ContentBlockDeltaEvent{Index: 0, Delta: &TextDelta{Text: "lo"}}, ai.TagContentBlockDelta,
			ai.ContentBlock{Type: ai.ContentTextDelta, Index: intPtr(0), Text: "lo"}},
		{"thinking delta", &ContentBlockDeltaEvent{Index: 1, Delta: &ThinkingDelta{Thinking: "hmm"}}, ai.TagContentBlockDelta,
			ai.ContentBlock{Type: ai.ContentThinkingDelta, Index: intPtr(1), Thinking: "hmm"}},
		{"signature delta", &ContentBlockDeltaEvent{Index: 1, Delta: &SignatureDelta{Signature: "sig"}}, ai.TagContentBlockDelta,
			ai.ContentBlock{Type: ai.ContentSignatureDelta, Index: intPtr(1), Signature: "sig"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var p Projector
			if _, err := p.Apply(messageStart("msg", 1)); err != nil {
				t.Fatal(err)
			}
			got, err := p.Apply(tt.ev)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Type != tt.wantTag {
				t.Errorf("got Type %q, want %q", got.Type, tt.wantTag)
			}
			if len(got.Content) != 1 || !reflect.DeepEqual(got.Content[0], tt.want) {
				t.Errorf("got Content %+v, want [%+v]", got.Content, tt.want)
			}
		})
	}
}

func TestProjectorRejectsUnabsorbedToolEvents(t *testing.T) {
	t.Parallel()

	var p Projector
	if _, err := p.Apply(toolStart(0, "c", "f")); !errors.Is(err, ErrUnsupportedContentBlock) {
		t.Errorf("got %v, want ErrUnsupportedContentBlock", err)
	}
	if _, err := p.Apply(jsonDelta(0, "{}")); !errors.Is(err, ErrUnsupportedContentBlockDelta) {
		t.Errorf("got %v, want ErrUnsupportedContentBlockDelta", err)
	}
	if _, err := p.Apply(&ContentBlockStartEvent{}); !errors.Is(err, ErrUnsupportedContentBlock) {
		t.Errorf("got %v, want ErrUnsupportedContentBlock for a missing body", err)
	}
}

func TestProjectorToolUseAggregate(t *testing.T) {
	t.Parallel()

	var p Projector
	_, _ = p.Apply(messageStart("msg", 1))
	_, _ = p.Apply(textDelta(0, "before"))

	agg := NewToolUseAggregate().WithIndex(1).WithID("call_1").WithName("getWeather").AppendPartialJSON(`{"location":"Paris"}`)
	agg.SquashIntoContentBlock()

	got, err := p.Apply(agg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != ai.TagContentBlockDelta {
		t.Errorf("got Type %q, want tag left at %q", got.Type, ai.TagContentBlockDelta)
	}
	want := []ai.ContentBlock{{
		Type:  ai.ContentToolUse,
		Index: intPtr(1),
		ID:    "call_1",
		Name:  "getWeather",
		Input: map[string]any{"location": "Paris"},
	}}
	if !reflect.DeepEqual(got.Content, want) {
		t.Errorf("got Content %+v, want %+v", got.Content, want)
	}
}

func TestProjectorEmptyAggregateLeavesSnapshot(t *testing.T) {
	t.Parallel()

	var p Projector
	_, _ = p.Apply(messageStart("msg", 1))
	before, _ := p.Apply(textDelta(0, "x"))
	after, err := p.Apply(NewToolUseAggregate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("got %+v, want unchanged %+v", after, before)
	}
}

func TestProjectorUsageMerge(t *testing.T) {
	t.Parallel()

	var p Projector
	start := messageStart("msg", 25)
	start.Message.Usage.CacheRead = 7
	_, _ = p.Apply(start)

	got, err := p.Apply(&MessageDeltaEvent{
		Delta: MessageDelta{StopReason: ai.StopEndTurn},
		Usage: &MessageDeltaUsage{OutputTokens: 117},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != ai.TagMessageDelta {
		t.Errorf("got Type %q, want %q", got.Type, ai.TagMessageDelta)
	}
	if got.Usage == nil || got.Usage.InputTokens != 25 || got.Usage.OutputTokens != 117 {
		t.Errorf("got Usage %+v, want in=25 out=117", got.Usage)
	}
	if got.Usage.CacheRead != 7 {
		t.Errorf("got CacheRead %d, want 7 carried forward", got.Usage.CacheRead)
	}

	// A later delta replaces output tokens and keeps input tokens.
	got, _ = p.Apply(&MessageDeltaEvent{Usage: &MessageDeltaUsage{OutputTokens: 130}})
	if got.Usage.InputTokens != 25 || got.Usage.OutputTokens != 130 {
		t.Errorf("got Usage %+v, want in=25 out=130", got.Usage)
	}
	if got.StopReason != ai.StopEndTurn {
		t.Errorf("blank stop reason overwrote %q with %q", ai.StopEndTurn, got.StopReason)
	}
}

func TestProjectorMessageDeltaWithoutUsage(t *testing.T) {
	t.Parallel()

	var p Projector
	_, _ = p.Apply(messageStart("msg", 3))
	got, _ := p.Apply(&MessageDeltaEvent{Delta: MessageDelta{StopReason: ai.StopStopSequence, StopSequence: "###"}})
	if got.StopReason != ai.StopStopSequence || got.StopSequence != "###" {
		t.Errorf("got stop %q/%q", got.StopReason, got.StopSequence)
	}
	if got.Usage == nil || got.Usage.InputTokens != 3 || got.Usage.OutputTokens != 0 {
		t.Errorf("got Usage %+v, want start usage unchanged", got.Usage)
	}
}

func TestProjectorMessageStopClearsStopFields(t *testing.T) {
	t.Parallel()

	var p Projector
	_, _ = p.Apply(messageStart("msg", 1))
	_, _ = p.Apply(&MessageDeltaEvent{Delta: MessageDelta{StopReason: ai.StopToolUse, StopSequence: "x"}})

	got, err := p.Apply(&MessageStopEvent{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != ai.TagMessageStop {
		t.Errorf("got Type %q, want %q", got.Type, ai.TagMessageStop)
	}
	if got.StopReason != "" || got.StopSequence != "" {
		t.Errorf("got stop %q/%q, want cleared", got.StopReason, got.StopSequence)
	}
	if len(got.Content) != 0 {
		t.Errorf("got Content %+v, want empty", got.Content)
	}
	if got.ID != "msg" {
		t.Errorf("got ID %q, want it kept", got.ID)
	}
}

func TestProjectorUnhandledEvents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ev   StreamEvent
		want string
	}{
		{&PingEvent{}, ai.TagPing},
		{&ErrorEvent{Error: APIError{Type: "overloaded_error", Message: "Overloaded"}}, ai.TagError},
		{blockStop(0), ai.TagContentBlockStop},
	}
	for _, tt := range tests {
		var p Projector
		_, _ = p.Apply(messageStart("msg", 1))
		_, _ = p.Apply(textDelta(0, "x"))

		got, err := p.Apply(tt.ev)
		if err != nil {
			t.Errorf("%T: unexpected error: %v", tt.ev, err)
			continue
		}
		if got.Type != tt.want {
			t.Errorf("%T: got Type %q, want %q", tt.ev, got.Type, tt.want)
		}
		if len(got.Content) != 0 {
			t.Errorf("%T: got Content %+v, want empty", tt.ev, got.Content)
		}
	}
}

func TestProjectorBeforeMessageStart(t *testing.T) {
	t.Parallel()

	var p Projector
	got, err := p.Apply(textDelta(0, "early"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "" || got.Usage != nil {
		t.Errorf("got %+v, want zero identity", got)
	}
	if got.Type != ai.TagContentBlockDelta || len(got.Content) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestProjectorSnapshotsAreIndependent(t *testing.T) {
	t.Parallel()

	var p Projector
	first, _ := p.Apply(messageStart("msg", 5))
	first.Usage.InputTokens = 999

	second, _ := p.Apply(textDelta(0, "x"))
	second.Content[0].Text = "mutated"

	third, _ := p.Apply(&MessageDeltaEvent{Usage: &MessageDeltaUsage{OutputTokens: 1}})
	if third.Usage.InputTokens != 5 {
		t.Errorf("caller mutation leaked into builder: input tokens %d", third.Usage.InputTokens)
	}
	if third.Content[0].Text != "x" {
		t.Errorf("caller mutation leaked into builder: text %q", third.Content[0].Text)
	}
}
