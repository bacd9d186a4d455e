// ABOUTME: Projects reduced stream events onto a running ChatResponse, one snapshot per event
// ABOUTME: Content is replaced per event; usage merges input tokens from start with delta output

package anthropic

import (
	"errors"
	"fmt"

	"github.com/mauromedda/chatstream/internal/log"
	"github.com/mauromedda/chatstream/pkg/ai"
)

var (
	// ErrUnsupportedContentBlock means a block kind reached projection that
	// should have been absorbed upstream (a raw tool_use start).
	ErrUnsupportedContentBlock = errors.New("unsupported content block type")

	// ErrUnsupportedContentBlockDelta is the delta counterpart (input_json_delta).
	ErrUnsupportedContentBlockDelta = errors.New("unsupported content block delta type")
)

// Projector owns the response being built for one stream. The zero value is
// ready to use; events before message_start apply to an empty response.
type Projector struct {
	resp ai.ChatResponse
}

// Apply updates the response from ev and returns a snapshot of it.
func (p *Projector) Apply(ev StreamEvent) (ai.ChatResponse, error) {
	switch e := ev.(type) {
	case *MessageStartEvent:
		m := e.Message
		p.resp = ai.ChatResponse{
			ID:      m.ID,
			Type:    EventMessageStart.Tag(),
			Role:    m.Role,
			Model:   m.Model,
			Content: []ai.ContentBlock{},
		}
		if m.Usage != nil {
			u := *m.Usage
			p.resp.Usage = &u
		}

	case *ToolUseAggregateEvent:
		// The tag is left as the previous event set it.
		if uses := e.ToolUses(); len(uses) > 0 {
			content := make([]ai.ContentBlock, 0, len(uses))
			for _, tu := range uses {
				content = append(content, ai.ContentBlock{
					Type:  ai.ContentToolUse,
					Index: intPtr(tu.Index),
					ID:    tu.ID,
					Name:  tu.Name,
					Input: tu.Input,
				})
			}
			p.resp.Content = content
		}

	case *ContentBlockStartEvent:
		block, err := startBlock(e)
		if err != nil {
			return ai.ChatResponse{}, err
		}
		p.resp.Type = EventContentBlockStart.Tag()
		p.resp.Content = []ai.ContentBlock{block}

	case *ContentBlockDeltaEvent:
		block, err := deltaBlock(e)
		if err != nil {
			return ai.ChatResponse{}, err
		}
		p.resp.Type = EventContentBlockDelta.Tag()
		p.resp.Content = []ai.ContentBlock{block}

	case *MessageDeltaEvent:
		p.resp.Type = EventMessageDelta.Tag()
		if e.Delta.StopReason != "" {
			p.resp.StopReason = e.Delta.StopReason
		}
		if e.Delta.StopSequence != "" {
			p.resp.StopSequence = e.Delta.StopSequence
		}
		if e.Usage != nil {
			merged := ai.Usage{OutputTokens: e.Usage.OutputTokens}
			if prev := p.resp.Usage; prev != nil {
				merged.InputTokens = prev.InputTokens
				merged.CacheRead = prev.CacheRead
				merged.CacheCreate = prev.CacheCreate
			}
			p.resp.Usage = &merged
		}

	case *MessageStopEvent:
		p.resp.Type = EventMessageStop.Tag()
		p.resp.Content = []ai.ContentBlock{}
		p.resp.StopReason = ""
		p.resp.StopSequence = ""

	default:
		if ev == nil {
			return p.snapshot(), nil
		}
		log.Debug("anthropic: unhandled stream event %s", ev.Type())
		p.resp.Type = ev.Type().Tag()
		p.resp.Content = []ai.ContentBlock{}
	}

	return p.snapshot(), nil
}

func startBlock(e *ContentBlockStartEvent) (ai.ContentBlock, error) {
	switch b := e.ContentBlock.(type) {
	case *TextBlock:
		return ai.ContentBlock{Type: ai.ContentText, Index: intPtr(e.Index), Text: b.Text}, nil
	case *ThinkingBlock:
		return ai.ContentBlock{
			Type:      ai.ContentThinking,
			Index:     intPtr(e.Index),
			Thinking:  b.Thinking,
			Signature: b.Signature,
		}, nil
	case *RedactedThinkingBlock:
		return ai.ContentBlock{Type: ai.ContentRedactedThinking, Index: intPtr(e.Index), Data: b.Data}, nil
	case nil:
		return ai.ContentBlock{}, fmt.Errorf("%w: <nil>", ErrUnsupportedContentBlock)
	default:
		return ai.ContentBlock{}, fmt.Errorf("%w: %s", ErrUnsupportedContentBlock, b.BlockType())
	}
}

func deltaBlock(e *ContentBlockDeltaEvent) (ai.ContentBlock, error) {
	switch d := e.Delta.(type) {
	case *TextDelta:
		return ai.ContentBlock{Type: ai.ContentTextDelta, Index: intPtr(e.Index), Text: d.Text}, nil
	case *ThinkingDelta:
		return ai.ContentBlock{Type: ai.ContentThinkingDelta, Index: intPtr(e.Index), Thinking: d.Thinking}, nil
	case *SignatureDelta:
		return ai.ContentBlock{Type: ai.ContentSignatureDelta, Index: intPtr(e.Index), Signature: d.Signature}, nil
	case nil:
		return ai.ContentBlock{}, fmt.Errorf("%w: <nil>", ErrUnsupportedContentBlockDelta)
	default:
		return ai.ContentBlock{}, fmt.Errorf("%w: %s", ErrUnsupportedContentBlockDelta, d.DeltaType())
	}
}

// snapshot copies the response so later events cannot alter what the caller holds.
func (p *Projector) snapshot() ai.ChatResponse {
	out := p.resp
	out.Content = make([]ai.ContentBlock, len(p.resp.Content))
	copy(out.Content, p.resp.Content)
	if p.resp.Usage != nil {
		u := *p.resp.Usage
		out.Usage = &u
	}
	return out
}

func intPtr(i int) *int { return &i }
