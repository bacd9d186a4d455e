// ABOUTME: Decodes one SSE data payload into a StreamEvent with the easyjson lexer
// ABOUTME: Dispatches on the "type" field wherever it sits; unknown discriminators fail

package anthropic

import (
	"errors"
	"fmt"

	"github.com/mailru/easyjson/jlexer"

	"github.com/mauromedda/chatstream/pkg/ai"
)

// ErrDecode wraps every failure to turn a payload into a StreamEvent.
var ErrDecode = errors.New("anthropic: cannot decode stream event")

var errMissingType = errors.New(`missing "type" field`)

// DecodeEvent parses one SSE data payload.
func DecodeEvent(data []byte) (StreamEvent, error) {
	typ, err := peekType(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	in := jlexer.Lexer{Data: data}
	var ev StreamEvent

	switch EventType(typ) {
	case EventMessageStart:
		e := &MessageStartEvent{}
		decodeObject(&in, func(in *jlexer.Lexer, key string) {
			if key == "message" {
				decodeMessage(in, &e.Message)
				return
			}
			in.SkipRecursive()
		})
		ev = e
	case EventMessageDelta:
		e := &MessageDeltaEvent{}
		decodeObject(&in, func(in *jlexer.Lexer, key string) {
			switch key {
			case "delta":
				decodeMessageDelta(in, &e.Delta)
			case "usage":
				e.Usage = &MessageDeltaUsage{}
				decodeObject(in, func(in *jlexer.Lexer, key string) {
					if key == "output_tokens" {
						e.Usage.OutputTokens = in.Int()
						return
					}
					in.SkipRecursive()
				})
			default:
				in.SkipRecursive()
			}
		})
		ev = e
	case EventContentBlockStart:
		e := &ContentBlockStartEvent{}
		decodeObject(&in, func(in *jlexer.Lexer, key string) {
			switch key {
			case "index":
				e.Index = in.Int()
			case "content_block":
				body, err := decodeContentBlock(in.Raw())
				if err != nil {
					in.AddError(err)
					return
				}
				e.ContentBlock = body
			default:
				in.SkipRecursive()
			}
		})
		if in.Ok() && e.ContentBlock == nil {
			in.AddError(errors.New("content_block_start without content_block"))
		}
		ev = e
	case EventContentBlockDelta:
		e := &ContentBlockDeltaEvent{}
		decodeObject(&in, func(in *jlexer.Lexer, key string) {
			switch key {
			case "index":
				e.Index = in.Int()
			case "delta":
				body, err := decodeDelta(in.Raw())
				if err != nil {
					in.AddError(err)
					return
				}
				e.Delta = body
			default:
				in.SkipRecursive()
			}
		})
		if in.Ok() && e.Delta == nil {
			in.AddError(errors.New("content_block_delta without delta"))
		}
		ev = e
	case EventContentBlockStop:
		e := &ContentBlockStopEvent{}
		decodeObject(&in, func(in *jlexer.Lexer, key string) {
			if key == "index" {
				e.Index = in.Int()
				return
			}
			in.SkipRecursive()
		})
		ev = e
	case EventMessageStop:
		skipObject(&in)
		ev = &MessageStopEvent{}
	case EventPing:
		skipObject(&in)
		ev = &PingEvent{}
	case EventError:
		e := &ErrorEvent{}
		decodeObject(&in, func(in *jlexer.Lexer, key string) {
			if key != "error" {
				in.SkipRecursive()
				return
			}
			decodeObject(in, func(in *jlexer.Lexer, key string) {
				switch key {
				case "type":
					e.Error.Type = in.String()
				case "message":
					e.Error.Message = in.String()
				default:
					in.SkipRecursive()
				}
			})
		})
		ev = e
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrDecode, typ)
	}

	in.Consumed()
	if err := in.Error(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, typ, err)
	}
	return ev, nil
}

// decodeObject walks a JSON object, handing each non-null member to field.
// field must consume exactly one value.
func decodeObject(in *jlexer.Lexer, field func(in *jlexer.Lexer, key string)) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		field(in, key)
		in.WantComma()
	}
	in.Delim('}')
}

func skipObject(in *jlexer.Lexer) {
	decodeObject(in, func(in *jlexer.Lexer, _ string) { in.SkipRecursive() })
}

// peekType finds the top-level "type" member without assuming its position.
func peekType(data []byte) (string, error) {
	in := jlexer.Lexer{Data: data}
	var typ string
	decodeObject(&in, func(in *jlexer.Lexer, key string) {
		if key == "type" {
			typ = in.String()
			return
		}
		in.SkipRecursive()
	})
	in.Consumed()
	if err := in.Error(); err != nil {
		return "", err
	}
	if typ == "" {
		return "", errMissingType
	}
	return typ, nil
}

func decodeMessage(in *jlexer.Lexer, m *ai.ChatResponse) {
	decodeObject(in, func(in *jlexer.Lexer, key string) {
		switch key {
		case "id":
			m.ID = in.String()
		case "type":
			m.Type = in.String()
		case "role":
			m.Role = ai.Role(in.String())
		case "model":
			m.Model = in.String()
		case "stop_reason":
			m.StopReason = ai.StopReason(in.String())
		case "stop_sequence":
			m.StopSequence = in.String()
		case "usage":
			m.Usage = &ai.Usage{}
			decodeUsage(in, m.Usage)
		default:
			in.SkipRecursive()
		}
	})
}

func decodeUsage(in *jlexer.Lexer, u *ai.Usage) {
	decodeObject(in, func(in *jlexer.Lexer, key string) {
		switch key {
		case "input_tokens":
			u.InputTokens = in.Int()
		case "output_tokens":
			u.OutputTokens = in.Int()
		case "cache_read_input_tokens":
			u.CacheRead = in.Int()
		case "cache_creation_input_tokens":
			u.CacheCreate = in.Int()
		default:
			in.SkipRecursive()
		}
	})
}

func decodeMessageDelta(in *jlexer.Lexer, d *MessageDelta) {
	decodeObject(in, func(in *jlexer.Lexer, key string) {
		switch key {
		case "stop_reason":
			d.StopReason = ai.StopReason(in.String())
		case "stop_sequence":
			d.StopSequence = in.String()
		default:
			in.SkipRecursive()
		}
	})
}

func decodeContentBlock(data []byte) (ContentBlockBody, error) {
	typ, err := peekType(data)
	if err != nil {
		return nil, fmt.Errorf("content_block: %w", err)
	}
	in := jlexer.Lexer{Data: data}
	var body ContentBlockBody

	switch BlockType(typ) {
	case BlockText:
		b := &TextBlock{}
		decodeObject(&in, func(in *jlexer.Lexer, key string) {
			if key == "text" {
				b.Text = in.String()
				return
			}
			in.SkipRecursive()
		})
		body = b
	case BlockToolUse:
		b := &ToolUseBlock{}
		decodeObject(&in, func(in *jlexer.Lexer, key string) {
			switch key {
			case "id":
				b.ID = in.String()
			case "name":
				b.Name = in.String()
			case "input":
				if m, ok := in.Interface().(map[string]any); ok {
					b.Input = m
				}
			default:
				in.SkipRecursive()
			}
		})
		body = b
	case BlockThinking:
		b := &ThinkingBlock{}
		decodeObject(&in, func(in *jlexer.Lexer, key string) {
			switch key {
			case "thinking":
				b.Thinking = in.String()
			case "signature":
				b.Signature = in.String()
			default:
				in.SkipRecursive()
			}
		})
		body = b
	case BlockRedactedThinking:
		b := &RedactedThinkingBlock{}
		decodeObject(&in, func(in *jlexer.Lexer, key string) {
			if key == "data" {
				b.Data = in.String()
				return
			}
			in.SkipRecursive()
		})
		body = b
	default:
		return nil, fmt.Errorf("unknown content block type %q", typ)
	}

	in.Consumed()
	if err := in.Error(); err != nil {
		return nil, fmt.Errorf("content_block %s: %w", typ, err)
	}
	return body, nil
}

func decodeDelta(data []byte) (ContentBlockDeltaBody, error) {
	typ, err := peekType(data)
	if err != nil {
		return nil, fmt.Errorf("delta: %w", err)
	}
	in := jlexer.Lexer{Data: data}
	var body ContentBlockDeltaBody

	// Each delta kind carries exactly one string member.
	var field string
	var target *string
	switch DeltaType(typ) {
	case DeltaText:
		d := &TextDelta{}
		field, target, body = "text", &d.Text, d
	case DeltaInputJSON:
		d := &InputJSONDelta{}
		field, target, body = "partial_json", &d.PartialJSON, d
	case DeltaThinking:
		d := &ThinkingDelta{}
		field, target, body = "thinking", &d.Thinking, d
	case DeltaSignature:
		d := &SignatureDelta{}
		field, target, body = "signature", &d.Signature, d
	default:
		return nil, fmt.Errorf("unknown delta type %q", typ)
	}

	decodeObject(&in, func(in *jlexer.Lexer, key string) {
		if key == field {
			*target = in.String()
			return
		}
		in.SkipRecursive()
	})
	in.Consumed()
	if err := in.Error(); err != nil {
		return nil, fmt.Errorf("delta %s: %w", typ, err)
	}
	return body, nil
}
