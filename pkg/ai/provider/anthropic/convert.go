// ABOUTME: Message format conversion between internal ai types and Anthropic API format
// ABOUTME: Builds the streaming request body from an ai.Request and ai.StreamOptions

package anthropic

import (
	"encoding/json"

	"github.com/mauromedda/chatstream/pkg/ai"
)

const defaultMaxTokens = 4096

// convertMessages transforms internal messages into Anthropic API format.
func convertMessages(msgs []ai.Message) []map[string]any {
	out := make([]map[string]any, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, map[string]any{
			"role":    string(msg.Role),
			"content": convertContent(msg.Content),
		})
	}
	return out
}

// convertContent transforms internal content blocks into Anthropic API format.
func convertContent(blocks []ai.ContentBlock) []map[string]any {
	out := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, convertContentBlock(b))
	}
	return out
}

// convertContentBlock converts a single content block to Anthropic API format.
// Streaming-only kinds (deltas) are never sent back.
func convertContentBlock(b ai.ContentBlock) map[string]any {
	switch b.Type {
	case ai.ContentText, ai.ContentTextDelta:
		return map[string]any{"type": "text", "text": b.Text}
	case ai.ContentToolUse:
		input := b.Input
		if input == nil {
			input = map[string]any{}
		}
		return map[string]any{
			"type":  "tool_use",
			"id":    b.ID,
			"name":  b.Name,
			"input": input,
		}
	case ai.ContentToolResult:
		result := map[string]any{
			"type":        "tool_result",
			"tool_use_id": b.ID,
			"content":     b.Text,
		}
		if b.IsError {
			result["is_error"] = true
		}
		return result
	case ai.ContentThinking:
		return map[string]any{"type": "thinking", "thinking": b.Thinking, "signature": b.Signature}
	case ai.ContentRedactedThinking:
		return map[string]any{"type": "redacted_thinking", "data": b.Data}
	default:
		return map[string]any{"type": string(b.Type), "text": b.Text}
	}
}

// convertTools transforms internal tool definitions into Anthropic API format.
func convertTools(tools []ai.Tool) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		entry := map[string]any{
			"name":        t.Name,
			"description": t.Description,
		}
		if t.Parameters != nil {
			entry["input_schema"] = json.RawMessage(t.Parameters)
		} else {
			entry["input_schema"] = map[string]any{"type": "object"}
		}
		out = append(out, entry)
	}
	return out
}

// buildRequestBody constructs the full Anthropic Messages API request body.
func buildRequestBody(req *ai.Request, opts *ai.StreamOptions) map[string]any {
	body := map[string]any{
		"model":      req.Model,
		"stream":     true,
		"max_tokens": resolveMaxTokens(opts),
		"messages":   convertMessages(req.Messages),
	}

	if req.System != "" {
		body["system"] = req.System
	}

	if len(req.Tools) > 0 {
		body["tools"] = convertTools(req.Tools)
	}

	applyStreamOptions(body, opts)

	return body
}

// resolveMaxTokens returns the max tokens value, preferring opts over the default.
func resolveMaxTokens(opts *ai.StreamOptions) int {
	if opts != nil && opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	return defaultMaxTokens
}

// applyStreamOptions applies optional streaming parameters to the request body.
func applyStreamOptions(body map[string]any, opts *ai.StreamOptions) {
	if opts == nil {
		return
	}
	if opts.Temperature > 0 {
		body["temperature"] = opts.Temperature
	}
	if opts.TopP > 0 {
		body["top_p"] = opts.TopP
	}
	if len(opts.StopSequences) > 0 {
		body["stop_sequences"] = opts.StopSequences
	}
	if opts.ThinkingBudget > 0 {
		body["thinking"] = map[string]any{
			"type":          "enabled",
			"budget_tokens": opts.ThinkingBudget,
		}
		// Extended thinking requires max_tokens above the budget and no temperature.
		if mt, _ := body["max_tokens"].(int); mt <= opts.ThinkingBudget {
			body["max_tokens"] = opts.ThinkingBudget + defaultMaxTokens
		}
		delete(body, "temperature")
		delete(body, "top_p")
	}
}
