// ABOUTME: Output formatters for print mode: text, JSON, stream-JSON and pretty
// ABOUTME: Each formatter consumes snapshots and the final collected message

package print

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/mauromedda/chatstream/pkg/ai"
)

// formatter abstracts output formatting.
type formatter interface {
	start(streamID string)
	snapshot(r *ai.ChatResponse)
	err(e error)
	end(msg *ai.AssistantMessage)
}

var formats = []string{"text", "json", "stream-json", "pretty"}

func knownFormat(format string) bool {
	for _, f := range formats {
		if f == format {
			return true
		}
	}
	return false
}

func newFormatter(cfg Config, out, diag io.Writer) formatter {
	switch cfg.OutputFormat {
	case "json":
		return &jsonFormatter{out: out}
	case "stream-json":
		return &streamJSONFormatter{out: out}
	case "pretty":
		pf := &prettyFormatter{out: out, width: cfg.Width, styles: defaultStyles()}
		if cfg.Markdown {
			pf.markdown = sharedRenderer
		}
		return pf
	default:
		return &textFormatter{out: out, diag: diag}
	}
}

// contentOf returns the blocks a snapshot contributes. A message_delta
// snapshot repeats the previous event's blocks and contributes none.
func contentOf(r *ai.ChatResponse) []ai.ContentBlock {
	if r == nil || r.Type == ai.TagMessageDelta {
		return nil
	}
	return r.Content
}

// textFormatter writes text as it streams; tool calls go to diag.
type textFormatter struct {
	out  io.Writer
	diag io.Writer
}

func (f *textFormatter) start(string) {}

func (f *textFormatter) snapshot(r *ai.ChatResponse) {
	for _, b := range contentOf(r) {
		switch b.Type {
		case ai.ContentText, ai.ContentTextDelta:
			fmt.Fprint(f.out, b.Text)
		case ai.ContentToolUse:
			fmt.Fprintf(f.diag, "[tool: %s] %s\n", b.Name, argsPreview(b.Input, 0))
		}
	}
}

func (f *textFormatter) err(e error) { fmt.Fprintf(f.diag, "error: %v\n", e) }
func (f *textFormatter) end(*ai.AssistantMessage) { fmt.Fprintln(f.out) }

// jsonFormatter collects the stream and writes a single JSON object at the end.
type jsonFormatter struct {
	out    io.Writer
	id     string
	errors []string
}

type jsonToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

type jsonOutput struct {
	Stream     string         `json:"stream"`
	ID         string         `json:"id,omitempty"`
	Model      string         `json:"model,omitempty"`
	Text       string         `json:"text"`
	Thinking   string         `json:"thinking,omitempty"`
	ToolCalls  []jsonToolCall `json:"tool_calls,omitempty"`
	StopReason ai.StopReason  `json:"stop_reason,omitempty"`
	Usage      ai.Usage       `json:"usage"`
	Errors     []string       `json:"errors,omitempty"`
}

func (f *jsonFormatter) start(streamID string) { f.id = streamID }
func (f *jsonFormatter) snapshot(*ai.ChatResponse) {}
func (f *jsonFormatter) err(e error) { f.errors = append(f.errors, e.Error()) }

func (f *jsonFormatter) end(msg *ai.AssistantMessage) {
	out := jsonOutput{Stream: f.id, Errors: f.errors}
	if msg != nil {
		out.ID = msg.ID
		out.Model = msg.Model
		out.Text = msg.Text()
		out.StopReason = msg.StopReason
		out.Usage = msg.Usage
		for _, b := range msg.Content {
			if b.Type == ai.ContentThinking {
				out.Thinking += b.Thinking
			}
		}
		for _, tu := range msg.ToolUses() {
			out.ToolCalls = append(out.ToolCalls, jsonToolCall{ID: tu.ID, Name: tu.Name, Input: tu.Input})
		}
	}
	writeJSONLine(f.out, out)
}

// streamJSONFormatter outputs one JSON line per snapshot.
type streamJSONFormatter struct {
	out io.Writer
	id  string
}

type streamLine struct {
	Stream   string           `json:"stream"`
	Snapshot *ai.ChatResponse `json:"snapshot,omitempty"`
	Error    string           `json:"error,omitempty"`
	Done     bool             `json:"done,omitempty"`
}

func (f *streamJSONFormatter) start(streamID string) { f.id = streamID }

func (f *streamJSONFormatter) snapshot(r *ai.ChatResponse) {
	writeJSONLine(f.out, streamLine{Stream: f.id, Snapshot: r})
}

func (f *streamJSONFormatter) err(e error) {
	writeJSONLine(f.out, streamLine{Stream: f.id, Error: e.Error()})
}

func (f *streamJSONFormatter) end(*ai.AssistantMessage) {
	writeJSONLine(f.out, streamLine{Stream: f.id, Done: true})
}

func writeJSONLine(w io.Writer, v any) {
	data, _ := json.Marshal(v)
	fmt.Fprintln(w, string(data))
}

// prettyFormatter renders a styled summary once the stream completes.
type prettyFormatter struct {
	out      io.Writer
	width    int
	styles   styles
	markdown *markdownRenderer
	id       string
	errs     []error
}

func (f *prettyFormatter) start(streamID string) { f.id = streamID }
func (f *prettyFormatter) snapshot(*ai.ChatResponse) {}
func (f *prettyFormatter) err(e error) { f.errs = append(f.errs, e) }

func (f *prettyFormatter) end(msg *ai.AssistantMessage) {
	var b strings.Builder

	header := f.id
	if msg != nil && msg.Model != "" {
		header = msg.Model + "  " + f.id
	}
	b.WriteString(f.styles.header.Render("● " + header))
	b.WriteString("\n")

	if msg != nil {
		for _, c := range msg.Content {
			switch c.Type {
			case ai.ContentThinking:
				if c.Thinking != "" {
					b.WriteString(f.styles.thinking.Render(truncate(c.Thinking, f.width)))
					b.WriteString("\n")
				}
			case ai.ContentRedactedThinking:
				b.WriteString(f.styles.thinking.Render("[redacted thinking]"))
				b.WriteString("\n")
			case ai.ContentText:
				b.WriteString(f.renderText(c.Text))
				b.WriteString("\n")
			case ai.ContentToolUse:
				b.WriteString(f.toolLine(c))
				b.WriteString("\n")
			}
		}
		b.WriteString(f.styles.footer.Render(footer(msg)))
		b.WriteString("\n")
	}

	for _, e := range f.errs {
		b.WriteString(f.styles.err.Render("✗ " + e.Error()))
		b.WriteString("\n")
	}
	fmt.Fprint(f.out, b.String())
}

func (f *prettyFormatter) renderText(text string) string {
	if f.markdown == nil {
		return text
	}
	return f.markdown.Render(text, f.width)
}

func (f *prettyFormatter) toolLine(c ai.ContentBlock) string {
	name := f.styles.tool.Render("⚙ " + c.Name)
	budget := f.width - runewidth.StringWidth(c.Name) - 4
	return name + " " + f.styles.args.Render(argsPreview(c.Input, budget))
}

func footer(msg *ai.AssistantMessage) string {
	reason := string(msg.StopReason)
	if reason == "" {
		reason = "incomplete"
	}
	return fmt.Sprintf("%s · in %d · out %d tokens", reason, msg.Usage.InputTokens, msg.Usage.OutputTokens)
}

// argsPreview returns the compact JSON of tool input, truncated to width
// terminal cells. A non-positive width disables truncation.
func argsPreview(input map[string]any, width int) string {
	if input == nil {
		input = map[string]any{}
	}
	data, err := json.Marshal(input)
	if err != nil {
		return "{…}"
	}
	if width <= 0 {
		return string(data)
	}
	return runewidth.Truncate(string(data), width, "…")
}

// truncate keeps the first line of s within width cells.
func truncate(s string, width int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " …"
	}
	return runewidth.Truncate(s, width, "…")
}

// styles is the pretty format's palette.
type styles struct {
	header   lipgloss.Style
	thinking lipgloss.Style
	tool     lipgloss.Style
	args     lipgloss.Style
	footer   lipgloss.Style
	err      lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		thinking: lipgloss.NewStyle().Italic(true).Faint(true),
		tool:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
		args:     lipgloss.NewStyle().Faint(true),
		footer:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		err:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}
