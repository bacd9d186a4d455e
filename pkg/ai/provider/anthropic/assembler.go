// ABOUTME: Assembler pipeline: drop pings, window tool calls, project, drop untagged snapshots
// ABOUTME: ReadResponses drives it lazily over an SSE body as an iter.Seq2

package anthropic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/mauromedda/chatstream/internal/log"
	"github.com/mauromedda/chatstream/pkg/ai"
	"github.com/mauromedda/chatstream/pkg/ai/internal/sse"
)

// Assembler turns the decoded events of one stream into response snapshots.
// It holds per-stream state and must not be shared between streams.
type Assembler struct {
	window    toolWindow
	projector Projector
	lastErr   *APIError
	events    int
}

// NewAssembler returns an assembler for a new stream.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Push feeds the next event in wire order. It returns nil without error when
// the event produced no snapshot (a ping, or a tool call still in progress).
func (a *Assembler) Push(ev StreamEvent) (*ai.ChatResponse, error) {
	if ev == nil {
		return nil, nil
	}
	a.events++

	switch e := ev.(type) {
	case *PingEvent:
		return nil, nil
	case *ErrorEvent:
		apiErr := e.Error
		a.lastErr = &apiErr
		log.Error("anthropic: stream error event: %s: %s", apiErr.Type, apiErr.Message)
	}

	reduced, ok := a.window.Push(ev)
	if !ok {
		return nil, nil
	}

	resp, err := a.projector.Apply(reduced)
	if err != nil {
		return nil, err
	}
	if resp.Type == "" {
		return nil, nil
	}
	return &resp, nil
}

// Err returns the last error event seen on the stream, if any.
func (a *Assembler) Err() error {
	if a.lastErr == nil {
		return nil
	}
	return a.lastErr
}

// Close ends the stream. A tool call left open is discarded.
func (a *Assembler) Close() {
	if a.window.Open() {
		log.Warn("anthropic: stream ended inside a tool call after %d events; %d pending events dropped",
			a.events, a.window.members)
	}
}

// Assemble runs the pipeline over an already-decoded event sequence.
func (a *Assembler) Assemble(events iter.Seq[StreamEvent]) iter.Seq2[*ai.ChatResponse, error] {
	return func(yield func(*ai.ChatResponse, error) bool) {
		defer a.Close()
		for ev := range events {
			resp, err := a.Push(ev)
			if err != nil {
				yield(nil, err)
				return
			}
			if resp != nil && !yield(resp, nil) {
				return
			}
		}
	}
}

// Read frames r as SSE, decodes each data payload and runs the pipeline.
// The sequence ends at EOF, on the first error, when ctx is done, or when the
// consumer stops.
func (a *Assembler) Read(ctx context.Context, r io.Reader) iter.Seq2[*ai.ChatResponse, error] {
	return func(yield func(*ai.ChatResponse, error) bool) {
		reader := sse.NewReader(r)
		defer reader.Close()
		a.readFrames(ctx, reader, yield)
	}
}

func (a *Assembler) readFrames(ctx context.Context, reader *sse.Reader, yield func(*ai.ChatResponse, error) bool) {
	defer a.Close()

	for {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}

		raw, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(nil, fmt.Errorf("SSE read error: %w", err))
			return
		}
		if raw.IsDone() || raw.Data == "" {
			continue
		}

		ev, err := DecodeEvent([]byte(raw.Data))
		if err != nil {
			yield(nil, err)
			return
		}

		resp, err := a.Push(ev)
		if err != nil {
			yield(nil, err)
			return
		}
		if resp != nil && !yield(resp, nil) {
			return
		}
	}
}

// ReadResponses assembles the SSE stream in r with a fresh Assembler.
func ReadResponses(ctx context.Context, r io.Reader) iter.Seq2[*ai.ChatResponse, error] {
	return NewAssembler().Read(ctx, r)
}
