// ABOUTME: Headless print mode: streams live responses or replays recorded SSE transcripts
// ABOUTME: Folds snapshots through a formatter and optionally fans them out to a publisher

package print

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mauromedda/chatstream/internal/log"
	"github.com/mauromedda/chatstream/pkg/ai"
	"github.com/mauromedda/chatstream/pkg/ai/provider/anthropic"
)

const defaultReplayConcurrency = 4

// Publisher receives every snapshot of a stream and its final message.
// *fanout.Publisher satisfies it.
type Publisher interface {
	Publish(streamID string, resp *ai.ChatResponse) error
	PublishDone(streamID string, msg *ai.AssistantMessage) error
}

// Config configures print mode execution.
type Config struct {
	OutputFormat string    // "text" (default), "json", "stream-json", "pretty"
	Out          io.Writer // defaults to os.Stdout
	Diag         io.Writer // tool and error notices of the text format; defaults to os.Stderr
	Width        int       // pretty format wrap width; 0 means 80
	Markdown     bool      // pretty format renders the final text with glamour
	Publisher    Publisher // optional snapshot fan-out
	Concurrency  int       // replay worker limit; 0 means 4
}

func (c *Config) applyDefaults() {
	if c.OutputFormat == "" {
		c.OutputFormat = "text"
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if c.Diag == nil {
		c.Diag = os.Stderr
	}
	if c.Width <= 0 {
		c.Width = 80
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultReplayConcurrency
	}
}

// Run streams one live request through provider and prints the result.
func Run(ctx context.Context, cfg Config, provider ai.ApiProvider, req *ai.Request, opts *ai.StreamOptions) error {
	cfg.applyDefaults()
	if !knownFormat(cfg.OutputFormat) {
		return fmt.Errorf("unknown output format %q", cfg.OutputFormat)
	}

	streamID := uuid.NewString()
	stream := provider.Stream(ctx, req, opts)

	f := newFormatter(cfg, cfg.Out, cfg.Diag)
	_, err := consume(stream.All(), f, cfg.Publisher, streamID)
	return err
}

// Replay reads recorded SSE transcripts concurrently, each through its own
// assembler, and prints them in argument order once all are done.
func Replay(ctx context.Context, cfg Config, paths []string) error {
	cfg.applyDefaults()
	if !knownFormat(cfg.OutputFormat) {
		return fmt.Errorf("unknown output format %q", cfg.OutputFormat)
	}
	if len(paths) == 0 {
		return errors.New("no transcripts to replay")
	}

	outs := make([]bytes.Buffer, len(paths))
	diags := make([]bytes.Buffer, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(cfg.Concurrency)
	for i, path := range paths {
		g.Go(func() error {
			errs[i] = replayFile(ctx, cfg, path, &outs[i], &diags[i])
			return nil
		})
	}
	_ = g.Wait()

	for i := range paths {
		if _, err := outs[i].WriteTo(cfg.Out); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		if _, err := diags[i].WriteTo(cfg.Diag); err != nil {
			return fmt.Errorf("writing diagnostics: %w", err)
		}
	}
	return errors.Join(errs...)
}

func replayFile(ctx context.Context, cfg Config, path string, out, diag io.Writer) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening transcript: %w", err)
	}
	defer fh.Close()

	streamID := StreamIDForPath(path)
	log.Debug("replaying %s as stream %s", path, streamID)

	f := newFormatter(cfg, out, diag)
	if _, err := consume(anthropic.ReadResponses(ctx, fh), f, cfg.Publisher, streamID); err != nil {
		return fmt.Errorf("replaying %s: %w", path, err)
	}
	return nil
}

// consume drives one snapshot sequence through f, folding it into the final
// message. A publish failure is logged and never ends the stream.
func consume(seq iter.Seq2[*ai.ChatResponse, error], f formatter, pub Publisher, streamID string) (*ai.AssistantMessage, error) {
	collector := ai.NewMessageCollector()

	f.start(streamID)
	var streamErr error
	for resp, err := range seq {
		if err != nil {
			streamErr = err
			f.err(err)
			break
		}
		collector.Add(resp)
		f.snapshot(resp)
		if pub != nil {
			if perr := pub.Publish(streamID, resp); perr != nil {
				log.Warn("publishing snapshot of %s: %v", streamID, perr)
			}
		}
	}

	msg := collector.Message()
	f.end(msg)
	if pub != nil && streamErr == nil {
		if perr := pub.PublishDone(streamID, msg); perr != nil {
			log.Warn("publishing completion of %s: %v", streamID, perr)
		}
	}
	return msg, streamErr
}

// StreamIDForPath derives a subject-safe stream id from a transcript path.
func StreamIDForPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	id := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '-'
		}
		return r
	}, base)
	if id == "" || id == "-" {
		return uuid.NewString()
	}
	return id
}
