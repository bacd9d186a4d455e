// ABOUTME: Publishes assembled ChatResponse snapshots to NATS subjects, one subject per stream
// ABOUTME: Snapshots go to <prefix>.<stream>; the final message goes to <prefix>.<stream>.done

package fanout

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/mauromedda/chatstream/internal/log"
	"github.com/mauromedda/chatstream/pkg/ai"
)

const flushTimeout = 5 * time.Second

// ErrInvalidStreamID is returned for IDs that would break the subject hierarchy.
var ErrInvalidStreamID = errors.New("fanout: invalid stream id")

// Publisher sends snapshots of many streams over one NATS connection.
// It is safe for concurrent use.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	owned  bool
}

// Connect dials url and returns a Publisher that owns the connection.
func Connect(url, prefix string, opts ...nats.Option) (*Publisher, error) {
	opts = append([]nats.Option{nats.Name("chatstream")}, opts...)
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	p := NewPublisher(nc, prefix)
	p.owned = true
	return p, nil
}

// NewPublisher wraps an existing connection. Close does not close it.
func NewPublisher(nc *nats.Conn, prefix string) *Publisher {
	return &Publisher{nc: nc, prefix: strings.TrimSuffix(prefix, ".")}
}

// SnapshotSubject returns the subject carrying the snapshots of streamID.
func (p *Publisher) SnapshotSubject(streamID string) string {
	return p.prefix + "." + streamID
}

// DoneSubject returns the subject carrying the final message of streamID.
func (p *Publisher) DoneSubject(streamID string) string {
	return p.prefix + "." + streamID + ".done"
}

// Publish sends one snapshot as JSON.
func (p *Publisher) Publish(streamID string, resp *ai.ChatResponse) error {
	if err := validStreamID(streamID); err != nil {
		return err
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := p.nc.Publish(p.SnapshotSubject(streamID), data); err != nil {
		return fmt.Errorf("publishing snapshot of %s: %w", streamID, err)
	}
	return nil
}

// PublishDone sends the final message and flushes the connection so every
// snapshot of the stream has reached the server.
func (p *Publisher) PublishDone(streamID string, msg *ai.AssistantMessage) error {
	if err := validStreamID(streamID); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding final message: %w", err)
	}
	if err := p.nc.Publish(p.DoneSubject(streamID), data); err != nil {
		return fmt.Errorf("publishing final message of %s: %w", streamID, err)
	}
	if err := p.nc.FlushTimeout(flushTimeout); err != nil {
		return fmt.Errorf("flushing NATS connection: %w", err)
	}
	log.Debug("fanout: published final message of %s", streamID)
	return nil
}

// Close drains the connection if this Publisher opened it.
func (p *Publisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.nc.Drain()
}

func validStreamID(id string) error {
	if id == "" || strings.ContainsAny(id, ".*> \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidStreamID, id)
	}
	return nil
}
