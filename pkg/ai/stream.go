// ABOUTME: Channel-based delivery of ChatResponse snapshots from a streaming call
// ABOUTME: ResponseStream offers Responses() ranging, an All() iterator, Err() and Result()

package ai

import (
	"iter"
	"sync"
	"sync/atomic"
)

// ResponseStream delivers the snapshots produced by one streaming call.
// Consumers range over Responses() and check Err() and Result() when done.
//
// Send writes to an internal channel that is never closed. Finish closes only
// the done channel; a drainer goroutine forwards buffered snapshots to the
// consumer-facing channel and closes it once done fires and the buffer is empty.
type ResponseStream struct {
	in     chan *ChatResponse
	out    chan *ChatResponse
	done   chan struct{}
	err    atomic.Pointer[error]
	result atomic.Pointer[AssistantMessage]
	once   sync.Once
}

// NewResponseStream creates a ResponseStream with the given buffer size.
func NewResponseStream(bufSize int) *ResponseStream {
	s := &ResponseStream{
		in:   make(chan *ChatResponse, bufSize),
		out:  make(chan *ChatResponse, bufSize),
		done: make(chan struct{}),
	}
	go s.drain()
	return s
}

func (s *ResponseStream) drain() {
	defer close(s.out)
	for {
		select {
		case r := <-s.in:
			s.out <- r
		case <-s.done:
			for {
				select {
				case r := <-s.in:
					s.out <- r
				default:
					return
				}
			}
		}
	}
}

// Responses returns a read-only channel of snapshots, closed when the stream ends.
func (s *ResponseStream) Responses() <-chan *ChatResponse {
	return s.out
}

// All returns an iterator over the snapshots. The final pair carries the
// stream error, if any.
func (s *ResponseStream) All() iter.Seq2[*ChatResponse, error] {
	return func(yield func(*ChatResponse, error) bool) {
		for r := range s.out {
			if !yield(r, nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Send publishes a snapshot. Returns false if the stream is finished.
func (s *ResponseStream) Send(r *ChatResponse) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.in <- r:
		return true
	case <-s.done:
		return false
	}
}

// Finish completes the stream with the aggregated message (may be nil).
func (s *ResponseStream) Finish(msg *AssistantMessage) {
	s.once.Do(func() {
		if msg != nil {
			s.result.Store(msg)
		}
		close(s.done)
	})
}

// FinishWithError completes the stream with a terminal error.
func (s *ResponseStream) FinishWithError(err error) {
	s.once.Do(func() {
		if err != nil {
			s.err.Store(&err)
		}
		close(s.done)
	})
}

// Err blocks until the stream is complete and returns its terminal error.
func (s *ResponseStream) Err() error {
	<-s.done
	if p := s.err.Load(); p != nil {
		return *p
	}
	return nil
}

// Result blocks until the stream is complete and returns the aggregated
// message, or nil when the stream failed.
func (s *ResponseStream) Result() *AssistantMessage {
	<-s.done
	return s.result.Load()
}

// Done returns a channel that is closed when the stream completes.
func (s *ResponseStream) Done() <-chan struct{} {
	return s.done
}
