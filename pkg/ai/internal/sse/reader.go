// ABOUTME: Server-Sent Events framing over an io.Reader with pooled line buffers
// ABOUTME: Handles event/data/id/retry fields, comments, multi-line data and the [DONE] sentinel

package sse

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DoneSentinel is the data payload some vendors send to mark the end of a stream.
const DoneSentinel = "[DONE]"

const (
	initialBufSize = 64 * 1024
	maxLineSize    = 1024 * 1024 // 1MB max line size
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("sse: reader closed")

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, initialBufSize)
		return &b
	},
}

// Event represents a single Server-Sent Event.
type Event struct {
	Type  string
	Data  string
	ID    string
	Retry time.Duration
}

// IsDone reports whether the event carries the end-of-stream sentinel.
func (e *Event) IsDone() bool {
	return strings.TrimSpace(e.Data) == DoneSentinel
}

// Reader parses Server-Sent Events from an io.Reader. It is not safe for
// concurrent use.
type Reader struct {
	scanner *bufio.Scanner
	buf     *[]byte
	lastID  string
	closed  bool
}

// NewReader creates a new SSE reader from the given io.Reader.
// Call Close to return the line buffer to the pool.
func NewReader(r io.Reader) *Reader {
	buf := bufPool.Get().(*[]byte)
	s := bufio.NewScanner(r)
	s.Buffer((*buf)[:0], maxLineSize)
	return &Reader{scanner: s, buf: buf}
}

// Close releases the reader's buffer. Safe to call more than once.
func (r *Reader) Close() {
	if r.closed {
		return
	}
	r.closed = true
	bufPool.Put(r.buf)
	r.buf = nil
}

// Next reads and returns the next SSE event.
// Returns nil, io.EOF when the stream ends.
func (r *Reader) Next() (*Event, error) {
	if r.closed {
		return nil, ErrClosed
	}

	var f frame
	for r.scanner.Scan() {
		line := r.scanner.Text()

		if line == "" {
			if f.dispatchable() {
				return f.event(r.lastID), nil
			}
			f = frame{}
			continue
		}
		if line[0] == ':' {
			continue
		}

		field, value := parseLine(line)
		if field == "id" && !strings.ContainsRune(value, 0) {
			r.lastID = value
		}
		f.apply(field, value)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if f.dispatchable() {
		return f.event(r.lastID), nil
	}
	return nil, io.EOF
}

// frame collects the fields of one event until a blank line dispatches it.
type frame struct {
	typ     string
	data    []string
	retry   time.Duration
	touched bool
}

func (f *frame) apply(field, value string) {
	switch field {
	case "event":
		f.typ = value
	case "data":
		f.data = append(f.data, value)
	case "id":
	case "retry":
		ms, err := strconv.Atoi(value)
		if err != nil || ms < 0 {
			return
		}
		f.retry = time.Duration(ms) * time.Millisecond
	default:
		return
	}
	f.touched = true
}

func (f *frame) dispatchable() bool {
	return f.touched
}

func (f *frame) event(id string) *Event {
	return &Event{
		Type:  f.typ,
		Data:  strings.Join(f.data, "\n"),
		ID:    id,
		Retry: f.retry,
	}
}

// parseLine splits an SSE line into field name and value.
func parseLine(line string) (string, string) {
	field, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}
