package logsink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/tiptoe/pkg/domain"
)

const (
	// DefaultDialTimeout bounds the connection attempt to a remote sink.
	DefaultDialTimeout = 500 * time.Millisecond
	// DefaultWriteTimeout bounds a single write to a remote sink.
	DefaultWriteTimeout = 200 * time.Millisecond
	// DefaultQueueSize is the number of records buffered for a remote sink.
	DefaultQueueSize = 256
)

// ErrQueueFull is returned when a record is dropped because the sink
// writer has fallen behind.
var ErrQueueFull = errors.New("log sink queue full")

// ErrClosed is returned when recording after Close.
var ErrClosed = errors.New("log sink closed")

// Recorder implements ports.Recorder by writing one text record per command
// to a writer, usually a TCP connection to a log viewer.
//
// Records for a dialled sink go through a bounded queue and a writer
// goroutine, so Record never waits on the viewer. When a write to the sink
// fails or times out, the connection is dropped and the remaining records go
// to the fallback writer.
type Recorder struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	format slog.Handler
	out    io.Writer
	target string

	// Set only for dialled sinks.
	conn         net.Conn
	fallback     io.Writer
	queue        chan []byte
	done         chan struct{}
	stopped      chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	dropped      atomic.Uint64
}

// Option configures a dialled Recorder.
type Option func(*Recorder)

// WithWriteTimeout bounds each write to the sink.
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		r.writeTimeout = d
	}
}

// WithQueueSize sets how many records may wait for the sink.
func WithQueueSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.queue = make(chan []byte, n)
		}
	}
}

// New creates a recorder writing synchronously to w.
func New(w io.Writer) *Recorder {
	r := &Recorder{out: w, target: "writer"}
	r.format = newHandler(&r.buf)
	return r
}

// Dial connects to a log sink at addr. When the sink cannot be reached the
// recorder writes to fallback instead, and the dial error is returned
// alongside the working recorder.
func Dial(ctx context.Context, addr string, fallback io.Writer, opts ...Option) (*Recorder, error) {
	if fallback == nil {
		fallback = io.Discard
	}
	dialer := net.Dialer{Timeout: DefaultDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		r := New(fallback)
		r.target = "fallback"
		return r, fmt.Errorf("dial log sink %s: %w", addr, err)
	}

	r := &Recorder{
		out:          conn,
		target:       addr,
		conn:         conn,
		fallback:     fallback,
		queue:        make(chan []byte, DefaultQueueSize),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
		writeTimeout: DefaultWriteTimeout,
	}
	r.format = newHandler(&r.buf)
	for _, opt := range opts {
		opt(r)
	}
	go r.drain()
	return r, nil
}

func newHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// Target describes where records go: the sink address, "fallback" or
// "writer".
func (r *Recorder) Target() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

// Dropped returns how many records were discarded because the queue was full.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Record writes the event as a single line.
func (r *Recorder) Record(ctx context.Context, event *domain.CommandEvent) error {
	rec := slog.NewRecord(event.Timestamp, slog.LevelInfo, string(event.Type), 0)
	rec.AddAttrs(
		slog.String("state", event.Before),
		slog.String("cmd", event.Detail),
		slog.String("next", event.After),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf.Reset()
	if err := r.format.Handle(ctx, rec); err != nil {
		return fmt.Errorf("format record: %w", err)
	}

	if r.queue == nil {
		if _, err := r.out.Write(r.buf.Bytes()); err != nil {
			return fmt.Errorf("write to %s: %w", r.target, err)
		}
		return nil
	}

	line := bytes.Clone(r.buf.Bytes())
	select {
	case <-r.done:
		return ErrClosed
	default:
	}
	select {
	case r.queue <- line:
		return nil
	default:
		r.dropped.Add(1)
		return fmt.Errorf("%s: %w", r.target, ErrQueueFull)
	}
}

// drain writes queued records until Close, then flushes what is left.
func (r *Recorder) drain() {
	defer close(r.stopped)
	for {
		select {
		case line := <-r.queue:
			r.write(line)
		case <-r.done:
			for {
				select {
				case line := <-r.queue:
					r.write(line)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(line []byte) {
	r.mu.Lock()
	out, onSink := r.out, r.out == io.Writer(r.conn)
	r.mu.Unlock()

	if !onSink {
		_, _ = out.Write(line)
		return
	}

	if r.writeTimeout > 0 {
		_ = r.conn.SetWriteDeadline(time.Now().Add(r.writeTimeout))
	}
	if _, err := r.conn.Write(line); err != nil {
		r.mu.Lock()
		r.out = r.fallback
		r.target = "fallback"
		r.mu.Unlock()
		_ = r.conn.Close()
		fmt.Fprintf(r.fallback, "log sink unavailable, falling back: %v\n", err)
		_, _ = r.fallback.Write(line)
	}
}

// Close flushes queued records and closes the sink connection, if any.
func (r *Recorder) Close() error {
	if r.conn == nil {
		return nil
	}
	var err error
	r.closeOnce.Do(func() {
		close(r.done)
		<-r.stopped
		if cerr := r.conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	})
	return err
}
