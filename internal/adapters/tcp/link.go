package tcp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/aretw0/tiptoe/pkg/domain"
)

const (
	// DefaultInboxSize is the number of lines buffered ahead of the engine.
	DefaultInboxSize = 64
	// DefaultOutboxSize is the number of outbound lines queued ahead of the
	// writer. WriteLine fails with domain.ErrLinkBusy once it is full.
	DefaultOutboxSize = 16
	// DefaultWriteTimeout bounds a single outbound line.
	DefaultWriteTimeout = time.Second
	// DefaultMaxScanSize is the longest line the reader accepts before it
	// gives up on the connection. Shorter oversized lines are rejected later
	// by the session.
	DefaultMaxScanSize = 64 * 1024
)

// Link implements domain.PeerLink over a net.Conn.
// A reader goroutine splits the stream into lines and queues them, and a
// writer goroutine drains queued outbound lines, so neither Read nor
// WriteLine blocks the polling loop.
type Link struct {
	conn         net.Conn
	inbox        chan domain.ReadResult
	outbox       chan string
	done         chan struct{}
	writeTimeout time.Duration
	maxScanSize  int
	inboxSize    int
	outboxSize   int

	mu    sync.Mutex
	final *domain.ReadResult

	// writeErr is set once by the writer; later writes report it.
	writeMu  sync.Mutex
	writeErr error

	closeOnce sync.Once
	closeErr  error
}

// LinkOption configures a Link.
type LinkOption func(*Link)

// WithWriteTimeout sets the deadline for each WriteLine.
func WithWriteTimeout(d time.Duration) LinkOption {
	return func(l *Link) {
		l.writeTimeout = d
	}
}

// WithMaxScanSize sets the longest accepted inbound line.
func WithMaxScanSize(n int) LinkOption {
	return func(l *Link) {
		l.maxScanSize = n
	}
}

// WithInboxSize sets how many lines may be queued ahead of Read.
func WithInboxSize(n int) LinkOption {
	return func(l *Link) {
		l.inboxSize = n
	}
}

// WithOutboxSize sets how many outbound lines may wait for the writer.
func WithOutboxSize(n int) LinkOption {
	return func(l *Link) {
		l.outboxSize = n
	}
}

// NewLink wraps conn and starts reading from and writing to it.
func NewLink(conn net.Conn, opts ...LinkOption) *Link {
	l := &Link{
		conn:         conn,
		done:         make(chan struct{}),
		writeTimeout: DefaultWriteTimeout,
		maxScanSize:  DefaultMaxScanSize,
		inboxSize:    DefaultInboxSize,
		outboxSize:   DefaultOutboxSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.outboxSize < 1 {
		l.outboxSize = 1
	}
	l.inbox = make(chan domain.ReadResult, l.inboxSize)
	l.outbox = make(chan string, l.outboxSize)
	go l.pump()
	go l.drain()
	return l
}

func (l *Link) pump() {
	defer close(l.inbox)

	scanner := bufio.NewScanner(l.conn)
	scanner.Buffer(make([]byte, 0, 4096), l.maxScanSize)

	for scanner.Scan() {
		if !l.deliver(domain.ReadResult{Status: domain.ReadLine, Line: scanner.Text()}) {
			return
		}
	}

	err := scanner.Err()
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		err = nil
	}
	l.deliver(domain.ReadResult{Status: domain.ReadClosed, Err: err})
}

func (l *Link) deliver(res domain.ReadResult) bool {
	select {
	case l.inbox <- res:
		return true
	case <-l.done:
		return false
	}
}

// Read returns the next queued line without blocking.
func (l *Link) Read() domain.ReadResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.final != nil {
		return *l.final
	}

	select {
	case res, ok := <-l.inbox:
		if !ok {
			res = domain.ReadResult{Status: domain.ReadClosed}
		}
		if res.Status == domain.ReadClosed {
			l.final = &res
		}
		return res
	default:
		return domain.ReadResult{Status: domain.ReadPending}
	}
}

// WriteLine queues line for the writer and returns at once. It fails with
// domain.ErrLinkBusy when the outbox is full, and with the writer's error
// once a write has failed.
func (l *Link) WriteLine(line string) error {
	select {
	case <-l.done:
		return domain.ErrLinkClosed
	default:
	}
	if err := l.failed(); err != nil {
		return err
	}

	select {
	case l.outbox <- line:
		return nil
	default:
		return domain.ErrLinkBusy
	}
}

// drain writes queued lines until the link closes or a write fails. A failed
// write may have sent part of a line, so nothing is written after it.
func (l *Link) drain() {
	for {
		select {
		case <-l.done:
			return
		case line := <-l.outbox:
			if err := l.write(line); err != nil {
				l.writeMu.Lock()
				l.writeErr = err
				l.writeMu.Unlock()
				return
			}
		}
	}
}

func (l *Link) write(line string) error {
	if l.writeTimeout > 0 {
		if err := l.conn.SetWriteDeadline(time.Now().Add(l.writeTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	if _, err := io.WriteString(l.conn, line+"\n"); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return domain.ErrLinkClosed
		}
		return err
	}
	return nil
}

func (l *Link) failed() error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.writeErr
}

// Close closes the connection. Reads report closed from then on.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
		l.closeErr = l.conn.Close()

		l.mu.Lock()
		if l.final == nil {
			l.final = &domain.ReadResult{Status: domain.ReadClosed}
		}
		l.mu.Unlock()
	})
	return l.closeErr
}

// RemoteAddr returns the peer's address.
func (l *Link) RemoteAddr() net.Addr {
	return l.conn.RemoteAddr()
}
