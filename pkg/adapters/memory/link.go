package memory

import (
	"sync"

	"github.com/aretw0/tiptoe/pkg/domain"
)

// Link implements domain.PeerLink over in-memory queues.
// The test (or embedding host) plays the remote peer through Say, Received
// and Hangup. Safe for concurrent use.
type Link struct {
	mu       sync.Mutex
	inbox    []string
	outbox   []string
	hungUp   bool
	readErr  error
	writeErr error
	closed   bool
}

// NewLink creates an open link with nothing to read.
func NewLink() *Link {
	return &Link{}
}

// Say queues lines as if the peer had sent them.
func (l *Link) Say(lines ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inbox = append(l.inbox, lines...)
}

// Received returns every line written to the peer so far.
func (l *Link) Received() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.outbox))
	copy(out, l.outbox)
	return out
}

// Hangup ends the stream from the peer side. Lines already queued are still
// delivered before the link reports closed.
func (l *Link) Hangup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hungUp = true
}

// Fail ends the stream with a read error.
func (l *Link) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hungUp = true
	l.readErr = err
}

// FailWrites makes every following WriteLine return err.
func (l *Link) FailWrites(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeErr = err
}

// Closed reports whether the server side closed the link.
func (l *Link) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Link) Read() domain.ReadResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.inbox) > 0 && !l.closed {
		line := l.inbox[0]
		l.inbox = l.inbox[1:]
		return domain.ReadResult{Status: domain.ReadLine, Line: line}
	}
	if l.hungUp || l.closed {
		return domain.ReadResult{Status: domain.ReadClosed, Err: l.readErr}
	}
	return domain.ReadResult{Status: domain.ReadPending}
}

func (l *Link) WriteLine(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.hungUp {
		return domain.ErrLinkClosed
	}
	if l.writeErr != nil {
		return l.writeErr
	}
	l.outbox = append(l.outbox, line)
	return nil
}

func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
