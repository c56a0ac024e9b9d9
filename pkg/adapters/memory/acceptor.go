package memory

import (
	"sync"

	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/aretw0/tiptoe/pkg/ports"
)

type pending struct {
	name string
	link domain.PeerLink
}

// Acceptor implements ports.Acceptor with an in-memory backlog.
type Acceptor struct {
	mu      sync.Mutex
	backlog []pending
	closed  bool
}

// NewAcceptor creates an empty acceptor.
func NewAcceptor() *Acceptor {
	return &Acceptor{}
}

// Dial queues a new connection named name and returns the peer side of it.
func (a *Acceptor) Dial(name string) *Link {
	link := NewLink()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.backlog = append(a.backlog, pending{name: name, link: link})
	return link
}

func (a *Acceptor) Accept() (string, domain.PeerLink, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return "", nil, false, ports.ErrAcceptorClosed
	}
	if len(a.backlog) == 0 {
		return "", nil, false, nil
	}
	next := a.backlog[0]
	a.backlog = a.backlog[1:]
	return next.name, next.link, true, nil
}

func (a *Acceptor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}
