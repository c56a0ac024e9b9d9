package ports

import (
	"errors"

	"github.com/aretw0/tiptoe/pkg/domain"
)

// ErrAcceptorClosed is returned by Accept once the acceptor was closed.
var ErrAcceptorClosed = errors.New("acceptor closed")

// Acceptor supplies ready-to-use links for inbound connections.
type Acceptor interface {
	// Accept returns a pending connection without blocking.
	// ok is false when no connection is waiting. After Close it returns
	// ErrAcceptorClosed.
	Accept() (name string, link domain.PeerLink, ok bool, err error)

	// Close stops accepting connections.
	Close() error
}
