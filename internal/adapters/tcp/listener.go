package tcp

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/aretw0/tiptoe/internal/logging"
	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/aretw0/tiptoe/pkg/ports"
)

// acceptBackoff throttles a listener that keeps failing, e.g. on EMFILE.
const acceptBackoff = 50 * time.Millisecond

// Listener implements ports.Acceptor over a net.Listener.
// A background goroutine accepts connections; Accept only collects them.
type Listener struct {
	ln       net.Listener
	conns    chan net.Conn
	errs     chan error
	done     chan struct{}
	wg       sync.WaitGroup
	linkOpts []LinkOption
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Listener.
type Option func(*Listener)

// WithLinkOptions configures every Link created for accepted connections.
func WithLinkOptions(opts ...LinkOption) Option {
	return func(l *Listener) {
		l.linkOpts = append(l.linkOpts, opts...)
	}
}

// WithLogger configures a logger for the listener.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Listener) {
		l.logger = logger
	}
}

// Listen opens a TCP listener on addr.
func Listen(addr string, opts ...Option) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return NewListener(ln, opts...), nil
}

// NewListener starts accepting on ln.
func NewListener(ln net.Listener, opts ...Option) *Listener {
	l := &Listener{
		ln:     ln,
		conns:  make(chan net.Conn, DefaultInboxSize),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.wg.Add(1)
	go l.acceptLoop()
	return l
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	defer close(l.conns)

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case l.errs <- err:
			default:
				l.logger.Debug("dropping accept error", "err", err)
			}
			select {
			case <-time.After(acceptBackoff):
				continue
			case <-l.done:
				return
			}
		}

		select {
		case l.conns <- conn:
		case <-l.done:
			conn.Close()
			return
		}
	}
}

// Addr returns the listening address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Accept returns one pending connection, if any, without blocking.
func (l *Listener) Accept() (string, domain.PeerLink, bool, error) {
	select {
	case <-l.done:
		return "", nil, false, ports.ErrAcceptorClosed
	default:
	}

	select {
	case conn, ok := <-l.conns:
		if !ok {
			return "", nil, false, ports.ErrAcceptorClosed
		}
		return conn.RemoteAddr().String(), NewLink(conn, l.linkOpts...), true, nil
	case err := <-l.errs:
		return "", nil, false, err
	default:
		return "", nil, false, nil
	}
}

// Close stops accepting and drops connections nobody collected.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
		l.closeErr = l.ln.Close()
		l.wg.Wait()
		for conn := range l.conns {
			conn.Close()
		}
	})
	return l.closeErr
}
