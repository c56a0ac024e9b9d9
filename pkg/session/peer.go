package session

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/tiptoe/internal/logging"
	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/aretw0/tiptoe/pkg/registry"
	"github.com/google/uuid"
)

// Peer is the session state of one connection: its identity, its tag once
// announced, and the link it talks through. The protocol phase is kept
// outside, in the registry cell, and passed into Pump on every poll.
type Peer struct {
	id     string
	name   string
	tag    string
	link   domain.PeerLink
	logger *slog.Logger
}

// Option configures a Peer.
type Option func(*Peer)

// WithLogger configures a logger for the Peer.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Peer) {
		p.logger = logger
	}
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(p *Peer) {
		p.id = id
	}
}

// New creates a session for link. name is descriptive, usually the remote
// address.
func New(name string, link domain.PeerLink, opts ...Option) *Peer {
	p := &Peer{
		id:     uuid.NewString(),
		name:   name,
		link:   link,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("peer", p.name, "session_id", p.id)
	return p
}

// ID returns the unique session ID.
func (p *Peer) ID() string { return p.id }

// Name returns the descriptive name given at creation.
func (p *Peer) Name() string { return p.name }

// Tag returns the tag announced with hello, or "" before that.
func (p *Peer) Tag() string { return p.tag }

// Pump polls the link once. A read line is parsed and may enqueue commands.
// It returns the next phase and whether any work happened.
func (p *Peer) Pump(phase Phase, self registry.Handle, enqueue func(domain.Command)) (Phase, bool) {
	if phase == PhaseClosed {
		return phase, false
	}

	res := p.link.Read()
	switch res.Status {
	case domain.ReadLine:
		return p.Handle(phase, self, res.Line, enqueue), true
	case domain.ReadClosed:
		if res.Err != nil {
			p.logger.Warn("link read failed, closing session", "err", res.Err)
		} else {
			p.logger.Debug("peer hung up")
		}
		return PhaseClosed, true
	default:
		return phase, false
	}
}

// Handle applies one raw line in the given phase. Lines that do not match
// the phase's transitions produce no command and leave the phase unchanged.
func (p *Peer) Handle(phase Phase, self registry.Handle, line string, enqueue func(domain.Command)) Phase {
	clean, err := SanitizeLine(line)
	if err != nil {
		p.logger.Info("rejected line", "err", err)
		return phase
	}

	tokens := strings.Fields(clean)
	if len(tokens) == 0 {
		return phase
	}
	keyword, args := tokens[0], tokens[1:]

	if t, ok := transitions[transitionKey{phase, keyword}]; ok && len(args) == t.arity {
		return t.apply(p, self, args, enqueue)
	}

	if len(args) == 0 {
		if cmd, ok := domain.ControlCommand(keyword); ok {
			enqueue(cmd)
			return phase
		}
	}

	p.logger.Info("unparsable line", "phase", phase.String(), "line", clean)
	return phase
}

// Goto instructs the peer to navigate to ref. Failures are logged and
// returned but never retried.
func (p *Peer) Goto(ref string) error {
	if err := p.link.WriteLine(domain.KeywordGoto + " " + ref); err != nil {
		p.logger.Warn("goto write failed", "ref", ref, "err", err)
		return fmt.Errorf("goto %s: %w", ref, err)
	}
	return nil
}

// Close closes the underlying link.
func (p *Peer) Close() error {
	return p.link.Close()
}

// Info describes the session for introspection.
func (p *Peer) Info(phase Phase) domain.PeerInfo {
	return domain.PeerInfo{
		ID:    p.id,
		Name:  p.name,
		Tag:   p.tag,
		Phase: phase.String(),
	}
}
