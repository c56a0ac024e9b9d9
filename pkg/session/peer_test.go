package session_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/tiptoe/pkg/adapters/memory"
	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/aretw0/tiptoe/pkg/registry"
	"github.com/aretw0/tiptoe/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const self = registry.Handle(7)

type queue struct {
	cmds []domain.Command
}

func (q *queue) enqueue(cmd domain.Command) {
	q.cmds = append(q.cmds, cmd)
}

func step(tag, ref string) domain.Command {
	return domain.Stepped{Step: domain.Step{Tag: tag, Ref: ref}}
}

// drive feeds lines through Pump until the link has nothing more to read.
func drive(t *testing.T, p *session.Peer, link *memory.Link, phase session.Phase, lines ...string) (session.Phase, []domain.Command) {
	t.Helper()
	link.Say(lines...)
	q := &queue{}
	for range lines {
		var worked bool
		phase, worked = p.Pump(phase, self, q.enqueue)
		require.True(t, worked)
	}
	return phase, q.cmds
}

func TestPeer_HelloThenStepped(t *testing.T) {
	link := memory.NewLink()
	p := session.New("127.0.0.1:5000", link)

	phase, cmds := drive(t, p, link, session.PhaseStart, "hello moo")
	assert.Equal(t, session.PhaseFirst, phase)
	assert.Equal(t, []domain.Command{domain.Register{Tag: "moo", Handle: self}}, cmds)
	assert.Equal(t, "moo", p.Tag())

	phase, cmds = drive(t, p, link, phase, "stepped a b")
	assert.Equal(t, session.PhaseActive, phase)
	assert.Equal(t, []domain.Command{step("moo", "a"), step("moo", "b")}, cmds)

	phase, cmds = drive(t, p, link, phase, "  stepped b\tc  ")
	assert.Equal(t, session.PhaseActive, phase)
	assert.Equal(t, []domain.Command{step("moo", "c")}, cmds, "only the destination once active")
}

func TestPeer_ControlCommandsInAnyPhase(t *testing.T) {
	phases := []session.Phase{session.PhaseStart, session.PhaseFirst, session.PhaseActive}
	controls := map[string]domain.Command{
		"hop":    domain.Hop{},
		"juggle": domain.Juggle{},
		"reach":  domain.Reach{},
		"clear":  domain.Clear{},
	}

	for _, phase := range phases {
		for line, want := range controls {
			t.Run(phase.String()+"/"+line, func(t *testing.T) {
				link := memory.NewLink()
				p := session.New("peer", link)

				next, cmds := drive(t, p, link, phase, line)
				assert.Equal(t, phase, next, "control commands keep the phase")
				assert.Equal(t, []domain.Command{want}, cmds)
			})
		}
	}
}

func TestPeer_UnparsableLines(t *testing.T) {
	cases := []struct {
		name  string
		phase session.Phase
		line  string
	}{
		{"garbage", session.PhaseStart, "zzz"},
		{"empty", session.PhaseStart, "   "},
		{"stepped before hello", session.PhaseStart, "stepped a b"},
		{"hello twice", session.PhaseFirst, "hello again"},
		{"hello missing tag", session.PhaseStart, "hello"},
		{"stepped wrong arity", session.PhaseActive, "stepped a"},
		{"control with args", session.PhaseActive, "juggle now"},
		{"case sensitive", session.PhaseStart, "HELLO moo"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			link := memory.NewLink()
			p := session.New("peer", link)

			next, cmds := drive(t, p, link, tc.phase, tc.line)
			assert.Equal(t, tc.phase, next)
			assert.Empty(t, cmds)
			assert.False(t, link.Closed(), "parse failures never close the link")
		})
	}
}

func TestPeer_GarbageThenHello(t *testing.T) {
	link := memory.NewLink()
	p := session.New("peer", link)

	phase, cmds := drive(t, p, link, session.PhaseStart, "zzz", "hello moo")
	assert.Equal(t, session.PhaseFirst, phase)
	assert.Equal(t, []domain.Command{domain.Register{Tag: "moo", Handle: self}}, cmds)
}

func TestPeer_PumpPendingAndClosed(t *testing.T) {
	link := memory.NewLink()
	p := session.New("peer", link)
	q := &queue{}

	phase, worked := p.Pump(session.PhaseStart, self, q.enqueue)
	assert.Equal(t, session.PhaseStart, phase)
	assert.False(t, worked, "nothing to read is not work")

	link.Hangup()
	phase, worked = p.Pump(phase, self, q.enqueue)
	assert.Equal(t, session.PhaseClosed, phase)
	assert.True(t, worked)

	link.Say("hello late")
	phase, worked = p.Pump(phase, self, q.enqueue)
	assert.Equal(t, session.PhaseClosed, phase)
	assert.False(t, worked, "closed sessions are not polled")
	assert.Empty(t, q.cmds)
}

func TestPeer_ReadErrorCloses(t *testing.T) {
	link := memory.NewLink()
	p := session.New("peer", link)
	link.Fail(errors.New("connection reset by peer"))

	phase, worked := p.Pump(session.PhaseActive, self, func(domain.Command) {})
	assert.Equal(t, session.PhaseClosed, phase)
	assert.True(t, worked)
}

func TestPeer_Goto(t *testing.T) {
	link := memory.NewLink()
	p := session.New("peer", link)

	require.NoError(t, p.Goto("b"))
	assert.Equal(t, []string{"goto b"}, link.Received())

	boom := errors.New("broken pipe")
	link.FailWrites(boom)
	err := p.Goto("c")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"goto b"}, link.Received(), "failed writes are not retried")
}

func TestPeer_Info(t *testing.T) {
	link := memory.NewLink()
	p := session.New("10.0.0.1:1234", link, session.WithID("fixed"))
	drive(t, p, link, session.PhaseStart, "hello moo")

	info := p.Info(session.PhaseFirst)
	assert.Equal(t, domain.PeerInfo{ID: "fixed", Name: "10.0.0.1:1234", Tag: "moo", Phase: "first"}, info)
}

func TestSanitizeLine(t *testing.T) {
	clean, err := session.SanitizeLine("hello \x1b[31mmoo\x00")
	require.NoError(t, err)
	assert.Equal(t, "hello [31mmoo", clean)

	_, err = session.SanitizeLine("hello \xff")
	assert.ErrorIs(t, err, domain.ErrInvalidUTF8)

	t.Setenv(session.EnvMaxLineSize, "16")
	_, err = session.SanitizeLine("stepped " + strings.Repeat("x", 32) + " y")
	assert.ErrorIs(t, err, domain.ErrLineTooLarge)
}

func TestSanitizeLine_OversizedIsUnparsable(t *testing.T) {
	t.Setenv(session.EnvMaxLineSize, "8")
	link := memory.NewLink()
	p := session.New("peer", link)

	phase, cmds := drive(t, p, link, session.PhaseStart, "hello a-very-long-tag")
	assert.Equal(t, session.PhaseStart, phase)
	assert.Empty(t, cmds)
}
