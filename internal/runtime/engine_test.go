package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/tiptoe/internal/runtime"
	"github.com/aretw0/tiptoe/pkg/adapters/memory"
	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// harness drives an engine the way the runner does, one Pump per line.
type harness struct {
	t      *testing.T
	engine *runtime.Engine
	state  domain.State
	now    time.Time
}

func newHarness(t *testing.T, opts ...runtime.EngineOption) *harness {
	t.Helper()
	opts = append([]runtime.EngineOption{runtime.WithClockStart(epoch)}, opts...)
	return &harness{
		t:      t,
		engine: runtime.NewEngine(opts...),
		state:  domain.Idle(),
		now:    epoch,
	}
}

func (h *harness) pump() bool {
	var worked bool
	h.state, worked = h.engine.Pump(h.state, h.now)
	return worked
}

// connect installs a session and sends its hello.
func (h *harness) connect(name, tag string) *memory.Link {
	h.t.Helper()
	link := memory.NewLink()
	h.engine.Enqueue(domain.Connect{Name: name, Link: link})
	require.True(h.t, h.pump())
	if tag != "" {
		h.say(link, "hello "+tag)
	}
	return link
}

func (h *harness) say(link *memory.Link, lines ...string) {
	h.t.Helper()
	for _, line := range lines {
		link.Say(line)
		require.True(h.t, h.pump(), "line %q should produce work", line)
	}
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

func s(tag, ref string) domain.Step {
	return domain.Step{Tag: tag, Ref: ref}
}

func TestEngine_HelloThenSteppedSeedsTwoSteps(t *testing.T) {
	h := newHarness(t)
	p1 := h.connect("p1", "moo")

	h.say(p1, "stepped a b")
	h.pump()

	assert.Equal(t, domain.ModeAtRest, h.state.Mode)
	assert.Equal(t, []domain.Step{s("moo", "a"), s("moo", "b")}, h.state.Steps())
	assert.Empty(t, p1.Received())
}

// startJuggling leaves the engine cycling over p1's two latest steps.
func startJuggling(t *testing.T, h *harness) (p1, p2 *memory.Link) {
	p1 = h.connect("p1", "p1")
	p2 = h.connect("p2", "p2")

	h.say(p1, "stepped a b")
	h.pump()
	h.say(p1, "stepped b c")
	h.say(p2, "juggle")
	return p1, p2
}

func TestEngine_JuggleEntersCyclingAndGoesBack(t *testing.T) {
	h := newHarness(t)
	p1, p2 := startJuggling(t, h)

	require.Equal(t, domain.ModeCycling, h.state.Mode)
	assert.Equal(t, []domain.Step{s("p1", "c"), s("p1", "b")}, h.state.Ring)
	assert.Equal(t, []domain.Step{s("p1", "a")}, h.state.Steps())
	assert.Equal(t, []string{"goto b"}, p1.Received())
	assert.Empty(t, p2.Received())

	current, ok := h.state.Current()
	require.True(t, ok)
	assert.Equal(t, s("p1", "b"), current)
}

func TestEngine_RepeatedJuggleAlternates(t *testing.T) {
	h := newHarness(t)
	p1, p2 := startJuggling(t, h)

	h.advance(300 * time.Millisecond)
	h.say(p2, "juggle")
	h.advance(300 * time.Millisecond)
	h.say(p2, "juggle")

	assert.Equal(t, []string{"goto b", "goto c", "goto b"}, p1.Received())
	require.Equal(t, domain.ModeCycling, h.state.Mode)
	assert.Equal(t, []domain.Step{s("p1", "c"), s("p1", "b")}, h.state.Ring)
	assert.Equal(t, []domain.Step{s("p1", "a")}, h.state.Steps())
	assert.Equal(t, h.now, h.state.StartedAt, "each juggle resets the decay timer")
}

func TestEngine_GarbageKeepsSessionOpen(t *testing.T) {
	h := newHarness(t)
	link := h.connect("p1", "")

	link.Say("zzz")
	h.pump()
	assert.False(t, link.Closed())
	assert.Equal(t, domain.ModeIdle, h.state.Mode)

	h.say(link, "hello moo", "stepped a b")
	h.pump()
	assert.Equal(t, []domain.Step{s("moo", "a"), s("moo", "b")}, h.state.Steps())

	_, found := h.engine.Roost().Find("moo")
	assert.True(t, found)
}

func TestEngine_ClosedSessionIsPruned(t *testing.T) {
	h := newHarness(t, runtime.WithPruneInterval(time.Second))
	link := h.connect("p1", "moo")

	link.Hangup()
	h.pump()
	assert.True(t, link.Closed(), "engine closes the link of a finished session")

	peers := h.engine.Peers()
	require.Len(t, peers, 1)
	assert.Equal(t, "closed", peers[0].Phase)

	_, found := h.engine.Roost().Find("moo")
	assert.True(t, found, "still perched until pruning runs")

	h.advance(2 * time.Second)
	assert.True(t, h.pump())

	_, found = h.engine.Roost().Find("moo")
	assert.False(t, found)
	assert.Empty(t, h.engine.Peers())
}

func TestEngine_SteppedAppendsInArrivalOrder(t *testing.T) {
	h := newHarness(t)
	p1 := h.connect("p1", "x")
	p2 := h.connect("p2", "y")

	h.say(p1, "stepped 1 2")
	h.pump()
	h.say(p2, "stepped 9 8")
	h.pump()
	h.say(p1, "stepped 2 3")
	h.say(p2, "stepped 8 8")

	assert.Equal(t, []domain.Step{
		s("x", "1"), s("x", "2"),
		s("y", "9"), s("y", "8"),
		s("x", "3"),
		s("y", "8"),
	}, h.state.Steps(), "equal steps are kept as distinct entries")
}

func TestEngine_SteppedEndsCycling(t *testing.T) {
	h := newHarness(t)
	p1, _ := startJuggling(t, h)

	h.say(p1, "stepped b d")

	assert.Equal(t, domain.ModeAtRest, h.state.Mode)
	assert.Equal(t, []domain.Step{
		s("p1", "a"), s("p1", "c"), s("p1", "b"), s("p1", "d"),
	}, h.state.Steps())
}

func TestEngine_Decay(t *testing.T) {
	var decays []time.Duration
	hooks := domain.LifecycleHooks{
		OnDecay: func(_ context.Context, e *domain.DecayEvent) {
			decays = append(decays, e.Idle)
		},
	}
	h := newHarness(t, runtime.WithDecay(700*time.Millisecond), runtime.WithLifecycleHooks(hooks))
	startJuggling(t, h)

	h.advance(700 * time.Millisecond)
	h.pump()
	assert.Equal(t, domain.ModeCycling, h.state.Mode, "threshold itself is not exceeded")

	h.advance(time.Millisecond)
	assert.True(t, h.pump())
	assert.Equal(t, domain.ModeAtRest, h.state.Mode)
	assert.Equal(t, []domain.Step{s("p1", "a"), s("p1", "c"), s("p1", "b")}, h.state.Steps())
	assert.Equal(t, []time.Duration{701 * time.Millisecond}, decays)
}

func TestEngine_JuggleNeedsTwoSteps(t *testing.T) {
	h := newHarness(t)
	p1 := h.connect("p1", "p1")

	h.say(p1, "juggle")
	assert.Equal(t, domain.ModeIdle, h.state.Mode)

	h.engine.Enqueue(domain.Stepped{Step: s("p1", "only")})
	h.pump()
	h.say(p1, "juggle")
	assert.Equal(t, domain.ModeAtRest, h.state.Mode)
	assert.Empty(t, p1.Received())
}

func TestEngine_Reach(t *testing.T) {
	h := newHarness(t)
	p1 := h.connect("p1", "p1")
	h.say(p1, "stepped a b")
	h.pump()
	h.say(p1, "stepped b c", "stepped c d")

	// Enters cycling like juggle.
	h.say(p1, "reach")
	assert.Equal(t, []domain.Step{s("p1", "d"), s("p1", "c")}, h.state.Ring)

	// Extends one step further back each time.
	h.say(p1, "reach")
	assert.Equal(t, []domain.Step{s("p1", "d"), s("p1", "c"), s("p1", "b")}, h.state.Ring)
	h.say(p1, "reach")
	assert.Equal(t, []domain.Step{s("p1", "d"), s("p1", "c"), s("p1", "b"), s("p1", "a")}, h.state.Ring)
	assert.Empty(t, h.state.Steps())

	// With nothing left, reach rotates.
	h.say(p1, "reach")
	assert.Equal(t, []domain.Step{s("p1", "c"), s("p1", "b"), s("p1", "a"), s("p1", "d")}, h.state.Ring)

	assert.Equal(t, []string{"goto c", "goto b", "goto a", "goto d"}, p1.Received())
}

func TestEngine_ReachWhileIdleIsNoop(t *testing.T) {
	h := newHarness(t)
	p1 := h.connect("p1", "p1")

	h.say(p1, "reach")
	assert.Equal(t, domain.ModeIdle, h.state.Mode)
}

func TestEngine_Hop(t *testing.T) {
	h := newHarness(t)
	p1 := h.connect("p1", "p1")
	h.say(p1, "stepped a b")
	h.pump()

	h.say(p1, "hop")
	assert.Equal(t, domain.ModeAtRest, h.state.Mode)
	assert.Equal(t, []domain.Step{s("p1", "b"), s("p1", "a")}, h.state.Steps())

	h.say(p1, "hop")
	assert.Equal(t, []domain.Step{s("p1", "a"), s("p1", "b")}, h.state.Steps())
	assert.Equal(t, []string{"goto a", "goto b"}, p1.Received())
}

func TestEngine_HopWhileCycling(t *testing.T) {
	h := newHarness(t)
	p1, p2 := startJuggling(t, h)

	h.say(p2, "hop")

	assert.Equal(t, domain.ModeAtRest, h.state.Mode)
	assert.Equal(t, []domain.Step{s("p1", "a"), s("p1", "b"), s("p1", "c")}, h.state.Steps())
	assert.Equal(t, []string{"goto b", "goto c"}, p1.Received())
}

func TestEngine_Clear(t *testing.T) {
	h := newHarness(t)
	_, p2 := startJuggling(t, h)

	h.say(p2, "clear")
	assert.Equal(t, domain.ModeIdle, h.state.Mode)
	assert.Empty(t, h.state.Steps())
	assert.Empty(t, h.state.Ring)

	h.say(p2, "juggle")
	assert.Equal(t, domain.ModeIdle, h.state.Mode)

	p3 := h.connect("p3", "p3")
	h.say(p3, "stepped x y")
	h.pump()
	assert.Equal(t, []domain.Step{s("p3", "x"), s("p3", "y")}, h.state.Steps(), "nothing from before clear survives")
}

func TestEngine_HandleToleratesMissingHistory(t *testing.T) {
	e := runtime.NewEngine()

	for _, cmd := range []domain.Command{domain.Hop{}, domain.Juggle{}, domain.Reach{}} {
		next := e.Handle(domain.AtRest(nil), cmd, epoch)
		assert.Equal(t, "AtRest(0)", next.String(), "%s", cmd.Kind())
	}

	next := e.Handle(domain.AtRest(nil), domain.Stepped{Step: s("p", "a")}, epoch)
	assert.Equal(t, []domain.Step{s("p", "a")}, next.Steps())
}

func TestEngine_TagLastWriteWins(t *testing.T) {
	h := newHarness(t)
	first := h.connect("first", "shared")
	second := h.connect("second", "shared")

	h.say(second, "stepped a b")
	h.pump()
	h.say(second, "juggle")

	assert.Empty(t, first.Received(), "first session is no longer reachable")
	assert.Equal(t, []string{"goto a"}, second.Received())
	assert.False(t, first.Closed(), "replaced session stays connected")
}

func TestEngine_DispatchToMissingTagIsDropped(t *testing.T) {
	var dispatched []*domain.DispatchEvent
	hooks := domain.LifecycleHooks{
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			dispatched = append(dispatched, e)
		},
	}
	h := newHarness(t, runtime.WithLifecycleHooks(hooks))
	ctl := h.connect("ctl", "ctl")

	h.engine.Enqueue(domain.Stepped{Step: s("ghost", "a")})
	h.engine.Enqueue(domain.Stepped{Step: s("ghost", "b")})
	h.pump()
	h.say(ctl, "juggle")

	assert.Equal(t, domain.ModeCycling, h.state.Mode)
	require.Len(t, dispatched, 1)
	assert.True(t, dispatched[0].Dropped)
	assert.Equal(t, s("ghost", "a"), dispatched[0].Step)
	assert.Empty(t, ctl.Received())
}

func TestEngine_WriteFailureDoesNotStopEngine(t *testing.T) {
	var errs []error
	hooks := domain.LifecycleHooks{
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			errs = append(errs, e.Err)
		},
	}
	h := newHarness(t, runtime.WithLifecycleHooks(hooks))
	p1 := h.connect("p1", "p1")
	h.say(p1, "stepped a b")
	h.pump()

	boom := errors.New("broken pipe")
	p1.FailWrites(boom)
	h.say(p1, "juggle")
	h.say(p1, "juggle")

	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], boom)
	assert.Equal(t, domain.ModeCycling, h.state.Mode)
}

func TestEngine_HistoryIsBounded(t *testing.T) {
	h := newHarness(t, runtime.WithCapacity(8))
	for i := 0; i < 100; i++ {
		h.engine.Enqueue(domain.Stepped{Step: s("t", string(rune('a'+i%26)))})
		h.pump()
		assert.LessOrEqual(t, len(h.state.Steps()), 8)
	}
}

func TestEngine_RecorderAndCommandHooks(t *testing.T) {
	rec := memory.NewRecorder()
	var seen []domain.CommandKind
	hooks := domain.LifecycleHooks{
		OnCommand: func(_ context.Context, e *domain.CommandEvent) {
			seen = append(seen, e.Kind)
		},
	}
	h := newHarness(t, runtime.WithRecorder(rec), runtime.WithLifecycleHooks(hooks))
	p1 := h.connect("p1", "p1")
	h.say(p1, "stepped a b")
	h.pump()
	h.say(p1, "juggle")

	want := []domain.CommandKind{
		domain.KindConnect, domain.KindRegister,
		domain.KindStepped, domain.KindStepped,
		domain.KindJuggle,
	}
	assert.Equal(t, want, rec.Kinds())
	assert.Equal(t, want, seen)

	events := rec.Events()
	last := events[len(events)-1]
	assert.Equal(t, "AtRest(2)", last.Before)
	assert.Equal(t, "Cycling(2/0)", last.After)
	assert.Equal(t, "stepped p1:a", events[2].Detail)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, event *domain.CommandEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestEngine_RecorderFailureIsIgnored(t *testing.T) {
	rec := new(mockRecorder)
	rec.On("Record", mock.Anything, mock.Anything).Return(errors.New("sink down"))

	h := newHarness(t, runtime.WithRecorder(rec))
	p1 := h.connect("p1", "p1")
	h.say(p1, "stepped a b")
	h.pump()

	assert.Equal(t, []domain.Step{s("p1", "a"), s("p1", "b")}, h.state.Steps())
	rec.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(e *domain.CommandEvent) bool {
		return e.Kind == domain.KindStepped && e.After == "AtRest(2)"
	}))
}

func TestEngine_IdlePumpDoesNoWork(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.pump())

	h.connect("p1", "p1")
	assert.False(t, h.pump())
	assert.Equal(t, 0, h.engine.Pending())
}

func TestEngine_RegisterUnknownHandle(t *testing.T) {
	h := newHarness(t)
	h.engine.Enqueue(domain.Register{Tag: "nobody", Handle: 42})
	assert.True(t, h.pump())

	_, found := h.engine.Roost().Find("nobody")
	assert.False(t, found)
}

func TestEngine_Snapshot(t *testing.T) {
	h := newHarness(t)
	startJuggling(t, h)

	snap := h.engine.Snapshot(h.state, h.now)
	assert.Equal(t, domain.ModeCycling, snap.Mode)
	require.NotNil(t, snap.StartedAt)
	assert.Equal(t, []domain.Step{s("p1", "c"), s("p1", "b")}, snap.Ring)
	assert.Equal(t, []domain.Step{s("p1", "a")}, snap.History)
	require.Len(t, snap.Peers, 2)
	assert.Equal(t, "p1", snap.Peers[0].Tag)
	assert.Equal(t, "first", snap.Peers[1].Phase)
}
