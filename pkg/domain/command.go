package domain

import "github.com/aretw0/tiptoe/pkg/registry"

// CommandKind names a Command for logs, events and metrics.
type CommandKind string

const (
	KindConnect  CommandKind = "connect"
	KindRegister CommandKind = "register"
	KindStepped  CommandKind = "stepped"
	KindHop      CommandKind = "hop"
	KindJuggle   CommandKind = "juggle"
	KindReach    CommandKind = "reach"
	KindClear    CommandKind = "clear"
)

// Command is the closed set of inputs accepted by the navigation engine.
// Only types declared in this package implement it.
type Command interface {
	Kind() CommandKind
	sealed()
}

// Connect installs a freshly accepted link as a new session.
type Connect struct {
	Name string
	Link PeerLink
}

// Register perches the session behind Handle under Tag.
type Register struct {
	Tag    string
	Handle registry.Handle
}

// Stepped reports that a peer arrived at Step.
type Stepped struct {
	Step Step
}

// Hop goes back to the previous step without entering cycling.
type Hop struct{}

// Juggle toggles through the two most recent steps.
type Juggle struct{}

// Reach extends the juggling ring one step further back into history.
type Reach struct{}

// Clear forgets all history.
type Clear struct{}

func (Connect) Kind() CommandKind  { return KindConnect }
func (Register) Kind() CommandKind { return KindRegister }
func (Stepped) Kind() CommandKind  { return KindStepped }
func (Hop) Kind() CommandKind      { return KindHop }
func (Juggle) Kind() CommandKind   { return KindJuggle }
func (Reach) Kind() CommandKind    { return KindReach }
func (Clear) Kind() CommandKind    { return KindClear }

func (Connect) sealed()  {}
func (Register) sealed() {}
func (Stepped) sealed()  {}
func (Hop) sealed()      {}
func (Juggle) sealed()   {}
func (Reach) sealed()    {}
func (Clear) sealed()    {}

// ControlCommand maps a control keyword to its command.
func ControlCommand(keyword string) (Command, bool) {
	switch keyword {
	case KeywordHop:
		return Hop{}, true
	case KeywordJuggle:
		return Juggle{}, true
	case KeywordReach:
		return Reach{}, true
	case KeywordClear:
		return Clear{}, true
	}
	return nil, false
}

// Describe renders a command for event logs.
func Describe(cmd Command) string {
	switch c := cmd.(type) {
	case Connect:
		return "connect " + c.Name
	case Register:
		return "register " + c.Tag
	case Stepped:
		return "stepped " + c.Step.String()
	default:
		return string(cmd.Kind())
	}
}
