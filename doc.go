/*
Package tiptoe is a small mediator server for cross-application navigation.

Peers (browser extensions, editor plugins, window managers) connect over a
line-oriented text protocol, announce a tag, and report every navigation
"step" they take. The server keeps one bounded history of steps shared by all
peers, and any peer may send a control command that walks that history. The
server then tells the peer owning the chosen step, by tag, to go there.

# Protocol

Every message is one line of whitespace-separated tokens.

	hello <tag>             announce the peer's tag (first line)
	stepped <from> <to>     report a navigation; the first one seeds both refs
	hop | juggle | reach    control commands, accepted at any time
	clear                   forget all history
	goto <ref>              sent by the server to the peer owning <ref>

# Navigation

The server starts Idle and begins tracking on the first step. "juggle" takes
the two most recent steps into a ring and goes back to the older one; every
further juggle rotates the ring. "reach" extends the ring one step further
back. When no control command arrives within the decay window (700ms by
default) the ring is folded back into history, current position last.
"hop" is a one-shot juggle that never enters the ring.

# Usage

A Server is driven by a single loop. The runner package provides one that
accepts TCP connections; embedding hosts can drive it directly:

	srv := tiptoe.New(tiptoe.WithLogger(logger))
	srv.Connect("browser", link)

	for {
		if !srv.Pump(time.Now()) {
			time.Sleep(50 * time.Millisecond)
		}
	}
*/
package tiptoe
