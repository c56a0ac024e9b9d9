/*
Package domain contains the core domain models of the tiptoe mediator.

It defines the navigation vocabulary shared by every other package: Steps
reported by peers, the closed set of Commands the engine accepts, and the
navigation State the engine evolves. This package is kept free of I/O and
persistence; the only behavior it carries is pure value manipulation.

# Key Entities

  - Step: a (tag, reference) navigation point reported by a peer.
  - Command: the closed union of inputs to the navigation engine.
  - State: Idle, AtRest(history) or Cycling(startedAt, ring, remainder).
  - PeerLink: the line-oriented connection a session reads from and writes to.
  - LifecycleHooks: callbacks for observing processed commands and dispatches.
*/
package domain
