/*
Package ports defines the driven ports (interfaces) of the tiptoe mediator.

These interfaces decouple the navigation core from the outside world, allowing
the engine to run over TCP sockets, in-memory pipes in tests, or any other line
transport, and to report processed commands to interchangeable sinks.

# Key Interfaces

  - Acceptor: hands over newly accepted peer links without blocking.
  - Recorder: receives a record of every processed command.
  - SnapshotSource: exposes an immutable view of the engine for introspection.

The PeerLink interface itself lives in domain, because commands carry it.
*/
package ports
