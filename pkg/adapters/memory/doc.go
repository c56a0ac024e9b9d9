// Package memory provides in-memory implementations of the mediator's ports:
// a scriptable PeerLink, an Acceptor with a dial backlog, and a Recorder that
// keeps events. They back the test suites and hosts that embed the server
// without sockets.
package memory
