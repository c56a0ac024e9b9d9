// Package tcp adapts TCP connections to the engine's non-blocking link and
// acceptor ports. Blocking socket calls run on goroutines that feed buffered
// channels; the engine side only ever polls those channels.
package tcp
