package middleware

import "github.com/aretw0/tiptoe/pkg/ports"

// Middleware wraps a Recorder to add behavior.
type Middleware func(ports.Recorder) ports.Recorder

// Chain applies mws to next so that the first middleware sees each event
// first.
func Chain(next ports.Recorder, mws ...Middleware) ports.Recorder {
	for i := len(mws) - 1; i >= 0; i-- {
		next = mws[i](next)
	}
	return next
}
