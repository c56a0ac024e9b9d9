// Package middleware provides decorators for event recorders.
//
// They sit between the engine and a durable sink (Redis, the log viewer)
// and change what gets persisted without touching navigation:
//
//	redact, err := middleware.NewRedactMiddleware([]string{`token=[^&\s]+`})
//	rec := middleware.Chain(redisRecorder, redact, middleware.OnlyKinds(domain.KindJuggle))
package middleware
