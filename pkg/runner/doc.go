/*
Package runner implements the serving loop around a tiptoe Server.

A Runner alternates between accepting at most one new connection and pumping
the server once. When an iteration does no work it sleeps for IdleDelay
(50ms by default), so an idle server costs almost nothing while a busy one
never waits. All engine work happens on the goroutine calling Run; after each
working iteration a Snapshot is published for other goroutines such as the
admin HTTP API.

# Usage

	srv := tiptoe.New(tiptoe.WithLogger(logger))
	r := runner.NewRunner(srv,
		runner.WithAcceptor(listener),
		runner.WithLogger(logger),
	)

	signals := runner.NewSignalManager(context.Background())
	defer signals.Stop()

	if err := r.Run(signals.Context()); err != nil {
		log.Fatal(err)
	}
*/
package runner
