/*
Package observability turns engine lifecycle events into metrics and logs.

Both helpers return domain.LifecycleHooks, so they compose with each other
and with user hooks through LifecycleHooks.Merge:

	metrics, err := observability.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	hooks := metrics.Hooks().Merge(observability.LogHooks(logger))
	srv := tiptoe.New(tiptoe.WithLifecycleHooks(hooks))
*/
package observability
