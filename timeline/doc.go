// Package timeline provides the core abstractions of a denormalized, write-fan-out timeline store
// for a microblogging workload.
//
// Barks (short posts) are stored twice: once in the sender's own feed and once per follower in
// that follower's timeline, both partitioned by owner and by a fixed-width time slice. Reads scan
// slices backward from the current one until enough entries are collected.
//
// This package defines the storage-agnostic pieces shared by the engine implementations:
//   - Bark: a post as written and read back
//   - Slice: the pure time bucketing function and its constants
//   - Registry: read/write latency histograms and success/error meters
//   - Future and Track: asynchronous storage calls with latency and outcome bookkeeping
//   - Logger, ContextualLogger, MetricsCollector, TracingCollector: optional observability hooks
//
// Common usage pattern:
//
//	registry := timeline.NewRegistry()
//	defer registry.Stop()
//
//	store, err := postgresengine.NewStoreFromPGXPools(pools, postgresengine.WithRegistry(registry))
//	if err != nil {
//		// handle error
//	}
//
//	if err = store.Prepare(ctx); err != nil {
//		// fatal: nothing can run without the statement set
//	}
//
//	_ = store.Follow(ctx, "bot_0000001", "bot_0000002")
//	bark, err := store.Post(ctx, "bot_0000002", "hello world")
//	entries, err := store.ReadTimeline(ctx, "bot_0000001", 250)
package timeline
