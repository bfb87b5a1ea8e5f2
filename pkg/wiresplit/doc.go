// Package wiresplit provides an embeddable agent that reassembles
// length-prefixed messages from byte streams.
//
// Streams come from sources: a capture file (optionally compressed or
// followed as it grows), a TCP listener or a websocket listener. Each
// stream gets its own splitter; reassembled messages are batched and handed
// to a sink.
//
// # Basic Usage
//
//	cfg := wiresplit.DefaultConfig()
//	cfg.Listen = ":7000"
//
//	w, err := wiresplit.New(cfg, wiresplit.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := w.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Sources and Sinks
//
// Config describes the built-in sources and sinks. [WithSource] adds a
// custom [Source] and [WithSink] replaces the sink. A stream whose header
// announces a frame larger than Config.Capacity is closed with an error
// matching [splitter.ErrCapacityExceeded]; other streams are unaffected.
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler] for defaults) and
// pass it via [WithEventHandler] to observe state changes and streams.
//
// # Lifecycle States
//
// An instance is in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping] or [StateCrashed]. When every source is
// exhausted the instance stops by itself; [Wiresplit.Wait] returns then.
package wiresplit
