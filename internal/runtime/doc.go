// Package runtime wires the storage engine, the event store and config into
// a single-node seguro instance. It exposes Open/Close, a basic health
// check, and a keyspace compaction hook for use after mass clears.
//
// Example:
//
//	cfg := config.Default()
//	cfg.DataDir = "./data"
//	rt, _ := runtime.Open(runtime.Options{Fsync: pebblestore.FsyncModeInterval, Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	fe, _ := event.Fragment(&event.Event{ID: id, Data: payload})
//	_ = rt.Store().WriteEvent(context.Background(), &fe)
package runtime
