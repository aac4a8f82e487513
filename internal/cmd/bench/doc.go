// Package benchrun exposes a shared Run entrypoint used by the CLI to open
// the seguro runtime and execute benchmark runs, handling logging setup,
// report rendering and keyspace compaction between runs.
//
// Example:
//
//	opts := benchrun.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	    Config:  config.Default(),
//	    Run:     bench.Config{Events: 10000, EventSize: 10000, BatchSize: 10},
//	}
//	_ = benchrun.Run(context.Background(), opts)
package benchrun
