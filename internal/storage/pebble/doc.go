// Package pebblestore implements the storage.Engine contract on Pebble with
// fsync policy, a single commit-loop goroutine, paginated range reads, and
// minimal metrics hooks.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	// Atomic multi-key updates
//	tx := db.BeginTx()
//	_ = tx.Set([]byte("k"), []byte("v"))
//	_ = tx.Commit(context.Background())
//
//	// Paginated range reads
//	res, _ := db.GetRange(context.Background(), start, end, nil, 0)
//	for res.More { /* resume with after = last key */ }
//
// Every commit, synchronous or asynchronous, runs on the engine's commit
// loop; CommitAsync callbacks execute there. Keys beginning with 0xFF are
// reserved for engine metadata such as the on-disk format stamp.
package pebblestore
