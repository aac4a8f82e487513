package pebblestore

import (
	"bytes"
	"context"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/wexpertsystems/seguro/internal/storage"
)

// GetRange returns one page of pairs with keys in [start, end) and key >
// after, ascending. limit caps the page (0 uses the engine default). More is
// set only when a further key is known to exist in the range.
func (db *DB) GetRange(ctx context.Context, start, end, after []byte, limit int) (storage.RangeResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.RangeResult{}, err
	}
	if limit <= 0 {
		limit = db.pageSize
	}

	lower := start
	if after != nil && bytes.Compare(after, start) >= 0 {
		// Immediate successor of after: the smallest key strictly greater.
		lower = append(append(make([]byte, 0, len(after)+1), after...), 0x00)
	}

	it, err := db.inner.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: end})
	if err != nil {
		return storage.RangeResult{}, err
	}
	defer it.Close()

	began := time.Now()
	var res storage.RangeResult
	var bytesRead int
	for valid := it.First(); valid; valid = it.Next() {
		if len(res.Pairs) == limit {
			res.More = true
			break
		}
		key := append([]byte(nil), it.Key()...)
		val, err := it.ValueAndErr()
		if err != nil {
			return storage.RangeResult{}, err
		}
		val = append([]byte(nil), val...)
		res.Pairs = append(res.Pairs, storage.KeyValue{Key: key, Value: val})
		bytesRead += len(val)
	}
	if err := it.Error(); err != nil {
		return storage.RangeResult{}, err
	}
	db.metrics.ObserveRead(time.Since(began), bytesRead)
	return res, nil
}
