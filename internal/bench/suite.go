package bench

import "github.com/wexpertsystems/seguro/internal/event"

// Shape is one corpus shape of the default suite.
type Shape struct {
	Events    int
	EventSize int
}

// SuiteShapes is the default corpus matrix: fragment counts 1, 10 and 100 at
// roughly constant total volume per shape.
var SuiteShapes = []Shape{
	{Events: 100000, EventSize: 1 * event.OptimalFragmentSize},
	{Events: 10000, EventSize: 10 * event.OptimalFragmentSize},
	{Events: 1000, EventSize: 100 * event.OptimalFragmentSize},
}

// SuiteBatchSizes are the store batch sizes each shape runs with. The upper
// end stays under typical engine per-transaction bounds at full fragment
// size.
var SuiteBatchSizes = []int{1, 10, 100, 500, 900}
