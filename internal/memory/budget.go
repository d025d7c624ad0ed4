package memory

import (
	"github.com/paveg/tamarin/internal/errors"
)

// Budget tracks how many records and estimated bytes an action has
// accumulated on the driver. A zero limit disables that bound.
type Budget struct {
	op         string
	maxRecords int64
	maxBytes   int64

	records int64
	bytes   int64
}

// NewBudget creates a budget for op with the given limits.
func NewBudget(op string, maxRecords, maxBytes int64) *Budget {
	return &Budget{op: op, maxRecords: maxRecords, maxBytes: maxBytes}
}

// Add accounts for one more record. It returns a ResultTooLarge error once
// either limit is exceeded.
func (b *Budget) Add(record any) error {
	b.records++
	if b.maxRecords > 0 && b.records > b.maxRecords {
		return errors.NewResultTooLargeError(b.op, b.maxRecords, "records")
	}

	if b.maxBytes > 0 {
		b.bytes += EstimateMemoryUsage(record)
		if b.bytes > b.maxBytes {
			return errors.NewResultTooLargeError(b.op, b.maxBytes, "bytes")
		}
	}
	return nil
}

// Records returns the number of records accounted for.
func (b *Budget) Records() int64 { return b.records }

// Bytes returns the estimated bytes accounted for. It stays zero when no
// byte limit is set.
func (b *Budget) Bytes() int64 { return b.bytes }
