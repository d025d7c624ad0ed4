package dataset

// Partition is an ordered, finite run of records. A partition is immutable
// once produced; neither the engine nor user functions may modify Records.
type Partition[T any] struct {
	ID      int
	Records []T
}

// Len returns the number of records in the partition.
func (p Partition[T]) Len() int {
	return len(p.Records)
}

// Pair is a two-field tuple record used for keyed data and join output.
type Pair[A, B any] struct {
	First  A
	Second B
}

// NewPair creates a Pair.
func NewPair[A, B any](first A, second B) Pair[A, B] {
	return Pair[A, B]{First: first, Second: second}
}

// Split divides records into n contiguous partitions whose sizes differ by
// at most one. Record order is preserved across the partitions.
func Split[T any](records []T, n int) []Partition[T] {
	if n <= 0 {
		n = 1
	}
	parts := make([]Partition[T], n)
	size, rem := len(records)/n, len(records)%n
	start := 0
	for i := range parts {
		end := start + size
		if i < rem {
			end++
		}
		parts[i] = Partition[T]{ID: i, Records: records[start:end:end]}
		start = end
	}
	return parts
}
