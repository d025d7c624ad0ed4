package dataset

import (
	"encoding/binary"
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// hasherFor returns a hash function for K. Strings and integers use xxhash;
// any other comparable type falls back to maphash with the engine seed,
// which hashes by the same structural equality as ==.
func hasherFor[K comparable](seed maphash.Seed) func(K) uint64 {
	var zero K
	switch any(zero).(type) {
	case string:
		return func(k K) uint64 { return xxhash.Sum64String(any(k).(string)) }
	case int:
		return func(k K) uint64 { return hashUint64(uint64(any(k).(int))) }
	case int64:
		return func(k K) uint64 { return hashUint64(uint64(any(k).(int64))) }
	case int32:
		return func(k K) uint64 { return hashUint64(uint64(any(k).(int32))) }
	case uint64:
		return func(k K) uint64 { return hashUint64(any(k).(uint64)) }
	case uint32:
		return func(k K) uint64 { return hashUint64(uint64(any(k).(uint32))) }
	default:
		return func(k K) uint64 { return maphash.Comparable(seed, k) }
	}
}

func hashUint64(v uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return xxhash.Sum64(buf[:])
}

// bucketOf maps a hash onto one of n buckets.
func bucketOf(h uint64, n int) int {
	return int(h % uint64(n)) //nolint:gosec // n is positive
}
