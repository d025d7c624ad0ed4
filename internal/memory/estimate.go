// Package memory estimates the in-memory footprint of records so that
// driver-side actions can stay within their configured bounds.
package memory

import (
	"reflect"
	"unsafe"
)

const (
	sliceHeaderFieldCount  = 3 // ptr, len, cap
	stringHeaderFieldCount = 2 // ptr, len
	mapOverheadBytes       = 48
	maxEstimateDepth       = 16
)

var wordSize = int64(unsafe.Sizeof(uintptr(0)))

// EstimateMemoryUsage returns an approximate byte size for the given values.
// Strings, slices, maps and pointers are followed so that a record's
// payload is counted, not just its header.
func EstimateMemoryUsage(resources ...any) int64 {
	var total int64

	for _, resource := range resources {
		if resource == nil {
			continue
		}

		total += estimateValue(reflect.ValueOf(resource), 0)
	}

	return total
}

func estimateValue(rv reflect.Value, depth int) int64 {
	if !rv.IsValid() {
		return 0
	}
	if depth > maxEstimateDepth {
		return int64(rv.Type().Size())
	}

	switch rv.Kind() {
	case reflect.String:
		return stringHeaderFieldCount*wordSize + int64(rv.Len())
	case reflect.Slice:
		return estimateSliceMemory(rv, depth)
	case reflect.Array:
		var total int64
		for i := range rv.Len() {
			total += estimateValue(rv.Index(i), depth+1)
		}
		return total
	case reflect.Map:
		return estimateMapMemory(rv, depth)
	case reflect.Ptr:
		if rv.IsNil() {
			return wordSize
		}
		return wordSize + estimateValue(rv.Elem(), depth+1)
	case reflect.Interface:
		if rv.IsNil() {
			return 2 * wordSize
		}
		return 2*wordSize + estimateValue(rv.Elem(), depth+1)
	case reflect.Struct:
		var total int64
		for i := range rv.NumField() {
			total += estimateValue(rv.Field(i), depth+1)
		}
		// Padding and zero-size structs.
		return max(total, int64(rv.Type().Size()))
	default:
		return int64(rv.Type().Size())
	}
}

// estimateSliceMemory estimates memory usage for slices
func estimateSliceMemory(rv reflect.Value, depth int) int64 {
	header := sliceHeaderFieldCount * wordSize
	if rv.IsNil() {
		return header
	}

	elem := rv.Type().Elem()
	if isFlat(elem) {
		return header + int64(rv.Cap())*int64(elem.Size())
	}

	total := header + int64(rv.Cap()-rv.Len())*int64(elem.Size())
	for i := range rv.Len() {
		total += estimateValue(rv.Index(i), depth+1)
	}
	return total
}

// estimateMapMemory estimates memory usage for maps
func estimateMapMemory(rv reflect.Value, depth int) int64 {
	if rv.IsNil() {
		return wordSize
	}

	total := int64(mapOverheadBytes)
	iter := rv.MapRange()
	for iter.Next() {
		total += estimateValue(iter.Key(), depth+1) + estimateValue(iter.Value(), depth+1)
	}
	return total
}

// isFlat reports whether values of t hold no references, so their size is fixed.
func isFlat(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return isFlat(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !isFlat(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
