// Package batch splits ordered collections into bounded groups for fan-out.
package batch

import "fmt"

// Partition splits items into ceil(len(items)/size) groups of at most size
// elements, preserving order. An empty input yields nil. Each group aliases
// the input's backing array.
func Partition[T any](items []T, size int) [][]T {
	if size <= 0 {
		panic(fmt.Sprintf("batch: size must be positive, got %d", size))
	}
	if len(items) == 0 {
		return nil
	}

	out := make([][]T, 0, Count(len(items), size))
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end:end])
	}
	return out
}

// Count returns the number of groups Partition produces for n items.
func Count(n, size int) int {
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
