// Package chunk splits oversized dependency sets into bounded groups.
//
// Boundaries are computed over the sorted key order, never over map
// iteration order, so the same logical input always yields the same chunks.
package chunk

import (
	"fmt"
	"sort"
)

// Chunk partitions deps into consecutive groups of at most size entries.
// Every entry lands in exactly one chunk. An empty input yields no chunks.
func Chunk(deps map[string]string, size int) ([]map[string]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}

	keys := make([]string, 0, len(deps))
	for k := range deps {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	chunks := make([]map[string]string, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		c := make(map[string]string, end-start)
		for _, k := range keys[start:end] {
			c[k] = deps[k]
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// Count returns how many chunks Chunk would produce for n entries.
func Count(n, size int) int {
	if size <= 0 || n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
