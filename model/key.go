package model

import (
	"slices"
	"strings"
)

// AggregateKey derives the cache key of a bucket summary from the bucket name and its member ids.
// The key is independent of member order: ids are sorted before joining.
func AggregateKey(bucket Category, ids []string) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	var b strings.Builder
	b.WriteString(string(bucket))
	for _, id := range sorted {
		b.WriteByte('_')
		b.WriteString(id)
	}
	return b.String()
}
