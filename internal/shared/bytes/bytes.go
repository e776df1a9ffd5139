package bytes

import (
	"fmt"
	"github.com/zeebo/xxh3"
)

// ETag returns a strong HTTP entity tag for data.
func ETag(data []byte) string {
	return fmt.Sprintf("\"%016x\"", xxh3.Hash(data))
}

// ShortID returns a 12 hex digit fingerprint of s, stable across runs.
func ShortID(s string) string {
	return fmt.Sprintf("%012x", xxh3.HashString(s)>>16)
}

func FmtMem(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		t := bytes / TB
		rem := bytes % TB
		return fmt.Sprintf("%dTB %dGB", t, rem/GB)
	case bytes >= GB:
		g := bytes / GB
		rem := bytes % GB
		return fmt.Sprintf("%dGB %dMB", g, rem/MB)
	case bytes >= MB:
		m := bytes / MB
		rem := bytes % MB
		return fmt.Sprintf("%dMB %dKB", m, rem/KB)
	case bytes >= KB:
		k := bytes / KB
		return fmt.Sprintf("%dKB %dB", k, bytes%KB)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}
