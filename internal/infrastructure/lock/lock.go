// Package lock provides keyed exclusive locks used to serialize ledger and
// availability work per owner account and per cottage.
package lock

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// Unlock releases every key taken by a Lock call. Calling it twice is safe.
type Unlock func()

// Locker acquires all keys or none. Keys are taken in sorted order so two
// callers asking for overlapping key sets cannot deadlock each other.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (Unlock, error)
}

func OwnerKey(id uuid.UUID) string {
	return "owner:" + id.String()
}

func CottageKey(id uuid.UUID) string {
	return "cottage:" + id.String()
}

func normalize(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
