package settings

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"
)

// snapshot is an immutable view of the settings table. Readers never see a
// partially refreshed set.
type snapshot struct {
	updatedAt time.Time
	values    map[string]json.RawMessage
}

var current atomic.Pointer[snapshot]

func init() {
	current.Store(&snapshot{values: map[string]json.RawMessage{}})
}

// Replace swaps the cached settings for values. Keys are trimmed; blank keys are dropped.
func Replace(updatedAt time.Time, values map[string]json.RawMessage) {
	next := &snapshot{updatedAt: updatedAt.UTC(), values: make(map[string]json.RawMessage, len(values))}
	for k, v := range values {
		if key := strings.TrimSpace(k); key != "" {
			next.values[key] = bytes.Clone(v)
		}
	}
	current.Store(next)
}

// UpdatedAt is the newest updated_at among the cached rows.
func UpdatedAt() time.Time {
	return current.Load().updatedAt
}

// Raw returns a copy of the stored JSON for key and whether a row exists.
func Raw(key string) (json.RawMessage, bool) {
	v, ok := current.Load().values[strings.TrimSpace(key)]
	if !ok {
		return nil, false
	}
	return bytes.Clone(v), true
}
