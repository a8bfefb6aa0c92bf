// SPDX-License-Identifier: Apache-2.0

// Package ids allocates opaque identifiers for code entries and audit entries.
package ids

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Allocator hands out identifiers that are unique for the allocator's lifetime.
type Allocator interface {
	Next(prefix string) string
}

// Counter is a deterministic Allocator producing "<prefix>-<n>" with n starting at 1.
// It is safe for concurrent use.
type Counter struct {
	n atomic.Uint64
}

// NewCounter creates a Counter.
func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Next(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, c.n.Add(1))
}

// TimeOrdered produces "<prefix>-<uuidv7>". UUIDv7 values sort by creation time,
// and the counter suffix keeps ids distinct if the random source fails.
type TimeOrdered struct {
	fallback Counter
}

// NewTimeOrdered creates a TimeOrdered allocator.
func NewTimeOrdered() *TimeOrdered {
	return &TimeOrdered{}
}

func (t *TimeOrdered) Next(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		return t.fallback.Next(prefix)
	}
	return prefix + "-" + id.String()
}
