// Package resolver maps free-text company, location, job-type and category
// labels to board IDs.
//
// Every resolver checks its own cache first, then the board. Companies and
// locations are created when the board has no match. Job types and
// categories never are; they fall back to a configured ID instead. Only
// location errors reach the caller; the other three log and fall back.
// Fallback IDs are never cached, so a later job can still resolve the label.
package resolver

import (
	"context"
	"strings"
	"sync"

	"github.com/amishk599/boardsync/internal/niceboard"
)

// findExact returns the first entity whose name equals name, ignoring case
// and surrounding whitespace.
func findExact(items []niceboard.Entity, name string) (niceboard.Entity, bool) {
	name = strings.TrimSpace(name)
	for _, it := range items {
		if strings.EqualFold(strings.TrimSpace(it.Name), name) {
			return it, true
		}
	}
	return niceboard.Entity{}, false
}

// listing memoizes a full board listing for the lifetime of a resolver.
// A failed fetch is not remembered; the next call tries again.
type listing struct {
	mu     sync.Mutex
	items  []niceboard.Entity
	loaded bool
	fetch  func(ctx context.Context) ([]niceboard.Entity, error)
}

func (l *listing) get(ctx context.Context) ([]niceboard.Entity, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded {
		return l.items, nil
	}
	items, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}
	l.items = items
	l.loaded = true
	return items, nil
}

func (l *listing) add(e niceboard.Entity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded {
		l.items = append(l.items, e)
	}
}
