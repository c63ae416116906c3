package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amishk599/boardsync/internal/cache"
	"github.com/amishk599/boardsync/internal/niceboard"
)

// LocationAPI is the slice of the board client the location resolver needs.
type LocationAPI interface {
	ListLocations(ctx context.Context, name string) ([]niceboard.Entity, error)
	CreateLocation(ctx context.Context, name string) (niceboard.Entity, error)
}

// LocationResolver finds or creates board locations from city/state/country.
type LocationResolver struct {
	api    LocationAPI
	cache  *cache.Cache
	logger *slog.Logger
}

// NewLocationResolver creates a location resolver. It has no fallback.
func NewLocationResolver(api LocationAPI, logger *slog.Logger) *LocationResolver {
	return &LocationResolver{api: api, cache: cache.New(), logger: logger}
}

// Resolve returns the board ID of the "city, state, country" location,
// creating it when missing. ok is false when all three parts are empty.
// Lookup and creation errors are returned as is; there is no fallback.
func (r *LocationResolver) Resolve(ctx context.Context, city, state, country string) (id int, ok bool, err error) {
	label := locationLabel(city, state, country)
	if label == "" {
		return 0, false, nil
	}
	key := cache.Key(label)
	if id, hit := r.cache.Get(key); hit {
		return id, true, nil
	}

	locations, err := r.api.ListLocations(ctx, label)
	if err != nil {
		return 0, false, fmt.Errorf("resolve location %q: %w", label, err)
	}
	if loc, found := findExact(locations, label); found {
		r.cache.Set(key, loc.ID)
		return loc.ID, true, nil
	}

	created, err := r.api.CreateLocation(ctx, label)
	if err != nil {
		return 0, false, fmt.Errorf("resolve location %q: %w", label, err)
	}
	r.logger.Info("location created", "location", label, "id", created.ID)
	r.cache.Set(key, created.ID)
	return created.ID, true, nil
}

func locationLabel(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
