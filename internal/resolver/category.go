package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/amishk599/boardsync/internal/cache"
	"github.com/amishk599/boardsync/internal/niceboard"
)

// FuzzyThreshold is the minimum similarity a fuzzy category match needs.
const FuzzyThreshold = 0.6

// CategoryAPI is the slice of the board client the category resolver needs.
type CategoryAPI interface {
	ListCategories(ctx context.Context) ([]niceboard.Entity, error)
	CreateCategory(ctx context.Context, name string) (niceboard.Entity, error)
}

// CategoryResolver maps category labels onto the board's categories, using
// exact then fuzzy matching.
type CategoryResolver struct {
	api       CategoryAPI
	listing   listing
	cache     *cache.Cache
	defaultID int
	logger    *slog.Logger
}

// NewCategoryResolver creates a category resolver falling back to defaultID.
func NewCategoryResolver(api CategoryAPI, defaultID int, logger *slog.Logger) *CategoryResolver {
	return &CategoryResolver{
		api:       api,
		listing:   listing{fetch: api.ListCategories},
		cache:     cache.New(),
		defaultID: defaultID,
		logger:    logger,
	}
}

// Resolve returns the ID of the category best matching label. Unknown
// labels and board errors yield the default ("Other") category.
func (r *CategoryResolver) Resolve(ctx context.Context, label string) int {
	key := cache.Key(label)
	if key == "" {
		return r.defaultID
	}
	if id, ok := r.cache.Get(key); ok {
		return id
	}

	categories, err := r.listing.get(ctx)
	if err != nil {
		r.logger.Error("category listing failed, using default",
			"category", label,
			"default_id", r.defaultID,
			"error", err,
		)
		return r.defaultID
	}

	match, ok := bestCategory(categories, label)
	if !ok {
		r.logger.Info("no category match, using default",
			"category", label,
			"default_id", r.defaultID,
		)
		return r.defaultID
	}
	r.logger.Debug("category matched", "category", label, "matched", match.Name, "id", match.ID)
	r.cache.Set(key, match.ID)
	return match.ID
}

// Names returns the board's category names in listing order.
func (r *CategoryResolver) Names(ctx context.Context) ([]string, error) {
	categories, err := r.listing.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names, nil
}

// Seed creates each name not already present on the board and returns the
// number created. It stops at the first creation error.
func (r *CategoryResolver) Seed(ctx context.Context, names []string) (int, error) {
	existing, err := r.listing.get(ctx)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}

	created := 0
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[cache.Key(c.Name)] = true
	}
	for _, name := range names {
		key := cache.Key(name)
		if key == "" || seen[key] {
			continue
		}
		cat, err := r.api.CreateCategory(ctx, strings.TrimSpace(name))
		if err != nil {
			return created, fmt.Errorf("create category %q: %w", name, err)
		}
		seen[key] = true
		r.listing.add(cat)
		created++
		r.logger.Info("category created", "category", cat.Name, "id", cat.ID)
	}
	return created, nil
}

var categorySeparators = regexp.MustCompile(`(?i)\s*(?:,|&|/|\band\b)\s*`)

// categoryCandidates returns label followed by its sub-categories, e.g.
// "Nursing & Allied Health" → ["Nursing & Allied Health", "Nursing", "Allied Health"].
func categoryCandidates(label string) []string {
	label = strings.TrimSpace(label)
	candidates := []string{label}
	for _, part := range categorySeparators.Split(label, -1) {
		if part = strings.TrimSpace(part); part != "" && !strings.EqualFold(part, label) {
			candidates = append(candidates, part)
		}
	}
	return candidates
}

// bestCategory tries every candidate for an exact match, then picks the
// highest fuzzy score at or above FuzzyThreshold. Ties keep the earlier
// candidate, then the earlier listing entry.
func bestCategory(categories []niceboard.Entity, label string) (niceboard.Entity, bool) {
	candidates := categoryCandidates(label)
	for _, c := range candidates {
		if cat, ok := findExact(categories, c); ok {
			return cat, true
		}
	}

	var (
		best      niceboard.Entity
		bestScore float64
		found     bool
	)
	for _, c := range candidates {
		for _, cat := range categories {
			score := Similarity(c, cat.Name)
			if score >= FuzzyThreshold && score > bestScore {
				best, bestScore, found = cat, score, true
			}
		}
	}
	return best, found
}

// Similarity scores two strings in [0, 1] as one minus the normalized
// Levenshtein distance of their lower-cased forms. 1 means identical.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
