package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amishk599/boardsync/internal/cache"
	"github.com/amishk599/boardsync/internal/niceboard"
)

// CompanyAPI is the slice of the board client the company resolver needs.
type CompanyAPI interface {
	ListCompanies(ctx context.Context, name string) ([]niceboard.Entity, error)
	CreateCompany(ctx context.Context, name string) (niceboard.Entity, error)
	DeleteCompany(ctx context.Context, id int) error
}

// CompanyResolver finds or creates board companies.
type CompanyResolver struct {
	api       CompanyAPI
	cache     *cache.Cache
	defaultID int
	logger    *slog.Logger
}

// NewCompanyResolver creates a company resolver falling back to defaultID.
func NewCompanyResolver(api CompanyAPI, defaultID int, logger *slog.Logger) *CompanyResolver {
	return &CompanyResolver{
		api:       api,
		cache:     cache.New(),
		defaultID: defaultID,
		logger:    logger,
	}
}

// Resolve returns the board ID for name, creating the company if needed.
// It never fails: any error yields the default company ID.
func (r *CompanyResolver) Resolve(ctx context.Context, name string) int {
	key := cache.Key(name)
	if key == "" {
		return r.defaultID
	}
	if id, ok := r.cache.Get(key); ok {
		return id
	}

	id, err := r.lookupOrCreate(ctx, strings.TrimSpace(name))
	if err != nil {
		r.logger.Error("company resolution failed, using default",
			"company", name,
			"default_id", r.defaultID,
			"error", err,
		)
		return r.defaultID
	}
	r.cache.Set(key, id)
	return id
}

func (r *CompanyResolver) lookupOrCreate(ctx context.Context, name string) (int, error) {
	companies, err := r.api.ListCompanies(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("search company %q: %w", name, err)
	}
	if c, ok := findExact(companies, name); ok {
		return c.ID, nil
	}

	created, err := r.api.CreateCompany(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create company %q: %w", name, err)
	}
	r.logger.Info("company created", "company", name, "id", created.ID)
	return created.ID, nil
}

// ListAll returns every company on the board.
func (r *CompanyResolver) ListAll(ctx context.Context) ([]niceboard.Entity, error) {
	companies, err := r.api.ListCompanies(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// PurgeAll deletes every company on the board except keepID, and returns
// how many were removed. Individual failures are collected, not fatal.
func (r *CompanyResolver) PurgeAll(ctx context.Context, keepID int) (int, error) {
	companies, err := r.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	var (
		deleted int
		errs    []error
	)
	for _, c := range companies {
		if c.ID == keepID {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := r.api.DeleteCompany(ctx, c.ID); err != nil {
			errs = append(errs, fmt.Errorf("delete company %d (%s): %w", c.ID, c.Name, err))
			continue
		}
		deleted++
		r.logger.Info("company deleted", "company", c.Name, "id", c.ID)
	}
	return deleted, errors.Join(errs...)
}
