// internal/catalog/category.go
//
// Category order resolution.
//
// Context
// -------
// Categories have no table of their own — a category exists exactly when at
// least one `sites` row carries its label.  Display order merges two
// sources:
//
//   - explicit overrides from `category_orders`, and
//   - a derived fallback: the minimum sort_order among the category's
//     sites.
//
// An override for a category that has lost all its sites is preserved but
// invisible; it comes back into effect if the category is repopulated.
//
// The resolved view is cached behind a store-change counter: every catalog
// mutation bumps the counter, and Resolve recomputes only when the cached
// version is stale.  Concurrent recomputes collapse through singleflight.
//
// Ordering
// --------
// Categories sort by the tuple (sort_order, min_site_sort, catelog).  The
// final tie-break uses a locale-aware, case-insensitive collation so
// non-Latin labels order deterministically across platforms.
package catalog

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/yanizio/waypost/internal/apperr"
	"github.com/yanizio/waypost/internal/sortorder"
)

// Resolver computes the effective category order.
type Resolver struct {
	db  *sqlx.DB
	sfg singleflight.Group

	version atomic.Int64 // bumped on every catalog mutation

	mu        sync.Mutex
	cached    []CategoryView
	cachedVer int64
}

// NewResolver builds a Resolver over db.
func NewResolver(db *sqlx.DB) *Resolver {
	r := &Resolver{db: db}
	r.cachedVer = -1 // force first compute
	return r
}

// Invalidate marks the cached view stale.  Call after any write to `sites`
// or `category_orders` (the repositories' callers do this).
func (r *Resolver) Invalidate() { r.version.Add(1) }

// Resolve returns the ordered category views, recomputing only when the
// store has changed since the last computation.
func (r *Resolver) Resolve(ctx context.Context) ([]CategoryView, error) {
	ver := r.version.Load()

	r.mu.Lock()
	if r.cachedVer == ver {
		views := r.cached
		r.mu.Unlock()
		return views, nil
	}
	r.mu.Unlock()

	v, err, _ := r.sfg.Do("resolve", func() (any, error) {
		views, err := r.compute(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cached = views
		r.cachedVer = ver
		r.mu.Unlock()
		return views, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]CategoryView), nil
}

// compute derives the view from scratch: one GROUP BY over sites, one read
// of the override table, then an in-memory merge and sort.
func (r *Resolver) compute(ctx context.Context) ([]CategoryView, error) {
	type grouped struct {
		Catelog   string `db:"catelog"`
		SiteCount int    `db:"site_count"`
		MinSort   int32  `db:"min_sort"`
	}
	groups := []grouped{}
	const qGroups = `SELECT catelog, COUNT(*) AS site_count,
	                        COALESCE(MIN(sort_order), 9999) AS min_sort
	                   FROM sites GROUP BY catelog`
	if err := r.db.SelectContext(ctx, &groups, qGroups); err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "group categories")
	}

	type override struct {
		Catelog   string `db:"catelog"`
		SortOrder int32  `db:"sort_order"`
	}
	overrides := []override{}
	if err := r.db.SelectContext(ctx, &overrides,
		`SELECT catelog, sort_order FROM category_orders`); err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "load category overrides")
	}
	byName := make(map[string]int32, len(overrides))
	for _, o := range overrides {
		byName[o.Catelog] = o.SortOrder
	}

	views := make([]CategoryView, 0, len(groups))
	for _, g := range groups {
		v := CategoryView{
			Catelog:     g.Catelog,
			SiteCount:   g.SiteCount,
			MinSiteSort: g.MinSort,
		}
		if so, ok := byName[g.Catelog]; ok {
			v.SortOrder, v.Explicit = so, true
		} else {
			v.SortOrder = sortorder.Normalize(g.MinSort)
		}
		views = append(views, v)
	}

	SortViews(views)
	return views, nil
}

// SetOverride upserts an explicit order for catelog.  The store-level
// "insert or update on conflict" avoids a read-modify-write race on the
// category key.
func (r *Resolver) SetOverride(ctx context.Context, catelog string, order any) error {
	if catelog == "" {
		return apperr.New(apperr.Validation, "category name is required")
	}
	const q = `INSERT INTO category_orders (catelog, sort_order)
	           VALUES (?, ?)
	           ON DUPLICATE KEY UPDATE sort_order = VALUES(sort_order)`
	if _, err := r.db.ExecContext(ctx, q, catelog, sortorder.Normalize(order)); err != nil {
		return apperr.Wrap(apperr.Internal, err, "upsert category order %q", catelog)
	}
	return nil
}

// ResetOverride deletes the override row; the category reverts to its
// derived fallback on the next Resolve.  Idempotent.
func (r *Resolver) ResetOverride(ctx context.Context, catelog string) error {
	if catelog == "" {
		return apperr.New(apperr.Validation, "category name is required")
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM category_orders WHERE catelog = ?`, catelog); err != nil {
		return apperr.Wrap(apperr.Internal, err, "reset category order %q", catelog)
	}
	return nil
}

//
// Sorting
//

// collator is shared; collate.Collator is not safe for concurrent use, so
// access goes through collMu.
var (
	collMu   sync.Mutex
	collator = collate.New(language.Und, collate.IgnoreCase)
)

// SortViews orders views by (sort_order, min_site_sort, catelog) ascending
// with a locale-aware, case-insensitive final tie-break.  Stable result for
// equal tuples is guaranteed because the full tuple is a total order over
// distinct category names.
func SortViews(views []CategoryView) {
	collMu.Lock()
	defer collMu.Unlock()
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if a.MinSiteSort != b.MinSiteSort {
			return a.MinSiteSort < b.MinSiteSort
		}
		return collator.CompareString(a.Catelog, b.Catelog) < 0
	})
}
