// internal/catalog/repository.go
//
// Site repository: CRUD and paginated search over `sites`.
//
// Context
// -------
// All catalog reads and writes go through Repository.  Listing order is
// fixed: `sort_order ASC, create_time DESC` — lower sort value first, and
// among ties the newest entry wins.  Pagination is offset-based; a page
// past the end returns an empty slice with the correct total.
//
// Required fields (name, url, catelog) are enforced here at write time,
// not by the schema.  String fields are trimmed before validation, so a
// whitespace-only name is still a validation error.
//
// Workflow
// --------
//  1. Handlers decode the request body into SiteInput.
//  2. Repository sanitizes, validates, and normalizes the ordering value.
//  3. Exactly one parameterised statement (or one transaction for bulk
//     import) touches the store.
//  4. Store errors are returned wrapped; the API layer logs the detail and
//     responds with a generic message.
//
// Notes
// -----
//   - `desc` is a reserved word in MySQL; it stays backticked in SQL.
//   - Oxford commas, two spaces after periods.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/waypost/internal/apperr"
	"github.com/yanizio/waypost/internal/favicon"
	"github.com/yanizio/waypost/internal/sortorder"
)

const siteColumns = "id, name, url, logo, `desc`, catelog, sort_order, create_time, update_time"

// Repository owns the `sites` table.  Finder may be nil, in which case
// logos are never auto-discovered.
type Repository struct {
	db     *sqlx.DB
	finder favicon.Finder
}

// NewRepository builds a Repository over db.
func NewRepository(db *sqlx.DB, finder favicon.Finder) *Repository {
	return &Repository{db: db, finder: finder}
}

// Filter narrows List.  Catalog is an exact match; Keyword is a
// case-insensitive substring match against name, url, and catelog.  Both
// are AND-combined when present.
type Filter struct {
	Catalog string
	Keyword string
}

// Page clamps pagination parameters to sane bounds.
func Page(page, pageSize int) (p, ps int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}

// List returns one page of sites plus the unpaginated total.
func (r *Repository) List(ctx context.Context, f Filter, page, pageSize int) ([]Site, int, error) {
	page, pageSize = Page(page, pageSize)

	where := " WHERE 1=1"
	args := []any{}
	if f.Catalog != "" {
		where += " AND catelog = ?"
		args = append(args, f.Catalog)
	}
	if f.Keyword != "" {
		kw := "%" + strings.ToLower(f.Keyword) + "%"
		where += " AND (LOWER(name) LIKE ? OR LOWER(url) LIKE ? OR LOWER(catelog) LIKE ?)"
		args = append(args, kw, kw, kw)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM sites"+where, args...); err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, err, "count sites")
	}

	q := "SELECT " + siteColumns + " FROM sites" + where +
		" ORDER BY sort_order ASC, create_time DESC LIMIT ? OFFSET ?"
	args = append(args, pageSize, (page-1)*pageSize)

	sites := []Site{}
	if err := r.db.SelectContext(ctx, &sites, q, args...); err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, err, "list sites")
	}
	return sites, total, nil
}

// Create validates fields, normalizes the ordering value, optionally
// discovers a logo, and inserts one row.  Returns the new row's id.
func (r *Repository) Create(ctx context.Context, in SiteInput) (int64, error) {
	s, err := Sanitize(in)
	if err != nil {
		return 0, err
	}

	if s.Logo == nil && r.finder != nil {
		if logo, err := r.finder.Discover(ctx, s.URL); err == nil && logo != "" {
			s.Logo = &logo
		}
		// Discovery is best effort; a miss never fails the create.
	}

	const q = `INSERT INTO sites (name, url, logo, ` + "`desc`" + `, catelog, sort_order, create_time, update_time)
	           VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.URL, s.Logo, s.Desc, s.Catelog, s.SortOrder)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, err, "insert site")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, err, "insert site id")
	}
	zap.S().Infow("site created", "id", id, "name", s.Name, "catelog", s.Catelog)
	return id, nil
}

// Update replaces the mutable fields of one row and bumps update_time.
// MySQL reports zero affected rows both for a missing id and for a
// value-identical update, so existence is verified first.
func (r *Repository) Update(ctx context.Context, id int64, in SiteInput) error {
	s, err := Sanitize(in)
	if err != nil {
		return err
	}

	var exists int
	err = r.db.GetContext(ctx, &exists, `SELECT 1 FROM sites WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return apperr.New(apperr.NotFound, "site %d not found", id)
	}
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "check site %d", id)
	}

	const q = `UPDATE sites
	              SET name = ?, url = ?, logo = ?, ` + "`desc`" + ` = ?, catelog = ?,
	                  sort_order = ?, update_time = NOW()
	            WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, s.Name, s.URL, s.Logo, s.Desc, s.Catelog, s.SortOrder, id); err != nil {
		return apperr.Wrap(apperr.Internal, err, "update site %d", id)
	}
	return nil
}

// Delete removes one row by id.  Idempotent: a missing id is not an error.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, id); err != nil {
		return apperr.Wrap(apperr.Internal, err, "delete site %d", id)
	}
	return nil
}

// ImportBatch decodes raw as either a bare JSON array of SiteInput or an
// object wrapping the array under "data" (back-compatibility shim).  The
// shape is picked by the first non-space byte — `[` or `{` — never by
// structural guessing.  Each item is sanitized exactly as in Create (no
// logo discovery), and all rows land in one transaction: a failure partway
// rolls the whole import back.
func (r *Repository) ImportBatch(ctx context.Context, raw []byte) (int, error) {
	items, err := decodeImport(raw)
	if err != nil {
		return 0, err
	}

	sanitized := make([]Sanitized, 0, len(items))
	for i, in := range items {
		s, err := Sanitize(in)
		if err != nil {
			return 0, apperr.Wrap(apperr.Validation, err, "import item %d", i)
		}
		sanitized = append(sanitized, s)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, err, "begin import")
	}
	defer tx.Rollback()

	const q = `INSERT INTO sites (name, url, logo, ` + "`desc`" + `, catelog, sort_order, create_time, update_time)
	           VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`
	for _, s := range sanitized {
		if _, err := tx.ExecContext(ctx, q, s.Name, s.URL, s.Logo, s.Desc, s.Catelog, s.SortOrder); err != nil {
			return 0, apperr.Wrap(apperr.Internal, err, "import insert")
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, apperr.Wrap(apperr.Internal, err, "commit import")
	}

	zap.S().Infow("bulk import complete", "count", len(sanitized))
	return len(sanitized), nil
}

// ExportAll dumps every site in listing order, suitable for re-import.
func (r *Repository) ExportAll(ctx context.Context) ([]Site, error) {
	sites := []Site{}
	q := "SELECT " + siteColumns + " FROM sites ORDER BY sort_order ASC, create_time DESC"
	if err := r.db.SelectContext(ctx, &sites, q); err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "export sites")
	}
	return sites, nil
}

//
// Sanitization
//

// Sanitized is a SiteInput after trim, validation, and normalization.
type Sanitized struct {
	Name      string
	URL       string
	Logo      *string
	Desc      *string
	Catelog   string
	SortOrder int32
}

// Sanitize trims all string fields, rejects empty required fields, and
// normalizes the ordering value.  Shared by create, update, import, and the
// moderation queue's submit.
func Sanitize(in SiteInput) (Sanitized, error) {
	s := Sanitized{
		Name:      strings.TrimSpace(in.Name),
		URL:       strings.TrimSpace(in.URL),
		Catelog:   strings.TrimSpace(in.Catelog),
		SortOrder: sortorder.Normalize(in.SortOrder),
	}
	if s.Name == "" || s.URL == "" || s.Catelog == "" {
		return s, apperr.New(apperr.Validation, "name, url, and catelog are required")
	}
	if logo := strings.TrimSpace(in.Logo); logo != "" {
		s.Logo = &logo
	}
	if desc := strings.TrimSpace(in.Desc); desc != "" {
		s.Desc = &desc
	}
	return s, nil
}

// decodeImport picks the payload shape by its first non-space byte.
func decodeImport(raw []byte) ([]SiteInput, error) {
	trimmed := strings.TrimLeft(string(raw), " \t\r\n")
	switch {
	case strings.HasPrefix(trimmed, "["):
		var items []SiteInput
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "malformed import array")
		}
		return items, nil
	case strings.HasPrefix(trimmed, "{"):
		var wrapper struct {
			Data []SiteInput `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "malformed import object")
		}
		return wrapper.Data, nil
	default:
		return nil, apperr.New(apperr.Validation, "import payload must be an array or {data: [...]}")
	}
}
