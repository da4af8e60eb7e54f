// internal/moderation/queue.go
//
// Moderation queue: public submissions awaiting admin review.
//
// Context
// -------
// Visitors may propose links.  Each submission lands in `pending_sites`
// and stays there until an admin approves (copy into `sites`, then delete
// the pending row) or rejects (delete) it.  Both outcomes are terminal —
// there is no re-queue.
//
// Approval runs inside one transaction, so a crash between the copy and
// the delete cannot leave the entry in both tables.
//
// The whole feature sits behind a configuration switch: with submissions
// disabled, Submit refuses before any validation runs.
package moderation

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/waypost/internal/apperr"
	"github.com/yanizio/waypost/internal/catalog"
	"github.com/yanizio/waypost/internal/favicon"
)

// PendingSite mirrors one row in `pending_sites`.  Same shape as a Site
// minus sort_order and update_time: ordering is decided at approval.
type PendingSite struct {
	ID      int64     `db:"id"          json:"id"`
	Name    string    `db:"name"        json:"name"`
	URL     string    `db:"url"         json:"url"`
	Logo    *string   `db:"logo"        json:"logo,omitempty"`
	Desc    *string   `db:"desc"        json:"desc,omitempty"`
	Catelog string    `db:"catelog"     json:"catelog"`
	Created time.Time `db:"create_time" json:"create_time"`
}

// Queue owns `pending_sites` and the approval hand-off into `sites`.
type Queue struct {
	db      *sqlx.DB
	finder  favicon.Finder
	enabled bool
}

// NewQueue builds a Queue.  enabled mirrors the public-submission feature
// switch; finder may be nil to skip logo discovery.
func NewQueue(db *sqlx.DB, finder favicon.Finder, enabled bool) *Queue {
	return &Queue{db: db, finder: finder, enabled: enabled}
}

// Submit validates a public submission and inserts it into the queue.
// With submissions disabled the call is refused with Forbidden before any
// validation.  Returns the pending row's id.
func (q *Queue) Submit(ctx context.Context, in catalog.SiteInput) (int64, error) {
	if !q.enabled {
		return 0, apperr.New(apperr.Forbidden, "public submissions are disabled")
	}

	s, err := catalog.Sanitize(in)
	if err != nil {
		return 0, err
	}

	if s.Logo == nil && q.finder != nil {
		if logo, err := q.finder.Discover(ctx, s.URL); err == nil && logo != "" {
			s.Logo = &logo
		}
	}

	const stmt = `INSERT INTO pending_sites (name, url, logo, ` + "`desc`" + `, catelog, create_time)
	              VALUES (?, ?, ?, ?, ?, NOW())`
	res, err := q.db.ExecContext(ctx, stmt, s.Name, s.URL, s.Logo, s.Desc, s.Catelog)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, err, "insert pending site")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, err, "pending site id")
	}
	zap.S().Infow("submission queued", "id", id, "name", s.Name, "catelog", s.Catelog)
	return id, nil
}

// Approve promotes one pending row into the catalog.  The copy and the
// delete share a transaction; sort_order is forced to the sentinel so the
// new entry sorts after anything deliberately ordered.  Unknown id is
// NotFound with no writes.
func (q *Queue) Approve(ctx context.Context, id int64) error {
	tx, err := q.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "begin approve")
	}
	defer tx.Rollback()

	var p PendingSite
	err = tx.GetContext(ctx, &p,
		"SELECT id, name, url, logo, `desc`, catelog, create_time FROM pending_sites WHERE id = ?", id)
	if err == sql.ErrNoRows {
		return apperr.New(apperr.NotFound, "pending site %d not found", id)
	}
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "read pending site %d", id)
	}

	const ins = `INSERT INTO sites (name, url, logo, ` + "`desc`" + `, catelog, sort_order, create_time, update_time)
	             VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`
	if _, err := tx.ExecContext(ctx, ins, p.Name, p.URL, p.Logo, p.Desc, p.Catelog, catalog.SortOrderDefault); err != nil {
		return apperr.Wrap(apperr.Internal, err, "approve insert %d", id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_sites WHERE id = ?`, id); err != nil {
		return apperr.Wrap(apperr.Internal, err, "approve delete %d", id)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Internal, err, "commit approve %d", id)
	}

	zap.S().Infow("submission approved", "id", id, "name", p.Name)
	return nil
}

// Reject drops one pending row.  Idempotent: rejecting an unknown id is
// not an error.
func (q *Queue) Reject(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM pending_sites WHERE id = ?`, id); err != nil {
		return apperr.Wrap(apperr.Internal, err, "reject pending site %d", id)
	}
	return nil
}

// List returns one page of the queue, newest first, plus the total.
func (q *Queue) List(ctx context.Context, page, pageSize int) ([]PendingSite, int, error) {
	page, pageSize = catalog.Page(page, pageSize)

	var total int
	if err := q.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM pending_sites`); err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, err, "count pending sites")
	}

	items := []PendingSite{}
	const stmt = "SELECT id, name, url, logo, `desc`, catelog, create_time FROM pending_sites" +
		" ORDER BY create_time DESC LIMIT ? OFFSET ?"
	if err := q.db.SelectContext(ctx, &items, stmt, pageSize, (page-1)*pageSize); err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, err, "list pending sites")
	}
	return items, total, nil
}
