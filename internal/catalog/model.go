// internal/catalog/model.go
//
// Row types for the catalog store.
//
// Context
// -------
// Site mirrors one row in `sites`; the JSON tags define the wire shape used
// by the API and by export/import, so the two must stay aligned.  The
// column names (`catelog` included) are inherited data — existing exports
// re-import against them.
package catalog

import "time"

// SortOrderDefault is re-exported here for SQL literals; the normalization
// policy itself lives in internal/sortorder.
const SortOrderDefault = 9999

// Site is a catalog entry.  Logo and Desc are nullable in storage and
// omitted from JSON when absent.
type Site struct {
	ID        int64     `db:"id"          json:"id"`
	Name      string    `db:"name"        json:"name"`
	URL       string    `db:"url"         json:"url"`
	Logo      *string   `db:"logo"        json:"logo,omitempty"`
	Desc      *string   `db:"desc"        json:"desc,omitempty"`
	Catelog   string    `db:"catelog"     json:"catelog"`
	SortOrder int32     `db:"sort_order"  json:"sort_order"`
	Created   time.Time `db:"create_time" json:"create_time"`
	Updated   time.Time `db:"update_time" json:"update_time"`
}

// SiteInput is the mutable-field payload accepted by create, update, bulk
// import, and public submission.  SortOrder is `any` because ordering
// values arrive as numbers, quoted numbers, empty strings, or nothing at
// all; internal/sortorder.Normalize makes them total.
type SiteInput struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Logo      string `json:"logo"`
	Desc      string `json:"desc"`
	Catelog   string `json:"catelog"`
	SortOrder any    `json:"sort_order"`
}

// CategoryView is one resolved category row: the effective display order
// plus the inputs it was derived from.
type CategoryView struct {
	Catelog     string `json:"catelog"`
	SiteCount   int    `json:"site_count"`
	SortOrder   int32  `json:"sort_order"`
	Explicit    bool   `json:"explicit"`
	MinSiteSort int32  `json:"min_site_sort"`
}
