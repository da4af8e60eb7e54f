// internal/database/schema.go
//
// Schema bootstrap.
//
// Context
// -------
// Waypost owns four tables: sites, pending_sites, category_orders, and
// sessions.  EnsureSchema creates any that are missing so a fresh database
// works on first boot; it never alters existing tables.  Required-field
// rules (non-empty name, url, catelog) are enforced at write time by the
// repositories, not by the schema.
package database

import "github.com/jmoiron/sqlx"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sites (
	    id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	    name        VARCHAR(255)    NOT NULL,
	    url         VARCHAR(2048)   NOT NULL,
	    logo        VARCHAR(2048)   NULL,
	    ` + "`desc`" + `        TEXT            NULL,
	    catelog     VARCHAR(255)    NOT NULL,
	    sort_order  INT             NOT NULL DEFAULT 9999,
	    create_time DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
	    update_time DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP
	                                ON UPDATE CURRENT_TIMESTAMP,
	    PRIMARY KEY (id),
	    KEY idx_sites_catelog (catelog),
	    KEY idx_sites_order   (sort_order, create_time)
	)`,

	`CREATE TABLE IF NOT EXISTS pending_sites (
	    id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	    name        VARCHAR(255)    NOT NULL,
	    url         VARCHAR(2048)   NOT NULL,
	    logo        VARCHAR(2048)   NULL,
	    ` + "`desc`" + `        TEXT            NULL,
	    catelog     VARCHAR(255)    NOT NULL,
	    create_time DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
	    PRIMARY KEY (id),
	    KEY idx_pending_created (create_time)
	)`,

	`CREATE TABLE IF NOT EXISTS category_orders (
	    catelog    VARCHAR(255) NOT NULL,
	    sort_order INT          NOT NULL,
	    PRIMARY KEY (catelog)
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
	    token      CHAR(64)  NOT NULL,
	    created_at DATETIME  NOT NULL,
	    expires_at DATETIME  NOT NULL,
	    PRIMARY KEY (token),
	    KEY idx_sessions_expiry (expires_at)
	)`,
}

// EnsureSchema creates the Waypost tables when absent.  Statements run one
// at a time; the first failure aborts.
func EnsureSchema(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
