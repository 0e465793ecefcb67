// Package postgres implements the store interfaces over Postgres via
// sqlx. Schema lives in the migrations directory and is applied at
// bootstrap.
package postgres

import "github.com/jmoiron/sqlx"

// Stores bundles the Postgres-backed repositories sharing one pool.
type Stores struct {
	Groups    *GroupStore
	Users     *UserStore
	Templates *TemplateStore
	Admins    *AdminStore
}

// New wraps the connection pool with a store for every collection.
func New(db *sqlx.DB) *Stores {
	return &Stores{
		Groups:    &GroupStore{db: db},
		Users:     &UserStore{db: db},
		Templates: &TemplateStore{db: db},
		Admins:    &AdminStore{db: db},
	}
}
