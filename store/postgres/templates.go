package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"announcebot/store"
)

// TemplateStore persists announcement templates in Postgres.
type TemplateStore struct {
	db *sqlx.DB
}

// All returns templates sorted by name.
func (s *TemplateStore) All() ([]store.Template, error) {
	templates := []store.Template{}
	if err := s.db.Select(&templates, `SELECT name, text FROM templates ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// Get returns a template by name.
func (s *TemplateStore) Get(name string) (store.Template, bool, error) {
	var t store.Template
	err := s.db.Get(&t, `SELECT name, text FROM templates WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Template{}, false, nil
	}
	if err != nil {
		return store.Template{}, false, fmt.Errorf("get template %q: %w", name, err)
	}
	return t, true, nil
}

// Save stores a template, overwriting any previous text under the name.
func (s *TemplateStore) Save(t store.Template) error {
	_, err := s.db.Exec(
		`INSERT INTO templates (name, text) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET text = EXCLUDED.text`,
		t.Name, t.Text,
	)
	if err != nil {
		return fmt.Errorf("save template %q: %w", t.Name, err)
	}
	return nil
}

// Delete removes a template by name.
func (s *TemplateStore) Delete(name string) error {
	res, err := s.db.Exec(`DELETE FROM templates WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete template %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrTemplateNotFound
	}
	return nil
}

// Exists reports whether a template with the name is stored.
func (s *TemplateStore) Exists(name string) (bool, error) {
	_, ok, err := s.Get(name)
	return ok, err
}
