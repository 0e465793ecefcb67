package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AdminStore persists the admin ID set in Postgres.
type AdminStore struct {
	db *sqlx.DB
}

// Load returns the persisted admin IDs.
func (s *AdminStore) Load() ([]int64, error) {
	ids := []int64{}
	if err := s.db.Select(&ids, `SELECT user_id FROM admins ORDER BY user_id`); err != nil {
		return nil, fmt.Errorf("load admins: %w", err)
	}
	return ids, nil
}

// Save replaces the persisted admin IDs in one transaction.
func (s *AdminStore) Save(ids []int64) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin admins save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM admins`); err != nil {
		return fmt.Errorf("clear admins: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.Exec(`INSERT INTO admins (user_id) VALUES ($1)`, id); err != nil {
			return fmt.Errorf("insert admin %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit admins save: %w", err)
	}
	return nil
}
