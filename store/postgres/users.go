package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"announcebot/store"
)

// UserStore persists registered users in Postgres.
type UserStore struct {
	db *sqlx.DB
}

const userColumns = `id, first_name, last_name, patronymic, subject, status,
	registered_at, approved_at, approved_by, rejected_at, rejected_by`

// List returns all registered users.
func (s *UserStore) List() ([]store.User, error) {
	users := []store.User{}
	err := s.db.Select(&users, `SELECT `+userColumns+` FROM users ORDER BY registered_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ByID returns the user with the given Telegram ID.
func (s *UserStore) ByID(id int64) (store.User, bool, error) {
	var u store.User
	err := s.db.Get(&u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, false, nil
	}
	if err != nil {
		return store.User{}, false, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, true, nil
}

// Add inserts a new user record.
func (s *UserStore) Add(u store.User) error {
	res, err := s.db.Exec(
		`INSERT INTO users (id, first_name, last_name, patronymic, subject, status, registered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		u.ID, u.FirstName, u.LastName, u.Patronymic, u.Subject, u.Status, u.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("insert user %d: %w", u.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrUserExists
	}
	return nil
}

// SetStatus moves a user through the approval workflow, stamping who
// decided and when.
func (s *UserStore) SetStatus(id int64, status store.UserStatus, adminID int64) error {
	now := time.Now().UTC()
	var res sql.Result
	var err error
	switch status {
	case store.StatusApproved:
		res, err = s.db.Exec(
			`UPDATE users SET status = $2, approved_at = $3, approved_by = $4 WHERE id = $1`,
			id, status, now, adminID,
		)
	case store.StatusRejected:
		res, err = s.db.Exec(
			`UPDATE users SET status = $2, rejected_at = $3, rejected_by = $4 WHERE id = $1`,
			id, status, now, adminID,
		)
	default:
		res, err = s.db.Exec(`UPDATE users SET status = $2 WHERE id = $1`, id, status)
	}
	if err != nil {
		return fmt.Errorf("set status for %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// Delete removes a user record.
func (s *UserStore) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) byStatus(status store.UserStatus) ([]store.User, error) {
	users := []store.User{}
	err := s.db.Select(&users,
		`SELECT `+userColumns+` FROM users WHERE status = $1 ORDER BY registered_at`, status)
	if err != nil {
		return nil, fmt.Errorf("list users by status %s: %w", status, err)
	}
	return users, nil
}

// Pending returns users awaiting review.
func (s *UserStore) Pending() ([]store.User, error) {
	return s.byStatus(store.StatusPending)
}

// Approved returns users cleared to receive broadcasts.
func (s *UserStore) Approved() ([]store.User, error) {
	return s.byStatus(store.StatusApproved)
}

// Rejected returns denied users.
func (s *UserStore) Rejected() ([]store.User, error) {
	return s.byStatus(store.StatusRejected)
}

// ApprovedBySubject returns approved users whose subject matches
// case-insensitively.
func (s *UserStore) ApprovedBySubject(subject string) ([]store.User, error) {
	users := []store.User{}
	err := s.db.Select(&users,
		`SELECT `+userColumns+` FROM users WHERE status = $1 AND lower(subject) = lower($2) ORDER BY registered_at`,
		store.StatusApproved, subject)
	if err != nil {
		return nil, fmt.Errorf("list users by subject %q: %w", subject, err)
	}
	return users, nil
}

// Subjects returns the sorted set of distinct subjects across all users.
func (s *UserStore) Subjects() ([]string, error) {
	subjects := []string{}
	if err := s.db.Select(&subjects, `SELECT DISTINCT subject FROM users ORDER BY subject`); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// Stats aggregates users by status.
func (s *UserStore) Stats() (store.UserStats, error) {
	var stats store.UserStats
	err := s.db.QueryRow(
		`SELECT count(*),
		        count(*) FILTER (WHERE status = 'pending'),
		        count(*) FILTER (WHERE status = 'approved'),
		        count(*) FILTER (WHERE status = 'rejected')
		 FROM users`,
	).Scan(&stats.Total, &stats.Pending, &stats.Approved, &stats.Rejected)
	if err != nil {
		return store.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	return stats, nil
}
