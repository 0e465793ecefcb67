package jsonfile

import (
	"sort"
	"strings"
	"sync"
	"time"

	"announcebot/store"
)

// UserStore keeps registered users in users.json.
type UserStore struct {
	mu   sync.Mutex
	path string
}

func (s *UserStore) load() ([]store.User, error) {
	users := []store.User{}
	if err := readCollection(s.path, &users, "[]"); err != nil {
		return nil, err
	}
	return users, nil
}

// List returns all registered users.
func (s *UserStore) List() ([]store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// ByID returns the user with the given Telegram ID.
func (s *UserStore) ByID(id int64) (store.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load()
	if err != nil {
		return store.User{}, false, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, true, nil
		}
	}
	return store.User{}, false, nil
}

// Add appends a new user record.
func (s *UserStore) Add(u store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range users {
		if existing.ID == u.ID {
			return store.ErrUserExists
		}
	}
	users = append(users, u)
	return writeCollection(s.path, users)
}

// SetStatus moves a user through the approval workflow, stamping who
// decided and when. Re-reviewing overwrites the previous decision.
func (s *UserStore) SetStatus(id int64, status store.UserStatus, adminID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load()
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].ID != id {
			continue
		}
		users[i].Status = status
		now := time.Now().UTC()
		switch status {
		case store.StatusApproved:
			users[i].ApprovedAt = &now
			users[i].ApprovedBy = &adminID
		case store.StatusRejected:
			users[i].RejectedAt = &now
			users[i].RejectedBy = &adminID
		}
		return writeCollection(s.path, users)
	}
	return store.ErrUserNotFound
}

// Delete removes a user record.
func (s *UserStore) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load()
	if err != nil {
		return err
	}
	filtered := users[:0]
	for _, u := range users {
		if u.ID != id {
			filtered = append(filtered, u)
		}
	}
	if len(filtered) == len(users) {
		return store.ErrUserNotFound
	}
	return writeCollection(s.path, filtered)
}

func (s *UserStore) byStatus(status store.UserStatus) ([]store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []store.User
	for _, u := range users {
		if u.Status == status {
			out = append(out, u)
		}
	}
	return out, nil
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
	approved, err := s.Approved()
	if err != nil {
		return nil, err
	}
	var out []store.User
	for _, u := range approved {
		if strings.EqualFold(u.Subject, subject) {
			out = append(out, u)
		}
	}
	return out, nil
}

// Subjects returns the sorted set of distinct subjects across all users.
func (s *UserStore) Subjects() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var subjects []string
	for _, u := range users {
		if _, ok := seen[u.Subject]; ok {
			continue
		}
		seen[u.Subject] = struct{}{}
		subjects = append(subjects, u.Subject)
	}
	sort.Strings(subjects)
	return subjects, nil
}

// Stats aggregates users by status.
func (s *UserStore) Stats() (store.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load()
	if err != nil {
		return store.UserStats{}, err
	}
	stats := store.UserStats{Total: len(users)}
	for _, u := range users {
		switch u.Status {
		case store.StatusPending:
			stats.Pending++
		case store.StatusApproved:
			stats.Approved++
		case store.StatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}
