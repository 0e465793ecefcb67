package jsonfile

import "sync"

// AdminStore keeps the admin ID set in admins.json as a plain array.
type AdminStore struct {
	mu   sync.Mutex
	path string
}

// Load returns the persisted admin IDs.
func (s *AdminStore) Load() ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := []int64{}
	if err := readCollection(s.path, &ids, "[]"); err != nil {
		return nil, err
	}
	return ids, nil
}

// Save replaces the persisted admin IDs.
func (s *AdminStore) Save(ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeCollection(s.path, ids)
}
