package jsonfile

import (
	"sort"
	"sync"

	"announcebot/store"
)

// GroupStore keeps registered groups in groups.json.
type GroupStore struct {
	mu   sync.Mutex
	path string
}

func (s *GroupStore) load() ([]store.Group, error) {
	groups := []store.Group{}
	if err := readCollection(s.path, &groups, "[]"); err != nil {
		return nil, err
	}
	return groups, nil
}

// List returns all registered groups.
func (s *GroupStore) List() ([]store.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// ByID returns the group with the given chat ID.
func (s *GroupStore) ByID(id int64) (store.Group, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups, err := s.load()
	if err != nil {
		return store.Group{}, false, err
	}
	for _, g := range groups {
		if g.ID == id {
			return g, true, nil
		}
	}
	return store.Group{}, false, nil
}

// Add registers a new group.
func (s *GroupStore) Add(g store.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range groups {
		if existing.ID == g.ID {
			return store.ErrGroupExists
		}
	}
	if g.Tags == nil {
		g.Tags = []string{}
	}
	groups = append(groups, g)
	return writeCollection(s.path, groups)
}

// Remove drops a group by chat ID.
func (s *GroupStore) Remove(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups, err := s.load()
	if err != nil {
		return err
	}
	filtered := groups[:0]
	for _, g := range groups {
		if g.ID != id {
			filtered = append(filtered, g)
		}
	}
	if len(filtered) == len(groups) {
		return store.ErrGroupNotFound
	}
	return writeCollection(s.path, filtered)
}

// AddTag attaches a tag to a group.
func (s *GroupStore) AddTag(id int64, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups, err := s.load()
	if err != nil {
		return err
	}
	for i := range groups {
		if groups[i].ID != id {
			continue
		}
		if groups[i].HasTag(tag) {
			return store.ErrTagExists
		}
		groups[i].Tags = append(groups[i].Tags, tag)
		return writeCollection(s.path, groups)
	}
	return store.ErrGroupNotFound
}

// RemoveTag detaches a tag from a group.
func (s *GroupStore) RemoveTag(id int64, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups, err := s.load()
	if err != nil {
		return err
	}
	for i := range groups {
		if groups[i].ID != id {
			continue
		}
		if !groups[i].HasTag(tag) {
			return store.ErrTagNotFound
		}
		tags := groups[i].Tags[:0]
		for _, t := range groups[i].Tags {
			if t != tag {
				tags = append(tags, t)
			}
		}
		groups[i].Tags = tags
		return writeCollection(s.path, groups)
	}
	return store.ErrGroupNotFound
}

// SetThreadID points a group's announcements at a forum topic; nil
// resets to General.
func (s *GroupStore) SetThreadID(id int64, threadID *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups, err := s.load()
	if err != nil {
		return err
	}
	for i := range groups {
		if groups[i].ID != id {
			continue
		}
		groups[i].ThreadID = threadID
		return writeCollection(s.path, groups)
	}
	return store.ErrGroupNotFound
}

// AllTags returns the sorted set of tags used across all groups.
func (s *GroupStore) AllTags() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups, err := s.load()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var tags []string
	for _, g := range groups {
		for _, t := range g.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags, nil
}
