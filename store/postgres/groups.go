package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"announcebot/store"
)

// GroupStore persists groups and their tags in Postgres.
type GroupStore struct {
	db *sqlx.DB
}

func (s *GroupStore) loadTags(groupID int64) ([]string, error) {
	tags := []string{}
	err := s.db.Select(&tags, `SELECT tag FROM group_tags WHERE group_id = $1 ORDER BY tag`, groupID)
	if err != nil {
		return nil, fmt.Errorf("load tags for %d: %w", groupID, err)
	}
	return tags, nil
}

// List returns all registered groups with their tags.
func (s *GroupStore) List() ([]store.Group, error) {
	groups := []store.Group{}
	err := s.db.Select(&groups, `SELECT id, title, thread_id, added_at, added_manually FROM groups ORDER BY added_at`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	for i := range groups {
		tags, err := s.loadTags(groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Tags = tags
	}
	return groups, nil
}

// ByID returns the group with the given chat ID.
func (s *GroupStore) ByID(id int64) (store.Group, bool, error) {
	var g store.Group
	err := s.db.Get(&g, `SELECT id, title, thread_id, added_at, added_manually FROM groups WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Group{}, false, nil
	}
	if err != nil {
		return store.Group{}, false, fmt.Errorf("get group %d: %w", id, err)
	}
	tags, err := s.loadTags(id)
	if err != nil {
		return store.Group{}, false, err
	}
	g.Tags = tags
	return g, true, nil
}

// Add registers a new group.
func (s *GroupStore) Add(g store.Group) error {
	res, err := s.db.Exec(
		`INSERT INTO groups (id, title, thread_id, added_at, added_manually)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		g.ID, g.Title, g.ThreadID, g.AddedAt, g.AddedManually,
	)
	if err != nil {
		return fmt.Errorf("insert group %d: %w", g.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrGroupExists
	}
	for _, tag := range g.Tags {
		if _, err := s.db.Exec(
			`INSERT INTO group_tags (group_id, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			g.ID, tag,
		); err != nil {
			return fmt.Errorf("insert tag %q: %w", tag, err)
		}
	}
	return nil
}

// Remove drops a group; tags go with it via cascade.
func (s *GroupStore) Remove(id int64) error {
	res, err := s.db.Exec(`DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete group %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrGroupNotFound
	}
	return nil
}

// AddTag attaches a tag to a group.
func (s *GroupStore) AddTag(id int64, tag string) error {
	if _, ok, err := s.ByID(id); err != nil {
		return err
	} else if !ok {
		return store.ErrGroupNotFound
	}
	res, err := s.db.Exec(
		`INSERT INTO group_tags (group_id, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		id, tag,
	)
	if err != nil {
		return fmt.Errorf("insert tag %q: %w", tag, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrTagExists
	}
	return nil
}

// RemoveTag detaches a tag from a group.
func (s *GroupStore) RemoveTag(id int64, tag string) error {
	if _, ok, err := s.ByID(id); err != nil {
		return err
	} else if !ok {
		return store.ErrGroupNotFound
	}
	res, err := s.db.Exec(`DELETE FROM group_tags WHERE group_id = $1 AND tag = $2`, id, tag)
	if err != nil {
		return fmt.Errorf("delete tag %q: %w", tag, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrTagNotFound
	}
	return nil
}

// SetThreadID points a group's announcements at a forum topic; nil
// resets to General.
func (s *GroupStore) SetThreadID(id int64, threadID *int) error {
	res, err := s.db.Exec(`UPDATE groups SET thread_id = $2 WHERE id = $1`, id, threadID)
	if err != nil {
		return fmt.Errorf("set thread for %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrGroupNotFound
	}
	return nil
}

// AllTags returns the sorted set of tags used across all groups.
func (s *GroupStore) AllTags() ([]string, error) {
	tags := []string{}
	if err := s.db.Select(&tags, `SELECT DISTINCT tag FROM group_tags ORDER BY tag`); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// ByIDs returns groups matching any of the given IDs.
func (s *GroupStore) ByIDs(ids []int64) ([]store.Group, error) {
	groups := []store.Group{}
	err := s.db.Select(&groups,
		`SELECT id, title, thread_id, added_at, added_manually FROM groups WHERE id = ANY($1) ORDER BY added_at`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("list groups by ids: %w", err)
	}
	for i := range groups {
		tags, err := s.loadTags(groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Tags = tags
	}
	return groups, nil
}
