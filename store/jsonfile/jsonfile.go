// Package jsonfile implements the store interfaces over flat JSON
// files, one per collection. Every mutation re-reads and rewrites the
// whole file; the bot is the only writer.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Stores bundles the JSON-file backed repositories rooted at one
// data directory.
type Stores struct {
	Groups    *GroupStore
	Users     *UserStore
	Templates *TemplateStore
	Admins    *AdminStore
}

// New ensures dir exists and returns stores for every collection.
// Missing collection files are created on first access.
func New(dir string) (*Stores, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Stores{
		Groups:    &GroupStore{path: filepath.Join(dir, "groups.json")},
		Users:     &UserStore{path: filepath.Join(dir, "users.json")},
		Templates: &TemplateStore{path: filepath.Join(dir, "templates.json")},
		Admins:    &AdminStore{path: filepath.Join(dir, "admins.json")},
	}, nil
}

func readCollection(path string, out any, empty string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if werr := os.WriteFile(path, []byte(empty), 0o644); werr != nil {
			return fmt.Errorf("create %s: %w", path, werr)
		}
		data = []byte(empty)
	} else if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeCollection(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
