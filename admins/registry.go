// Package admins holds the bot's admin set. The set gates every
// privileged command and is persisted through a store.AdminStore.
package admins

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"announcebot/core/logger"
	"announcebot/store"
)

var (
	// ErrLastAdmin is returned when removing the only remaining admin.
	ErrLastAdmin = errors.New("cannot remove the last admin")
	// ErrSelfAction is returned when an admin targets themselves.
	ErrSelfAction = errors.New("cannot target yourself")
	// ErrAlreadyAdmin is returned when adding an existing admin.
	ErrAlreadyAdmin = errors.New("user is already an admin")
	// ErrNotAdmin is returned when removing a user outside the set.
	ErrNotAdmin = errors.New("user is not an admin")
)

// Registry is the authoritative admin set. Mutations persist through
// the store and revert in memory when the write fails.
type Registry struct {
	mu    sync.RWMutex
	ids   map[int64]struct{}
	store store.AdminStore
}

// NewRegistry loads the persisted admin set. An empty store is seeded
// from config so a fresh deployment starts with at least one admin.
func NewRegistry(st store.AdminStore, seed []int64) (*Registry, error) {
	ids, err := st.Load()
	if err != nil {
		return nil, fmt.Errorf("load admins: %w", err)
	}
	r := &Registry{ids: make(map[int64]struct{}, len(ids)), store: st}
	for _, id := range ids {
		r.ids[id] = struct{}{}
	}
	if len(r.ids) == 0 && len(seed) > 0 {
		for _, id := range seed {
			r.ids[id] = struct{}{}
		}
		if err := st.Save(r.snapshot()); err != nil {
			return nil, fmt.Errorf("seed admins: %w", err)
		}
		logger.Info(logger.Background(), "admins", "seed",
			slog.Int("count", len(r.ids)),
		)
	}
	return r, nil
}

func (r *Registry) snapshot() []int64 {
	out := make([]int64, 0, len(r.ids))
	for id := range r.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// List returns the admin IDs in ascending order.
func (r *Registry) List() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot()
}

// IsAdmin reports whether the user belongs to the admin set.
func (r *Registry) IsAdmin(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[userID]
	return ok
}

// Add grants admin rights to userID on behalf of actorID.
func (r *Registry) Add(actorID, userID int64) error {
	if actorID == userID {
		return ErrSelfAction
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[userID]; ok {
		return ErrAlreadyAdmin
	}
	r.ids[userID] = struct{}{}
	if err := r.store.Save(r.snapshot()); err != nil {
		delete(r.ids, userID)
		return fmt.Errorf("persist admins: %w", err)
	}
	logger.Info(logger.Background(), "admins", "add",
		slog.Int64("user_id", userID),
		slog.Int("count", len(r.ids)),
	)
	return nil
}

// Remove revokes admin rights from userID on behalf of actorID. The
// set is never left empty.
func (r *Registry) Remove(actorID, userID int64) error {
	if actorID == userID {
		return ErrSelfAction
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[userID]; !ok {
		return ErrNotAdmin
	}
	if len(r.ids) == 1 {
		return ErrLastAdmin
	}
	delete(r.ids, userID)
	if err := r.store.Save(r.snapshot()); err != nil {
		r.ids[userID] = struct{}{}
		return fmt.Errorf("persist admins: %w", err)
	}
	logger.Info(logger.Background(), "admins", "remove",
		slog.Int64("user_id", userID),
		slog.Int("count", len(r.ids)),
	)
	return nil
}
