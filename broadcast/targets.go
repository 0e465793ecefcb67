package broadcast

import (
	"fmt"

	"announcebot/store"
)

// TargetKind distinguishes group chats from direct user chats.
type TargetKind string

const (
	// TargetGroup is a registered group chat.
	TargetGroup TargetKind = "group"
	// TargetUser is an approved end-user.
	TargetUser TargetKind = "user"
)

// Target is one resolved broadcast destination. Lists are snapshotted
// at confirmation time; later membership changes do not affect a run.
type Target struct {
	Kind  TargetKind
	ID    int64
	Label string
	// ThreadID routes group sends into a forum topic.
	ThreadID *int
}

func groupTarget(g store.Group) Target {
	return Target{Kind: TargetGroup, ID: g.ID, Label: g.Title, ThreadID: g.ThreadID}
}

func userTarget(u store.User) Target {
	return Target{Kind: TargetUser, ID: u.ID, Label: u.FullName()}
}

// AllGroups resolves every registered group.
func AllGroups(gs store.GroupStore) ([]Target, error) {
	groups, err := gs.List()
	if err != nil {
		return nil, fmt.Errorf("resolve groups: %w", err)
	}
	targets := make([]Target, 0, len(groups))
	for _, g := range groups {
		targets = append(targets, groupTarget(g))
	}
	return targets, nil
}

// GroupsByTags resolves groups carrying at least one of the tags.
func GroupsByTags(gs store.GroupStore, tags []string) ([]Target, error) {
	groups, err := gs.List()
	if err != nil {
		return nil, fmt.Errorf("resolve groups: %w", err)
	}
	var targets []Target
	for _, g := range groups {
		for _, tag := range tags {
			if g.HasTag(tag) {
				targets = append(targets, groupTarget(g))
				break
			}
		}
	}
	return targets, nil
}

// batchGroupLookup is implemented by backends that can resolve many
// group IDs in one query.
type batchGroupLookup interface {
	ByIDs(ids []int64) ([]store.Group, error)
}

// GroupsByIDs resolves the given chat IDs, reporting the unknown ones
// separately so the caller can warn about them. Order follows ids.
func GroupsByIDs(gs store.GroupStore, ids []int64) ([]Target, []int64, error) {
	if bl, ok := gs.(batchGroupLookup); ok {
		return groupsByIDsBatch(bl, ids)
	}

	var targets []Target
	var notFound []int64
	for _, id := range ids {
		g, ok, err := gs.ByID(id)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve group %d: %w", id, err)
		}
		if !ok {
			notFound = append(notFound, id)
			continue
		}
		targets = append(targets, groupTarget(g))
	}
	return targets, notFound, nil
}

func groupsByIDsBatch(bl batchGroupLookup, ids []int64) ([]Target, []int64, error) {
	groups, err := bl.ByIDs(ids)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve groups: %w", err)
	}
	byID := make(map[int64]store.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}
	var targets []Target
	var notFound []int64
	for _, id := range ids {
		g, ok := byID[id]
		if !ok {
			notFound = append(notFound, id)
			continue
		}
		targets = append(targets, groupTarget(g))
	}
	return targets, notFound, nil
}

// ApprovedUsers resolves every approved user.
func ApprovedUsers(us store.UserStore) ([]Target, error) {
	users, err := us.Approved()
	if err != nil {
		return nil, fmt.Errorf("resolve users: %w", err)
	}
	targets := make([]Target, 0, len(users))
	for _, u := range users {
		targets = append(targets, userTarget(u))
	}
	return targets, nil
}

// ApprovedUsersBySubject resolves approved users by subject,
// case-insensitively.
func ApprovedUsersBySubject(us store.UserStore, subject string) ([]Target, error) {
	users, err := us.ApprovedBySubject(subject)
	if err != nil {
		return nil, fmt.Errorf("resolve users by subject: %w", err)
	}
	targets := make([]Target, 0, len(users))
	for _, u := range users {
		targets = append(targets, userTarget(u))
	}
	return targets, nil
}
