package broadcast

import (
	"testing"

	"announcebot/store"
)

type fakeGroupStore struct {
	groups []store.Group
}

func (f *fakeGroupStore) List() ([]store.Group, error) { return f.groups, nil }

func (f *fakeGroupStore) ByID(id int64) (store.Group, bool, error) {
	for _, g := range f.groups {
		if g.ID == id {
			return g, true, nil
		}
	}
	return store.Group{}, false, nil
}

func (f *fakeGroupStore) Add(store.Group) error                { return nil }
func (f *fakeGroupStore) Remove(int64) error                   { return nil }
func (f *fakeGroupStore) AddTag(int64, string) error           { return nil }
func (f *fakeGroupStore) RemoveTag(int64, string) error        { return nil }
func (f *fakeGroupStore) SetThreadID(int64, *int) error        { return nil }
func (f *fakeGroupStore) AllTags() ([]string, error)           { return nil, nil }

type fakeUserStore struct {
	users []store.User
}

func (f *fakeUserStore) List() ([]store.User, error)                { return f.users, nil }
func (f *fakeUserStore) ByID(int64) (store.User, bool, error)       { return store.User{}, false, nil }
func (f *fakeUserStore) Add(store.User) error                       { return nil }
func (f *fakeUserStore) SetStatus(int64, store.UserStatus, int64) error { return nil }
func (f *fakeUserStore) Delete(int64) error                         { return nil }
func (f *fakeUserStore) Pending() ([]store.User, error)             { return nil, nil }
func (f *fakeUserStore) Rejected() ([]store.User, error)            { return nil, nil }
func (f *fakeUserStore) Subjects() ([]string, error)                { return nil, nil }
func (f *fakeUserStore) Stats() (store.UserStats, error)            { return store.UserStats{}, nil }

func (f *fakeUserStore) Approved() ([]store.User, error) {
	var out []store.User
	for _, u := range f.users {
		if u.Status == store.StatusApproved {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) ApprovedBySubject(subject string) ([]store.User, error) {
	approved, _ := f.Approved()
	var out []store.User
	for _, u := range approved {
		if u.Subject == subject {
			out = append(out, u)
		}
	}
	return out, nil
}

func TestGroupsByTagsOrSemantics(t *testing.T) {
	gs := &fakeGroupStore{groups: []store.Group{
		{ID: 1, Title: "a", Tags: []string{"exams"}},
		{ID: 2, Title: "b", Tags: []string{"parents"}},
		{ID: 3, Title: "c", Tags: []string{"exams", "parents"}},
		{ID: 4, Title: "d"},
	}}

	targets, err := GroupsByTags(gs, []string{"exams", "parents"})
	if err != nil {
		t.Fatalf("GroupsByTags: %v", err)
	}
	if len(targets) != 3 {
		t.Fatalf("matched %d groups, want 3: %+v", len(targets), targets)
	}
	for _, tgt := range targets {
		if tgt.ID == 4 {
			t.Fatal("untagged group must not match")
		}
		if tgt.Kind != TargetGroup {
			t.Fatalf("kind = %s, want group", tgt.Kind)
		}
	}

	// a group with both tags appears once
	seen := map[int64]int{}
	for _, tgt := range targets {
		seen[tgt.ID]++
	}
	if seen[3] != 1 {
		t.Fatalf("group 3 matched %d times, want 1", seen[3])
	}
}

func TestGroupsByIDsReportsMissing(t *testing.T) {
	thread := 9
	gs := &fakeGroupStore{groups: []store.Group{
		{ID: 1, Title: "a", ThreadID: &thread},
		{ID: 2, Title: "b"},
	}}

	targets, notFound, err := GroupsByIDs(gs, []int64{1, 5, 2, 6})
	if err != nil {
		t.Fatalf("GroupsByIDs: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("found %d, want 2", len(targets))
	}
	if targets[0].ThreadID == nil || *targets[0].ThreadID != thread {
		t.Fatalf("thread not carried into target: %+v", targets[0])
	}
	if len(notFound) != 2 || notFound[0] != 5 || notFound[1] != 6 {
		t.Fatalf("notFound = %v, want [5 6]", notFound)
	}
}

func TestApprovedUserTargets(t *testing.T) {
	us := &fakeUserStore{users: []store.User{
		{ID: 1, LastName: "Petrov", FirstName: "Ivan", Patronymic: "S", Subject: "Math", Status: store.StatusApproved},
		{ID: 2, Subject: "Math", Status: store.StatusPending},
		{ID: 3, Subject: "Physics", Status: store.StatusApproved},
	}}

	targets, err := ApprovedUsers(us)
	if err != nil {
		t.Fatalf("ApprovedUsers: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("targets = %+v, want 2", targets)
	}
	if targets[0].Label != "Petrov Ivan S" {
		t.Fatalf("label = %q", targets[0].Label)
	}

	bySubject, err := ApprovedUsersBySubject(us, "Math")
	if err != nil {
		t.Fatalf("ApprovedUsersBySubject: %v", err)
	}
	if len(bySubject) != 1 || bySubject[0].ID != 1 {
		t.Fatalf("bySubject = %+v", bySubject)
	}
}
