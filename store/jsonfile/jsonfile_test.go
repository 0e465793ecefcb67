package jsonfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"announcebot/store"
)

func newStores(t *testing.T) *Stores {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestGroupLifecycle(t *testing.T) {
	s := newStores(t)

	g := store.Group{ID: -100123, Title: "Physics 10A", AddedAt: time.Now().UTC()}
	if err := s.Groups.Add(g); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Groups.Add(g); !errors.Is(err, store.ErrGroupExists) {
		t.Fatalf("duplicate Add err = %v, want ErrGroupExists", err)
	}

	if err := s.Groups.AddTag(g.ID, "exams"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	if err := s.Groups.AddTag(g.ID, "exams"); !errors.Is(err, store.ErrTagExists) {
		t.Fatalf("duplicate AddTag err = %v, want ErrTagExists", err)
	}
	if err := s.Groups.AddTag(999, "exams"); !errors.Is(err, store.ErrGroupNotFound) {
		t.Fatalf("AddTag unknown group err = %v, want ErrGroupNotFound", err)
	}

	thread := 42
	if err := s.Groups.SetThreadID(g.ID, &thread); err != nil {
		t.Fatalf("SetThreadID: %v", err)
	}
	got, ok, err := s.Groups.ByID(g.ID)
	if err != nil || !ok {
		t.Fatalf("ByID: ok=%v err=%v", ok, err)
	}
	if got.ThreadID == nil || *got.ThreadID != thread {
		t.Fatalf("ThreadID = %v, want %d", got.ThreadID, thread)
	}
	if !got.HasTag("exams") {
		t.Fatalf("tags = %v, want exams", got.Tags)
	}

	if err := s.Groups.SetThreadID(g.ID, nil); err != nil {
		t.Fatalf("reset thread: %v", err)
	}
	got, _, _ = s.Groups.ByID(g.ID)
	if got.ThreadID != nil {
		t.Fatalf("ThreadID should reset to nil, got %v", *got.ThreadID)
	}

	if err := s.Groups.RemoveTag(g.ID, "missing"); !errors.Is(err, store.ErrTagNotFound) {
		t.Fatalf("RemoveTag err = %v, want ErrTagNotFound", err)
	}
	if err := s.Groups.Remove(g.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Groups.Remove(g.ID); !errors.Is(err, store.ErrGroupNotFound) {
		t.Fatalf("second Remove err = %v, want ErrGroupNotFound", err)
	}
}

func TestGroupAllTags(t *testing.T) {
	s := newStores(t)
	for i, tags := range [][]string{{"b", "a"}, {"a", "c"}} {
		g := store.Group{ID: int64(i + 1), Title: "g", AddedAt: time.Now()}
		if err := s.Groups.Add(g); err != nil {
			t.Fatalf("Add: %v", err)
		}
		for _, tag := range tags {
			if err := s.Groups.AddTag(g.ID, tag); err != nil {
				t.Fatalf("AddTag: %v", err)
			}
		}
	}
	tags, err := s.Groups.AllTags()
	if err != nil {
		t.Fatalf("AllTags: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("tags = %v, want %v", tags, want)
		}
	}
}

func TestUserApprovalWorkflow(t *testing.T) {
	s := newStores(t)

	u := store.User{
		ID:           555,
		FirstName:    "Ivan",
		LastName:     "Petrov",
		Patronymic:   "Sergeevich",
		Subject:      "Math",
		Status:       store.StatusPending,
		RegisteredAt: time.Now().UTC(),
	}
	if err := s.Users.Add(u); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Users.Add(u); !errors.Is(err, store.ErrUserExists) {
		t.Fatalf("duplicate Add err = %v, want ErrUserExists", err)
	}

	pending, err := s.Users.Pending()
	if err != nil || len(pending) != 1 {
		t.Fatalf("Pending = %v, %v", pending, err)
	}

	if err := s.Users.SetStatus(u.ID, store.StatusApproved, 42); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, ok, err := s.Users.ByID(u.ID)
	if err != nil || !ok {
		t.Fatalf("ByID: ok=%v err=%v", ok, err)
	}
	if got.Status != store.StatusApproved {
		t.Fatalf("status = %s, want approved", got.Status)
	}
	if got.ApprovedBy == nil || *got.ApprovedBy != 42 || got.ApprovedAt == nil {
		t.Fatalf("approval stamps missing: %+v", got)
	}

	// re-review overwrites the decision
	if err := s.Users.SetStatus(u.ID, store.StatusRejected, 43); err != nil {
		t.Fatalf("SetStatus reject: %v", err)
	}
	got, _, _ = s.Users.ByID(u.ID)
	if got.Status != store.StatusRejected || got.RejectedBy == nil || *got.RejectedBy != 43 {
		t.Fatalf("re-review not applied: %+v", got)
	}

	if err := s.Users.SetStatus(999, store.StatusApproved, 42); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("SetStatus unknown err = %v, want ErrUserNotFound", err)
	}
}

func TestApprovedBySubjectIsCaseInsensitive(t *testing.T) {
	s := newStores(t)
	add := func(id int64, subject string, status store.UserStatus) {
		t.Helper()
		err := s.Users.Add(store.User{ID: id, Subject: subject, Status: status, RegisteredAt: time.Now()})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	add(1, "Math", store.StatusApproved)
	add(2, "math", store.StatusApproved)
	add(3, "Math", store.StatusPending)
	add(4, "Physics", store.StatusApproved)

	got, err := s.Users.ApprovedBySubject("MATH")
	if err != nil {
		t.Fatalf("ApprovedBySubject: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("matched %d users, want 2: %+v", len(got), got)
	}

	stats, err := s.Users.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 4 || stats.Approved != 3 || stats.Pending != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestTemplateOverwriteAndDelete(t *testing.T) {
	s := newStores(t)

	if err := s.Templates.Save(store.Template{Name: "greeting", Text: "hello"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Templates.Save(store.Template{Name: "greeting", Text: "updated"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, ok, err := s.Templates.Get("greeting")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Text != "updated" {
		t.Fatalf("text = %q, want updated", got.Text)
	}
	exists, err := s.Templates.Exists("greeting")
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v", exists, err)
	}
	if err := s.Templates.Delete("greeting"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Templates.Delete("greeting"); !errors.Is(err, store.ErrTemplateNotFound) {
		t.Fatalf("second Delete err = %v, want ErrTemplateNotFound", err)
	}
}

func TestAdminStoreRoundTrip(t *testing.T) {
	s := newStores(t)
	ids, err := s.Admins.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("fresh store should be empty, got %v", ids)
	}
	if err := s.Admins.Save([]int64{1, 2, 3}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ids, err = s.Admins.Load()
	if err != nil || len(ids) != 3 {
		t.Fatalf("Load = %v, %v", ids, err)
	}
}

func TestCollectionFilesAutoCreated(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Groups.List(); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "groups.json")); err != nil {
		t.Fatalf("groups.json not created: %v", err)
	}
}
