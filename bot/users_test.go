package bot

import (
	"sort"
	"strings"
	"testing"

	"announcebot/store"
)

type fakeUserStore struct {
	users          map[int64]store.User
	setStatusCalls int
}

func newFakeUserStore(users ...store.User) *fakeUserStore {
	f := &fakeUserStore{users: make(map[int64]store.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserStore) List() ([]store.User, error) {
	out := make([]store.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserStore) ByID(id int64) (store.User, bool, error) {
	u, ok := f.users[id]
	return u, ok, nil
}

func (f *fakeUserStore) Add(u store.User) error {
	if _, ok := f.users[u.ID]; ok {
		return store.ErrUserExists
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserStore) SetStatus(id int64, status store.UserStatus, adminID int64) error {
	u, ok := f.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	f.setStatusCalls++
	u.Status = status
	switch status {
	case store.StatusApproved:
		u.ApprovedBy = &adminID
	case store.StatusRejected:
		u.RejectedBy = &adminID
	}
	f.users[id] = u
	return nil
}

func (f *fakeUserStore) Delete(id int64) error {
	if _, ok := f.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) byStatus(status store.UserStatus) ([]store.User, error) {
	all, _ := f.List()
	var out []store.User
	for _, u := range all {
		if u.Status == status {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) Pending() ([]store.User, error)  { return f.byStatus(store.StatusPending) }
func (f *fakeUserStore) Approved() ([]store.User, error) { return f.byStatus(store.StatusApproved) }
func (f *fakeUserStore) Rejected() ([]store.User, error) { return f.byStatus(store.StatusRejected) }

func (f *fakeUserStore) ApprovedBySubject(subject string) ([]store.User, error) {
	approved, _ := f.Approved()
	var out []store.User
	for _, u := range approved {
		if strings.EqualFold(u.Subject, subject) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) Subjects() ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, u := range f.users {
		if !seen[u.Subject] {
			seen[u.Subject] = true
			out = append(out, u.Subject)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeUserStore) Stats() (store.UserStats, error) {
	var s store.UserStats
	for _, u := range f.users {
		s.Total++
		switch u.Status {
		case store.StatusPending:
			s.Pending++
		case store.StatusApproved:
			s.Approved++
		case store.StatusRejected:
			s.Rejected++
		}
	}
	return s, nil
}

func testUser(id int64, status store.UserStatus) store.User {
	return store.User{
		ID: id, LastName: "Петров", FirstName: "Иван", Patronymic: "Сергеевич",
		Subject: "Математика", Status: status,
	}
}

func TestReviewUserApprovesPending(t *testing.T) {
	users := newFakeUserStore(testUser(7, store.StatusPending))
	b := &Bot{users: users}

	outcome, err := b.reviewUser(1, 7, store.StatusApproved)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(outcome.AdminText, "✅ Одобрено") {
		t.Fatalf("admin text = %q", outcome.AdminText)
	}
	if outcome.UserNote == nil || outcome.UserNote.ChatID != 7 {
		t.Fatalf("user note = %+v", outcome.UserNote)
	}
	u, _, _ := users.ByID(7)
	if u.Status != store.StatusApproved || u.ApprovedBy == nil || *u.ApprovedBy != 1 {
		t.Fatalf("stored user = %+v", u)
	}
}

func TestReviewUserOverwritesPriorDecision(t *testing.T) {
	users := newFakeUserStore(testUser(7, store.StatusRejected))
	b := &Bot{users: users}

	outcome, err := b.reviewUser(2, 7, store.StatusApproved)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(outcome.AdminText, "✅ Одобрено") {
		t.Fatalf("re-approval refused: %q", outcome.AdminText)
	}
	if outcome.UserNote == nil {
		t.Fatal("approved user should be notified")
	}
	u, _, _ := users.ByID(7)
	if u.Status != store.StatusApproved {
		t.Fatalf("status = %q, want approved", u.Status)
	}
}

func TestReviewUserRejectsDuplicateVerdict(t *testing.T) {
	users := newFakeUserStore(testUser(7, store.StatusApproved))
	b := &Bot{users: users}

	outcome, err := b.reviewUser(1, 7, store.StatusApproved)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(outcome.AdminText, "уже обработана") {
		t.Fatalf("admin text = %q", outcome.AdminText)
	}
	if outcome.UserNote != nil {
		t.Fatal("duplicate click must not notify the user")
	}
	if users.setStatusCalls != 0 {
		t.Fatalf("SetStatus called %d times", users.setStatusCalls)
	}
}

func TestReviewUserMissingUser(t *testing.T) {
	b := &Bot{users: newFakeUserStore()}
	outcome, err := b.reviewUser(1, 404, store.StatusApproved)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(outcome.AdminText, "не найдена") {
		t.Fatalf("admin text = %q", outcome.AdminText)
	}
}

func TestUsersViewFilters(t *testing.T) {
	pending := testUser(1, store.StatusPending)
	approved := testUser(2, store.StatusApproved)
	approved.LastName = "Сидорова"
	b := &Bot{users: newFakeUserStore(pending, approved)}

	p, err := b.usersView(filterPending)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.Text, "Ожидают одобрения") || !strings.Contains(p.Text, "Петров") {
		t.Fatalf("pending view = %q", p.Text)
	}
	if strings.Contains(p.Text, "Сидорова") {
		t.Fatalf("pending view leaked approved user: %q", p.Text)
	}

	if len(p.Buttons) != 2 {
		t.Fatalf("rows = %d, want filter row + one delete row", len(p.Buttons))
	}
	if len(p.Buttons[0]) != 4 || p.Buttons[0][0].Unique != cbUsersFilter {
		t.Fatalf("filter row = %+v", p.Buttons[0])
	}
	del := p.Buttons[1][0]
	if del.Unique != cbUserDelete || del.Data != "pending:1" {
		t.Fatalf("delete button = %+v", del)
	}
}

func TestUsersViewAllAndDelete(t *testing.T) {
	users := newFakeUserStore(
		testUser(1, store.StatusPending),
		testUser(2, store.StatusApproved),
		testUser(3, store.StatusRejected),
	)
	b := &Bot{users: users}

	p, err := b.usersView(filterAll)
	if err != nil {
		t.Fatal(err)
	}
	// filter row plus one delete row per user
	if len(p.Buttons) != 4 {
		t.Fatalf("rows = %d", len(p.Buttons))
	}

	filter, id, ok := parseDeletePayload(p.Buttons[2][0].Data)
	if !ok || filter != filterAll || id != 2 {
		t.Fatalf("payload %q parsed to filter=%q id=%d ok=%v", p.Buttons[2][0].Data, filter, id, ok)
	}
	if err := users.Delete(id); err != nil {
		t.Fatal(err)
	}

	p, err = b.usersView(filter)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Buttons) != 3 {
		t.Fatalf("rows after delete = %d", len(p.Buttons))
	}
	if strings.Contains(p.Text, "<code>2</code>") {
		t.Fatalf("deleted user still listed: %q", p.Text)
	}
}

func TestParseDeletePayloadRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "7", "all:", "all:x"} {
		if _, _, ok := parseDeletePayload(bad); ok {
			t.Fatalf("payload %q accepted", bad)
		}
	}
}
