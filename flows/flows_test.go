package flows

import (
	"strings"
	"testing"

	"announcebot/admins"
	"announcebot/broadcast"
	"announcebot/core/telegram/state"
	"announcebot/store"
)

type fakeUserStore struct {
	users map[int64]store.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]store.User)}
}

func (f *fakeUserStore) List() ([]store.User, error) { return nil, nil }

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

func (f *fakeUserStore) SetStatus(int64, store.UserStatus, int64) error { return nil }
func (f *fakeUserStore) Delete(int64) error                            { return nil }
func (f *fakeUserStore) Pending() ([]store.User, error)                { return nil, nil }
func (f *fakeUserStore) Approved() ([]store.User, error)               { return nil, nil }
func (f *fakeUserStore) Rejected() ([]store.User, error)               { return nil, nil }
func (f *fakeUserStore) ApprovedBySubject(string) ([]store.User, error) {
	return nil, nil
}
func (f *fakeUserStore) Subjects() ([]string, error)     { return nil, nil }
func (f *fakeUserStore) Stats() (store.UserStats, error) { return store.UserStats{}, nil }

type fakeAdminList struct{ ids []int64 }

func (f fakeAdminList) List() []int64 { return f.ids }

type memAdminStore struct{ ids []int64 }

func (m *memAdminStore) Load() ([]int64, error) { return m.ids, nil }
func (m *memAdminStore) Save(ids []int64) error { m.ids = ids; return nil }

type fakeGroupStore struct {
	groups map[int64]store.Group
}

func newFakeGroupStore(groups ...store.Group) *fakeGroupStore {
	f := &fakeGroupStore{groups: make(map[int64]store.Group)}
	for _, g := range groups {
		f.groups[g.ID] = g
	}
	return f
}

func (f *fakeGroupStore) List() ([]store.Group, error) { return nil, nil }

func (f *fakeGroupStore) ByID(id int64) (store.Group, bool, error) {
	g, ok := f.groups[id]
	return g, ok, nil
}

func (f *fakeGroupStore) Add(g store.Group) error {
	if _, ok := f.groups[g.ID]; ok {
		return store.ErrGroupExists
	}
	f.groups[g.ID] = g
	return nil
}

func (f *fakeGroupStore) Remove(id int64) error {
	if _, ok := f.groups[id]; !ok {
		return store.ErrGroupNotFound
	}
	delete(f.groups, id)
	return nil
}

func (f *fakeGroupStore) AddTag(int64, string) error    { return nil }
func (f *fakeGroupStore) RemoveTag(int64, string) error { return nil }
func (f *fakeGroupStore) SetThreadID(int64, *int) error { return nil }
func (f *fakeGroupStore) AllTags() ([]string, error)    { return nil, nil }

func TestRegisterWalkthrough(t *testing.T) {
	users := newFakeUserStore()
	c := &RegisterController{
		Users:  users,
		Admins: fakeAdminList{ids: []int64{100, 200}},
		States: state.NewManager(),
	}

	p, err := c.Start(7)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.Contains(p.Text, "Шаг 1 из 4") {
		t.Fatalf("start prompt = %q", p.Text)
	}

	for _, step := range []struct{ input, wantNext string }{
		{"Петров", "Шаг 2 из 4"},
		{"Иван", "Шаг 3 из 4"},
		{"Сергеевич", "Шаг 4 из 4"},
	} {
		p, err = c.HandleText(7, step.input)
		if err != nil {
			t.Fatalf("HandleText(%q): %v", step.input, err)
		}
		if !strings.Contains(p.Text, step.wantNext) {
			t.Fatalf("after %q prompt = %q, want %q", step.input, p.Text, step.wantNext)
		}
	}

	p, err = c.HandleText(7, "Математика")
	if err != nil {
		t.Fatalf("subject: %v", err)
	}
	if len(p.Buttons) != 1 || len(p.Buttons[0]) != 2 {
		t.Fatalf("confirm prompt should carry two buttons: %+v", p.Buttons)
	}
	if p.Buttons[0][0].Unique != CbRegisterConfirm {
		t.Fatalf("confirm unique = %q", p.Buttons[0][0].Unique)
	}
	if !strings.Contains(p.Text, "Петров") || !strings.Contains(p.Text, "Математика") {
		t.Fatalf("summary missing data: %q", p.Text)
	}

	p, notes, err := c.Confirm(7)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !strings.Contains(p.Text, "Заявка отправлена") {
		t.Fatalf("confirm reply = %q", p.Text)
	}
	if len(notes) != 2 {
		t.Fatalf("admin notifications = %d, want 2", len(notes))
	}
	if notes[0].ChatID != 100 || notes[1].ChatID != 200 {
		t.Fatalf("notification chats = %+v", notes)
	}
	if notes[0].Buttons[0][0].Data != "7" {
		t.Fatalf("approve payload = %q, want user id", notes[0].Buttons[0][0].Data)
	}

	u, ok := users.users[7]
	if !ok {
		t.Fatal("user not stored")
	}
	if u.Status != store.StatusPending || u.FullName() != "Петров Иван Сергеевич" {
		t.Fatalf("stored user = %+v", u)
	}
	if c.States.Has(7) {
		t.Fatal("state should be cleared after confirm")
	}
}

func TestRegisterRepromptsOnInvalidInput(t *testing.T) {
	c := &RegisterController{
		Users:  newFakeUserStore(),
		Admins: fakeAdminList{},
		States: state.NewManager(),
	}
	if _, err := c.Start(7); err != nil {
		t.Fatal(err)
	}

	p, err := c.HandleText(7, "   ")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.Text, "от 1 до 50") {
		t.Fatalf("empty input should re-prompt, got %q", p.Text)
	}

	p, err = c.HandleText(7, strings.Repeat("а", 51))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.Text, "от 1 до 50") {
		t.Fatalf("overlong input should re-prompt, got %q", p.Text)
	}

	// still on step 1
	p, err = c.HandleText(7, "Петров")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.Text, "Шаг 2 из 4") {
		t.Fatalf("valid input after re-prompts should advance, got %q", p.Text)
	}
}

func TestRegisterRejectsExistingUser(t *testing.T) {
	users := newFakeUserStore()
	users.users[7] = store.User{ID: 7, Status: store.StatusPending}
	c := &RegisterController{Users: users, Admins: fakeAdminList{}, States: state.NewManager()}

	p, err := c.Start(7)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.Text, "ожидает рассмотрения") {
		t.Fatalf("pending user prompt = %q", p.Text)
	}
	if c.States.Has(7) {
		t.Fatal("no state should be opened for an already registered user")
	}
}

func TestAddAdminValidation(t *testing.T) {
	reg, err := admins.NewRegistry(&memAdminStore{ids: []int64{1, 2}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	c := &AdminController{Registry: reg, States: state.NewManager()}

	c.StartAdd(1)
	if p := c.HandleAddText(1, "abc"); !strings.Contains(p.Text, "числовой ID") {
		t.Fatalf("non-numeric input: %q", p.Text)
	}
	if p := c.HandleAddText(1, "1"); !strings.Contains(p.Text, "самого себя") {
		t.Fatalf("self target: %q", p.Text)
	}
	if p := c.HandleAddText(1, "2"); !strings.Contains(p.Text, "уже администратор") {
		t.Fatalf("existing admin: %q", p.Text)
	}

	p := c.HandleAddText(1, "3")
	if len(p.Buttons) == 0 || p.Buttons[0][0].Unique != CbAdminAddConfirm {
		t.Fatalf("valid id should ask for confirmation: %+v", p)
	}

	p, err = c.ConfirmAdd(1)
	if err != nil {
		t.Fatal(err)
	}
	if !reg.IsAdmin(3) {
		t.Fatal("confirm should grant admin rights")
	}
	if c.States.Has(1) {
		t.Fatal("state should be cleared after confirm")
	}
	_ = p
}

func TestRemoveAdminLastAdminSurfaced(t *testing.T) {
	reg, err := admins.NewRegistry(&memAdminStore{ids: []int64{1, 2}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	c := &AdminController{Registry: reg, States: state.NewManager()}

	c.StartRemove(1)
	c.HandleRemoveText(1, "2")
	if _, err := c.ConfirmRemove(1); err != nil {
		t.Fatal(err)
	}
	if reg.IsAdmin(2) {
		t.Fatal("remove should revoke rights")
	}

	// registry now holds only admin 1; a second admin cannot shrink it
	// to zero even through the dialog
	reg2, err := admins.NewRegistry(&memAdminStore{ids: []int64{1}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	c2 := &AdminController{Registry: reg2, States: state.NewManager()}
	c2.StartRemove(99)
	p := c2.HandleRemoveText(99, "1")
	if len(p.Buttons) == 0 {
		t.Fatalf("existing admin should reach confirmation: %+v", p)
	}
	p, err = c2.ConfirmRemove(99)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.Text, "последнего администратора") {
		t.Fatalf("last admin removal should be refused: %q", p.Text)
	}
	if !reg2.IsAdmin(1) {
		t.Fatal("last admin must survive")
	}
}

func TestMediaFlowTagVariant(t *testing.T) {
	c := &AnnounceController{States: state.NewManager()}

	p := c.StartMedia(1, Audience{Kind: AudienceGroupTags})
	if !strings.Contains(p.Text, "теги") {
		t.Fatalf("tag variant should ask for tags first: %q", p.Text)
	}

	if p = c.HandleMediaTags(1, "   "); !strings.Contains(p.Text, "хотя бы один тег") {
		t.Fatalf("empty tags should re-prompt: %q", p.Text)
	}
	p = c.HandleMediaTags(1, "exams parents")
	if !strings.Contains(p.Text, "Отправьте фото") {
		t.Fatalf("after tags should ask for attachment: %q", p.Text)
	}

	media := broadcast.Media{Kind: broadcast.MediaPhoto, FileID: "f1", Caption: "hi"}
	p = c.HandleMedia(1, media, 3)
	if len(p.Buttons) == 0 || p.Buttons[0][0].Unique != CbAnnounceConfirm {
		t.Fatalf("attachment should reach confirmation: %+v", p)
	}

	pending, ok := c.TakeConfirmed(1)
	if !ok {
		t.Fatal("staged announcement lost")
	}
	if pending.Audience.Kind != AudienceGroupTags || len(pending.Audience.Tags) != 2 {
		t.Fatalf("audience = %+v", pending.Audience)
	}
	if pending.Payload.Media == nil || pending.Payload.Media.FileID != "f1" {
		t.Fatalf("payload = %+v", pending.Payload)
	}
	if c.States.Has(1) {
		t.Fatal("state should be cleared after take")
	}
}

func TestStageTextRoundTrip(t *testing.T) {
	c := &AnnounceController{States: state.NewManager()}

	p := c.StageText(1, Audience{Kind: AudienceAllGroups}, "hello", 4)
	if !strings.Contains(p.Text, "Получателей: <b>4</b>") {
		t.Fatalf("confirm prompt = %q", p.Text)
	}

	pending, ok := c.TakeConfirmed(1)
	if !ok || pending.Payload.Text != "hello" {
		t.Fatalf("pending = %+v ok=%v", pending, ok)
	}

	if _, ok := c.TakeConfirmed(1); ok {
		t.Fatal("second take should fail")
	}
}

func TestAddGroupWalkthrough(t *testing.T) {
	groups := newFakeGroupStore(store.Group{ID: -100500, Title: "Старая"})
	c := &GroupController{Groups: groups, States: state.NewManager()}

	p := c.StartAdd(1)
	if !strings.Contains(p.Text, "ID группы") {
		t.Fatalf("start prompt = %q", p.Text)
	}

	// invalid IDs keep the dialog waiting for an ID
	for _, bad := range []string{"abc", "0", "-100500"} {
		p, err := c.HandleAddText(1, bad)
		if err != nil {
			t.Fatalf("HandleAddText(%q): %v", bad, err)
		}
		if strings.Contains(p.Text, "название") {
			t.Fatalf("input %q must not advance to the title step: %q", bad, p.Text)
		}
	}

	p, err := c.HandleAddText(1, "-1001234567890")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.Text, "название группы") {
		t.Fatalf("valid id should ask for the title: %q", p.Text)
	}

	// blank and overlong titles re-prompt in place
	for _, bad := range []string{"   ", strings.Repeat("я", 129)} {
		p, err = c.HandleAddText(1, bad)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(p.Text, "от 1 до 128") {
			t.Fatalf("title %q should re-prompt: %q", bad, p.Text)
		}
	}

	p, err = c.HandleAddText(1, "Родительский чат")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Buttons) != 1 || p.Buttons[0][0].Unique != CbGroupAddConfirm {
		t.Fatalf("title should reach confirmation: %+v", p)
	}

	p, err = c.ConfirmAdd(1)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.Text, "добавлена") {
		t.Fatalf("confirm reply = %q", p.Text)
	}
	g, ok := groups.groups[-1001234567890]
	if !ok {
		t.Fatal("group not stored")
	}
	if g.Title != "Родительский чат" || !g.AddedManually || g.AddedAt.IsZero() {
		t.Fatalf("stored group = %+v", g)
	}
	if c.States.Has(1) {
		t.Fatal("state should be cleared after confirm")
	}
}

func TestRemoveGroupWalkthrough(t *testing.T) {
	groups := newFakeGroupStore(store.Group{ID: -100500, Title: "Старая"})
	c := &GroupController{Groups: groups, States: state.NewManager()}

	c.StartRemove(1)
	p, err := c.HandleRemoveText(1, "-42")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.Text, "не зарегистрирована") {
		t.Fatalf("unknown id should re-prompt: %q", p.Text)
	}

	p, err = c.HandleRemoveText(1, "-100500")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Buttons) != 1 || p.Buttons[0][0].Unique != CbGroupRemoveConfirm {
		t.Fatalf("known id should reach confirmation: %+v", p)
	}

	p, err = c.ConfirmRemove(1)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.Text, "удалена") {
		t.Fatalf("confirm reply = %q", p.Text)
	}
	if _, ok := groups.groups[-100500]; ok {
		t.Fatal("group should be removed")
	}
	if c.States.Has(1) {
		t.Fatal("state should be cleared after confirm")
	}
}
