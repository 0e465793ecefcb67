package admins

import (
	"errors"
	"testing"
)

type fakeAdminStore struct {
	ids     []int64
	saveErr error
	saves   int
}

func (f *fakeAdminStore) Load() ([]int64, error) {
	return append([]int64(nil), f.ids...), nil
}

func (f *fakeAdminStore) Save(ids []int64) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.ids = append([]int64(nil), ids...)
	return nil
}

func TestSeedOnEmptyStore(t *testing.T) {
	st := &fakeAdminStore{}
	r, err := NewRegistry(st, []int64{10, 20})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if !r.IsAdmin(10) || !r.IsAdmin(20) {
		t.Fatalf("seed not applied: %v", r.List())
	}
	if st.saves != 1 {
		t.Fatalf("seed should persist once, saves=%d", st.saves)
	}

	// a populated store ignores the seed
	r2, err := NewRegistry(st, []int64{99})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if r2.IsAdmin(99) {
		t.Fatal("seed must not apply over a populated store")
	}
}

func TestAddRejectsSelfAndDuplicates(t *testing.T) {
	st := &fakeAdminStore{ids: []int64{1}}
	r, err := NewRegistry(st, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if err := r.Add(1, 1); !errors.Is(err, ErrSelfAction) {
		t.Fatalf("self add err = %v, want ErrSelfAction", err)
	}
	if err := r.Add(1, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add(1, 2); !errors.Is(err, ErrAlreadyAdmin) {
		t.Fatalf("duplicate add err = %v, want ErrAlreadyAdmin", err)
	}
	if !r.IsAdmin(2) {
		t.Fatal("added admin missing")
	}
}

func TestRemoveInvariants(t *testing.T) {
	st := &fakeAdminStore{ids: []int64{1, 2}}
	r, err := NewRegistry(st, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if err := r.Remove(1, 1); !errors.Is(err, ErrSelfAction) {
		t.Fatalf("self remove err = %v, want ErrSelfAction", err)
	}
	if err := r.Remove(1, 99); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("remove outsider err = %v, want ErrNotAdmin", err)
	}
	if err := r.Remove(1, 2); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	// only admin 1 remains; removing it through another actor must fail
	if err := r.Remove(99, 1); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("last remove err = %v, want ErrLastAdmin", err)
	}
	if got := r.List(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("List = %v, want [1]", got)
	}
}

func TestMutationRevertsOnPersistFailure(t *testing.T) {
	st := &fakeAdminStore{ids: []int64{1, 2}}
	r, err := NewRegistry(st, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	st.saveErr = errors.New("disk full")
	if err := r.Add(1, 3); err == nil {
		t.Fatal("Add should surface persist failure")
	}
	if r.IsAdmin(3) {
		t.Fatal("failed add must revert in memory")
	}
	if err := r.Remove(1, 2); err == nil {
		t.Fatal("Remove should surface persist failure")
	}
	if !r.IsAdmin(2) {
		t.Fatal("failed remove must revert in memory")
	}
}
