package state

import (
	"testing"
	"time"
)

type fakeFlowA struct{ Step string }

func (fakeFlowA) FlowName() string { return "fake_a" }

type fakeFlowB struct{}

func (fakeFlowB) FlowName() string { return "fake_b" }

func TestSetReplacesActiveFlow(t *testing.T) {
	m := NewManager()
	m.Set(1, fakeFlowA{Step: "first"})
	m.Set(1, fakeFlowB{})

	flow, ok := m.Get(1)
	if !ok {
		t.Fatal("expected active session")
	}
	if _, isB := flow.(fakeFlowB); !isB {
		t.Fatalf("expected fakeFlowB, got %T", flow)
	}
	if m.Has(2) {
		t.Fatal("unrelated user should have no session")
	}
}

func TestUpdateAbsentIsNoop(t *testing.T) {
	m := NewManager()
	called := false
	if m.Update(7, func(f FlowState) FlowState {
		called = true
		return f
	}) {
		t.Fatal("Update on absent session should report false")
	}
	if called {
		t.Fatal("mutate must not run without a session")
	}
	if m.Has(7) {
		t.Fatal("Update must not create a session")
	}
}

func TestUpdateKeepsCreatedAt(t *testing.T) {
	m := NewManager()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	m.Set(1, fakeFlowA{Step: "first"})

	m.now = func() time.Time { return base.Add(30 * time.Minute) }
	if !m.Update(1, func(f FlowState) FlowState {
		fa := f.(fakeFlowA)
		fa.Step = "second"
		return fa
	}) {
		t.Fatal("expected update to apply")
	}

	flow, _ := m.Get(1)
	if flow.(fakeFlowA).Step != "second" {
		t.Fatalf("mutation lost: %+v", flow)
	}
	// 40 more minutes puts the original stamp past a 1h TTL even though
	// the update was recent.
	m.now = func() time.Time { return base.Add(70 * time.Minute) }
	if removed := m.SweepExpired(time.Hour); removed != 1 {
		t.Fatalf("expected session swept by original CreatedAt, removed=%d", removed)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	m := NewManager()
	m.Set(1, fakeFlowA{})
	m.Clear(1)
	m.Clear(1)
	if m.Has(1) {
		t.Fatal("session should be gone")
	}
}

func TestSweepExpired(t *testing.T) {
	m := NewManager()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	m.now = func() time.Time { return base }
	m.Set(1, fakeFlowA{})
	m.now = func() time.Time { return base.Add(59 * time.Minute) }
	m.Set(2, fakeFlowB{})

	m.now = func() time.Time { return base.Add(61 * time.Minute) }
	removed := m.SweepExpired(time.Hour)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if m.Has(1) {
		t.Fatal("stale session survived sweep")
	}
	if !m.Has(2) {
		t.Fatal("fresh session swept")
	}
}
