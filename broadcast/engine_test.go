package broadcast

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type sentCall struct {
	chatID   int64
	threadID *int
}

type fakeTransport struct {
	calls []sentCall
	// errs maps chat ID to the errors to return, consumed in order.
	errs map[int64][]error
}

func (f *fakeTransport) Send(_ context.Context, t Target, _ Payload, threadID *int) error {
	f.calls = append(f.calls, sentCall{chatID: t.ID, threadID: threadID})
	queue := f.errs[t.ID]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	f.errs[t.ID] = queue[1:]
	return err
}

type fakeClearer struct {
	cleared []int64
}

func (f *fakeClearer) SetThreadID(id int64, threadID *int) error {
	if threadID == nil {
		f.cleared = append(f.cleared, id)
	}
	return nil
}

func groupTargets(ids ...int64) []Target {
	out := make([]Target, 0, len(ids))
	for _, id := range ids {
		out = append(out, Target{Kind: TargetGroup, ID: id, Label: "group"})
	}
	return out
}

func userTargets(ids ...int64) []Target {
	out := make([]Target, 0, len(ids))
	for _, id := range ids {
		out = append(out, Target{Kind: TargetUser, ID: id, Label: "user"})
	}
	return out
}

func newTestEngine(tr Transport, clearer ThreadClearer) *Engine {
	e := NewEngine(Options{Transport: tr, Groups: clearer, UserDelay: time.Millisecond})
	e.sleep = func(time.Duration) {}
	return e
}

func TestRunVisitsEveryTargetDespiteFailures(t *testing.T) {
	tr := &fakeTransport{errs: map[int64][]error{
		2: {errors.New("boom")},
	}}
	e := newTestEngine(tr, nil)

	report := e.Run(context.Background(), groupTargets(1, 2, 3), Payload{Text: "hi"}, nil)

	if len(tr.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(tr.calls))
	}
	if report.Sent != 2 || report.Failed != 1 || report.Blocked != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], "(2)") {
		t.Fatalf("errors = %v", report.Errors)
	}
	if report.Sent+report.Failed+report.Blocked != report.Total {
		t.Fatalf("totals do not add up: %+v", report)
	}
}

func TestStaleThreadRetriesOnceWithoutTopic(t *testing.T) {
	thread := 77
	staleErr := &tele.Error{Code: 400, Description: "Bad Request: message thread not found"}
	tr := &fakeTransport{errs: map[int64][]error{
		1: {staleErr},
	}}
	clearer := &fakeClearer{}
	e := newTestEngine(tr, clearer)

	target := Target{Kind: TargetGroup, ID: 1, Label: "forum", ThreadID: &thread}
	report := e.Run(context.Background(), []Target{target}, Payload{Text: "hi"}, nil)

	if report.Sent != 1 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(tr.calls) != 2 {
		t.Fatalf("calls = %d, want 2 (original + retry)", len(tr.calls))
	}
	if tr.calls[0].threadID == nil || *tr.calls[0].threadID != thread {
		t.Fatalf("first send should target the topic, got %v", tr.calls[0].threadID)
	}
	if tr.calls[1].threadID != nil {
		t.Fatalf("retry should drop the topic, got %v", *tr.calls[1].threadID)
	}
	if len(clearer.cleared) != 1 || clearer.cleared[0] != 1 {
		t.Fatalf("stored thread not cleared: %v", clearer.cleared)
	}
}

func TestStaleThreadRetryFailureCountsAsFailed(t *testing.T) {
	thread := 77
	staleErr := &tele.Error{Code: 400, Description: "Bad Request: message thread not found"}
	tr := &fakeTransport{errs: map[int64][]error{
		1: {staleErr, errors.New("still broken")},
	}}
	e := newTestEngine(tr, &fakeClearer{})

	target := Target{Kind: TargetGroup, ID: 1, Label: "forum", ThreadID: &thread}
	report := e.Run(context.Background(), []Target{target}, Payload{Text: "hi"}, nil)

	if report.Failed != 1 || report.Sent != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(tr.calls) != 2 {
		t.Fatalf("calls = %d, want 2 (no second retry)", len(tr.calls))
	}
}

func TestBlockedUsersAreCountedNotRetried(t *testing.T) {
	blockedErr := &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}
	tr := &fakeTransport{errs: map[int64][]error{
		2: {blockedErr},
	}}
	e := newTestEngine(tr, nil)

	report := e.Run(context.Background(), userTargets(1, 2, 3), Payload{Text: "hi"}, nil)

	if report.Sent != 2 || report.Blocked != 1 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Errors) != 0 {
		t.Fatalf("blocked users must not produce error lines: %v", report.Errors)
	}
	if len(tr.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(tr.calls))
	}
}

func TestBlockedGroupCountsAsFailure(t *testing.T) {
	kicked := &tele.Error{Code: 403, Description: "Forbidden: bot was kicked from the group chat"}
	tr := &fakeTransport{errs: map[int64][]error{
		1: {kicked},
	}}
	e := newTestEngine(tr, nil)

	report := e.Run(context.Background(), groupTargets(1), Payload{Text: "hi"}, nil)
	if report.Failed != 1 || report.Blocked != 0 {
		t.Fatalf("403 on a group target must count as failure: %+v", report)
	}
}

func TestProgressCadence(t *testing.T) {
	tr := &fakeTransport{}
	e := newTestEngine(tr, nil)

	var ticks []int
	targets := userTargets(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	e.Run(context.Background(), targets, Payload{Text: "hi"}, func(p Progress) {
		ticks = append(ticks, p.Done)
	})

	want := []int{5, 10, 12}
	if len(ticks) != len(want) {
		t.Fatalf("ticks = %v, want %v", ticks, want)
	}
	for i := range want {
		if ticks[i] != want[i] {
			t.Fatalf("ticks = %v, want %v", ticks, want)
		}
	}
}

func TestCancellationStopsBetweenTargets(t *testing.T) {
	tr := &fakeTransport{}
	e := newTestEngine(tr, nil)

	ctx, cancel := context.WithCancel(context.Background())
	n := 0
	e.sleep = func(time.Duration) {
		n++
		if n == 2 {
			cancel()
		}
	}

	report := e.Run(ctx, userTargets(1, 2, 3, 4, 5), Payload{Text: "hi"}, nil)
	if !report.Cancelled {
		t.Fatal("report should be marked cancelled")
	}
	if report.Sent != 2 {
		t.Fatalf("sent = %d, want 2", report.Sent)
	}
	if len(tr.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(tr.calls))
	}
}
