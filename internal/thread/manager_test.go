// manager_test.go — Dispatcher tests against the in-memory page.
// Covers every branch of load/delete/rename and the exactly-once completion contract.
package thread

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dev-console/convmanage/internal/page"
	"github.com/dev-console/convmanage/internal/page/fakepage"
)

func newTestManager(fp *fakepage.Page) *Manager {
	return NewManager(fp.Handle(), Options{SettleDelay: time.Millisecond})
}

// manageOnce drives the string-contract entry point and counts completions.
// It waits a little after the first completion so a stray second call would be seen.
func manageOnce(t *testing.T, m *Manager, action, identifier string) (string, int) {
	t.Helper()
	var calls atomic.Int32
	first := make(chan string, 4)
	m.Manage(context.Background(), action, identifier, func(s string) {
		calls.Add(1)
		first <- s
	})

	var got string
	select {
	case got = <-first:
	case <-time.After(5 * time.Second):
		t.Fatalf("%s(%q) never completed", action, identifier)
	}
	time.Sleep(20 * time.Millisecond)
	return got, int(calls.Load())
}

func TestLoadScenario(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning", "Recipe ideas")
	m := newTestManager(fp)

	got, calls := manageOnce(t, m, "load", "Trip planning")
	if got != "Trip planning" {
		t.Errorf("completion = %q, want 'Trip planning'", got)
	}
	if calls != 1 {
		t.Errorf("completion called %d times, want 1", calls)
	}
	if fp.Active() != 0 {
		t.Errorf("active entry = %d, want 0", fp.Active())
	}
	if n := fp.Count(fakepage.EventPrimary); n != 1 {
		t.Errorf("primary control activated %d times, want 1", n)
	}
}

func TestLoadEveryPresentIdentifier(t *testing.T) {
	t.Parallel()
	names := []string{"Trip planning", "Recipe ideas", "Tax questions", "Trip"}
	for i, name := range names {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			fp := fakepage.New(names...)
			res := newTestManager(fp).Do(context.Background(), Request{Action: ActionLoad, Identifier: name})
			if res.Status != StatusOK || res.Identifier != name {
				t.Fatalf("result = %+v, want ok/%q", res, name)
			}
			if fp.Active() != i {
				t.Errorf("active entry = %d, want %d", fp.Active(), i)
			}
		})
	}
}

func TestLoadIsExactMatch(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning")
	m := newTestManager(fp)

	got, calls := manageOnce(t, m, "load", "Trip")
	if got != NotFoundWire {
		t.Errorf("completion = %q, want %q", got, NotFoundWire)
	}
	if calls != 1 {
		t.Errorf("completion called %d times, want 1", calls)
	}
	if fp.Count(fakepage.EventPrimary) != 0 || fp.Count(fakepage.EventFocus) != 0 {
		t.Error("not-found branch must not touch any entry")
	}
}

func TestLoadScrollsEachExaminedEntry(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning", "Recipe ideas", "Tax questions")
	newTestManager(fp).Do(context.Background(), Request{Action: ActionLoad, Identifier: "Recipe ideas"})

	var scrolled []int
	for _, e := range fp.Events() {
		if e.Kind == fakepage.EventScroll {
			scrolled = append(scrolled, e.Index)
		}
	}
	if len(scrolled) != 2 || scrolled[0] != 0 || scrolled[1] != 1 {
		t.Errorf("scrolled entries = %v, want [0 1]", scrolled)
	}
}

func TestDeleteFirstSubstringMatch(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning", "Recipe ideas", "Recipe box")
	m := newTestManager(fp)

	got, calls := manageOnce(t, m, "delete", "Recipe")
	if got != "Recipe" {
		t.Errorf("completion = %q, want 'Recipe'", got)
	}
	if calls != 1 {
		t.Errorf("completion called %d times, want 1", calls)
	}
	want := []string{"Trip planning", "Recipe box"}
	if names := fp.Names(); strings.Join(names, "|") != strings.Join(want, "|") {
		t.Errorf("names after delete = %v, want %v", names, want)
	}
}

func TestDeleteNotFoundScenario(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning")
	m := newTestManager(fp)

	got, calls := manageOnce(t, m, "delete", "recipe")
	if got != NotFoundWire {
		t.Errorf("completion = %q, want %q", got, NotFoundWire)
	}
	if calls != 1 {
		t.Errorf("completion called %d times, want 1", calls)
	}
	if fp.Count(fakepage.EventDelete) != 0 {
		t.Error("nothing should be deleted when no entry matches")
	}
	if len(fp.Names()) != 1 {
		t.Errorf("list changed: %v", fp.Names())
	}
}

func TestRenameScenario(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Old name")
	m := newTestManager(fp)

	got, calls := manageOnce(t, m, "rename", "New name")
	if got != "New name" {
		t.Errorf("completion = %q, want 'New name'", got)
	}
	if calls != 1 {
		t.Errorf("completion called %d times, want 1", calls)
	}
	if names := fp.Names(); names[0] != "New name" {
		t.Errorf("entry 0 name = %q, want 'New name'", names[0])
	}
}

func TestRenameTargetsFirstEntryRegardlessOfName(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Newest", "New name", "Oldest")
	res := newTestManager(fp).Do(context.Background(), Request{Action: ActionRename, Identifier: "New name"})
	if res.Status != StatusOK {
		t.Fatalf("rename failed: %+v", res)
	}
	want := []string{"New name", "New name", "Oldest"}
	if names := fp.Names(); strings.Join(names, "|") != strings.Join(want, "|") {
		t.Errorf("names = %v, want %v", names, want)
	}
	// Focus, edit, set, confirm all landed on index 0.
	for _, e := range fp.Events() {
		switch e.Kind {
		case fakepage.EventFocus, fakepage.EventEdit, fakepage.EventSetName, fakepage.EventConfirm:
			if e.Index != 0 {
				t.Errorf("%s landed on entry %d, want 0", e.Kind, e.Index)
			}
		}
	}
	if fp.Count(fakepage.EventShowAll) != 0 {
		t.Error("rename must not expand the list")
	}
}

func TestRenameEmptyListIsTraversalError(t *testing.T) {
	t.Parallel()
	fp := fakepage.New()
	res := newTestManager(fp).Do(context.Background(), Request{Action: ActionRename, Identifier: "x"})
	if res.Status != StatusError || res.Kind != KindTraversal {
		t.Fatalf("result = %+v, want traversal error", res)
	}
	if !errors.Is(res.Err(), ErrTraversal) {
		t.Errorf("Err() = %v, want ErrTraversal", res.Err())
	}
}

func TestUnrecognizedActionCompletesWithError(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning")
	m := newTestManager(fp)

	got, calls := manageOnce(t, m, "archive", "Trip planning")
	if !strings.HasPrefix(got, "Error: ") || !strings.Contains(got, "archive") {
		t.Errorf("completion = %q, want an unrecognized-action error", got)
	}
	if calls != 1 {
		t.Errorf("completion called %d times, want 1", calls)
	}

	res := m.Do(context.Background(), Request{Action: "archive", Identifier: "x"})
	if res.Kind != KindUnrecognizedAction {
		t.Errorf("kind = %q, want %q", res.Kind, KindUnrecognizedAction)
	}
	if !errors.Is(res.Err(), ErrUnrecognizedAction) {
		t.Errorf("Err() = %v, want ErrUnrecognizedAction", res.Err())
	}
	if len(fp.Events()) != 0 {
		t.Errorf("unrecognized action touched the page: %v", fp.Events())
	}
}

func TestActionsAreCaseSensitive(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning")
	res := newTestManager(fp).Do(context.Background(), Request{Action: "LOAD", Identifier: "Trip planning"})
	if res.Kind != KindUnrecognizedAction {
		t.Errorf("LOAD should be unrecognized, got %+v", res)
	}
}

func TestPanicInPageBecomesException(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning")
	fp.PanicOnPrimary = true
	m := newTestManager(fp)

	got, calls := manageOnce(t, m, "load", "Trip planning")
	if !strings.HasPrefix(got, "Error: ") || !strings.Contains(got, "primary control detached") {
		t.Errorf("completion = %q, want stringified panic", got)
	}
	if calls != 1 {
		t.Errorf("completion called %d times, want 1", calls)
	}

	res := m.Do(context.Background(), Request{Action: ActionLoad, Identifier: "Trip planning"})
	if res.Kind != KindException || !errors.Is(res.Err(), ErrException) {
		t.Errorf("result = %+v, want exception", res)
	}
}

func TestMissingContainerIsTraversalError(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning")
	fp.LocateErr = fmt.Errorf("%w: cib-side-panel has no shadow root", page.ErrStructure)

	for _, action := range []Action{ActionLoad, ActionDelete, ActionRename} {
		res := newTestManager(fp).Do(context.Background(), Request{Action: action, Identifier: "Trip planning"})
		if res.Status != StatusError || res.Kind != KindTraversal {
			t.Errorf("%s: result = %+v, want traversal error", action, res)
		}
		if !strings.Contains(res.Message, "cib-side-panel") {
			t.Errorf("%s: message %q should carry the cause", action, res.Message)
		}
	}
}

func TestNameReadFailureIsTraversalError(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning", "Recipe ideas")
	fp.NameErr = map[int]error{0: errors.New("innerText unavailable")}

	res := newTestManager(fp).Do(context.Background(), Request{Action: ActionDelete, Identifier: "Recipe"})
	if res.Kind != KindTraversal || !errors.Is(res.Err(), ErrTraversal) {
		t.Errorf("result = %+v, want traversal error", res)
	}
	if !strings.Contains(res.Message, "innerText unavailable") {
		t.Errorf("message %q should carry the cause", res.Message)
	}
}

func TestCollapsedListIsExpandedBeforeSearch(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning", "Recipe ideas", "Tax questions").Collapse(1)

	res := newTestManager(fp).Do(context.Background(), Request{Action: ActionLoad, Identifier: "Tax questions"})
	if res.Status != StatusOK {
		t.Fatalf("result = %+v, want ok", res)
	}
	if fp.Count(fakepage.EventShowAll) != 1 {
		t.Errorf("show-all activated %d times, want 1", fp.Count(fakepage.EventShowAll))
	}
	if fp.Active() != 2 {
		t.Errorf("active = %d, want 2", fp.Active())
	}
}

func TestExpandFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning")
	fp.ShowAllErr = fmt.Errorf("%w: see-all button detached", page.ErrStructure)

	res := newTestManager(fp).Do(context.Background(), Request{Action: ActionLoad, Identifier: "Trip planning"})
	if res.Status != StatusOK {
		t.Errorf("expansion failure must not abort load, got %+v", res)
	}
}

func TestCanceledContextCompletesOnce(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning")
	m := NewManager(fp.Handle(), Options{SettleDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan Result, 2)
	m.Submit(ctx, Request{Action: ActionLoad, Identifier: "Trip planning"}, func(r Result) {
		calls.Add(1)
		done <- r
	})
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case r := <-done:
		if r.Kind != KindCanceled || !errors.Is(r.Err(), ErrCanceled) {
			t.Errorf("result = %+v, want canceled", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("canceled request never completed")
	}
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("completion called %d times, want 1", calls.Load())
	}
	if fp.Count(fakepage.EventPrimary) != 0 {
		t.Error("canceled request must not open the thread")
	}
}

func TestSettleDelayIsAFloor(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning", "Recipe ideas", "Old chat").Collapse(1)
	fp.SettleSignal = true
	fp.RenderDelay = 200 * time.Millisecond
	m := NewManager(fp.Handle(), Options{})

	start := time.Now()
	res := m.Do(context.Background(), Request{Action: ActionLoad, Identifier: "Old chat"})
	elapsed := time.Since(start)
	if res.Status != StatusOK || res.Wire() != "Old chat" {
		t.Fatalf("result = %+v, want ok: an entry rendered inside the settle window was missed", res)
	}
	if elapsed < DefaultSettleDelay {
		t.Errorf("early settle signal cut the wait to %v, want at least %v", elapsed, DefaultSettleDelay)
	}
	if fp.Count(fakepage.EventSettled) == 0 {
		t.Error("expected WaitSettled to be consulted after the delay")
	}
}

func TestSettleSignalExtendsWait(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning")
	fp.SettleSignal = true
	fp.OnSettle = func() { time.Sleep(150 * time.Millisecond) }
	m := NewManager(fp.Handle(), Options{SettleDelay: 50 * time.Millisecond})

	start := time.Now()
	res := m.Do(context.Background(), Request{Action: ActionLoad, Identifier: "Trip planning"})
	if res.Status != StatusOK {
		t.Fatalf("result = %+v, want ok", res)
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("wait ended after %v, before the page reported quiet", elapsed)
	}
}

func TestSettleWithoutSignalWaitsDelay(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning")
	m := NewManager(fp.Handle(), Options{SettleDelay: 100 * time.Millisecond})

	start := time.Now()
	res := m.Do(context.Background(), Request{Action: ActionDelete, Identifier: "Trip"})
	if res.Status != StatusOK {
		t.Fatalf("result = %+v, want ok", res)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("wait ended after %v, want at least 100ms", elapsed)
	}
}

func TestRenameSettlesOnTheEntry(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Old name", "Other")
	fp.SettleSignal = true

	res := newTestManager(fp).Do(context.Background(), Request{Action: ActionRename, Identifier: "New name"})
	if res.Status != StatusOK {
		t.Fatalf("result = %+v, want ok", res)
	}
	var onEntry, onPage int
	for _, e := range fp.Events() {
		if e.Kind != fakepage.EventSettled {
			continue
		}
		if e.Index == 0 {
			onEntry++
		} else {
			onPage++
		}
	}
	if onEntry != 1 || onPage != 0 {
		t.Errorf("settle signals: entry=%d page=%d, want the entry's own signal only", onEntry, onPage)
	}
}

func TestConcurrentSubmissionsAreSerialized(t *testing.T) {
	t.Parallel()
	names := []string{"a", "b", "c", "d", "e"}
	fp := fakepage.New(names...)
	m := newTestManager(fp)

	var wg sync.WaitGroup
	results := make([]Result, len(names))
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = m.Do(context.Background(), Request{Action: ActionLoad, Identifier: name})
		}(i, name)
	}
	wg.Wait()

	for i, r := range results {
		if r.Status != StatusOK {
			t.Errorf("request %d: %+v", i, r)
		}
	}
	if snap := m.Tracker().Snapshot(); snap.OK != len(names) || snap.Pending != 0 {
		t.Errorf("tracker snapshot = %+v", snap)
	}
}

func TestSubmitTracksCorrelationID(t *testing.T) {
	t.Parallel()
	fp := fakepage.New("Trip planning")
	m := newTestManager(fp)

	id := m.Submit(context.Background(), Request{Action: ActionDelete, Identifier: "nope"}, nil)
	if id == "" {
		t.Fatal("expected a correlation ID")
	}
	entry, found := m.Tracker().Wait(id, 5*time.Second)
	if !found {
		t.Fatal("submitted request not tracked")
	}
	if entry.Status != StatusNotFound || entry.Result == nil || entry.Result.CorrelationID != id {
		t.Errorf("entry = %+v", entry)
	}
}

func TestIsInjected(t *testing.T) {
	t.Parallel()
	fp := fakepage.New()
	m := newTestManager(fp)
	if !m.IsInjected(context.Background()) {
		t.Error("expected probe to succeed")
	}
	fp.Injected = false
	if m.IsInjected(context.Background()) {
		t.Error("expected probe to fail when script is missing")
	}
}
