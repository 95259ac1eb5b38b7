// fakepage.go — In-memory page.Handle for tests.
// Models an ordered thread list that re-renders after every state transition,
// so handles taken before a transition go stale exactly like live DOM nodes.
// This file is NOT a test file so tests in other packages can import it.
package fakepage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dev-console/convmanage/internal/page"
)

// ErrStale is returned when a thread handle outlives a re-render.
var ErrStale = fmt.Errorf("%w: stale thread handle", page.ErrStructure)

// Event kinds recorded by the fake.
const (
	EventShowAll   = "show_all"
	EventScroll    = "scroll"
	EventFocus     = "focus"
	EventPrimary   = "primary"
	EventDelete    = "delete"
	EventEdit      = "edit"
	EventSetName   = "set_name"
	EventConfirm   = "confirm"
	EventSettled   = "settled"
	EventLocate    = "locate"
	EventEnumerate = "enumerate"
)

// Event is one recorded interaction.
type Event struct {
	Kind  string
	Index int
	Name  string
}

// Page is a fake chat page. Zero value is not usable; call New.
type Page struct {
	mu         sync.Mutex
	names      []string
	visible    int // entries enumerable before ShowAll; -1 = all
	expanded   bool
	renderedAt time.Time // when the expanded list becomes enumerable
	generation int
	active     int
	editing    int
	draft      string
	events     []Event

	// Injected controls Probe's answer.
	Injected bool
	// SettleSignal makes the page and its threads implement a settle signal
	// that answers at once.
	SettleSignal bool
	// RenderDelay defers the expanded list after ShowAll. With SettleSignal
	// set, the signal fires before the entries render.
	RenderDelay time.Duration
	// LocateErr is returned by LocateThreadList when set.
	LocateErr error
	// ShowAllErr is returned by ShowAll when set.
	ShowAllErr error
	// NameErr is returned by Name for the given index.
	NameErr map[int]error
	// PanicOnPrimary makes ActivatePrimary panic.
	PanicOnPrimary bool
	// OnSettle runs inside WaitSettled before it returns.
	OnSettle func()
}

// New creates a page whose thread list holds names in display order.
func New(names ...string) *Page {
	cp := make([]string, len(names))
	copy(cp, names)
	return &Page{
		names:    cp,
		visible:  -1,
		active:   -1,
		editing:  -1,
		Injected: true,
	}
}

// Collapse limits enumeration to the first n entries until ShowAll is activated.
func (p *Page) Collapse(n int) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = n
	p.expanded = false
	return p
}

// Names returns the current display names.
func (p *Page) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Active returns the index of the loaded entry, or -1.
func (p *Page) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Events returns a copy of the recorded interactions.
func (p *Page) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Count returns how many events of kind were recorded.
func (p *Page) Count(kind string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (p *Page) record(kind string, index int, name string) {
	p.events = append(p.events, Event{Kind: kind, Index: index, Name: name})
}

// rerender invalidates every outstanding handle. Caller holds mu.
func (p *Page) rerender() {
	p.generation++
}

// LocateThreadList implements page.Handle.
func (p *Page) LocateThreadList(ctx context.Context) (page.ThreadList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.LocateErr != nil {
		return nil, p.LocateErr
	}
	p.record(EventLocate, -1, "")
	return &list{p: p}, nil
}

// Probe implements page.Handle.
func (p *Page) Probe(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Injected, nil
}

type settlingPage struct {
	*Page
}

// WaitSettled implements page.Settler.
func (s settlingPage) WaitSettled(ctx context.Context) error {
	return s.settled(ctx, -1)
}

// settled records a settle signal for index (-1 for the whole page).
func (p *Page) settled(ctx context.Context, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.record(EventSettled, index, "")
	hook := p.OnSettle
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

// Handle returns the value to hand to the code under test. When SettleSignal
// is set it also satisfies page.Settler.
func (p *Page) Handle() page.Handle {
	if p.SettleSignal {
		return settlingPage{p}
	}
	return p
}

type list struct {
	p *Page
}

func (l *list) ShowAll(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p := l.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ShowAllErr != nil {
		return false, p.ShowAllErr
	}
	if p.visible < 0 || p.expanded {
		return false, nil
	}
	p.expanded = true
	p.renderedAt = time.Now().Add(p.RenderDelay)
	p.record(EventShowAll, -1, "")
	p.rerender()
	return true, nil
}

func (l *list) Threads(ctx context.Context) ([]page.Thread, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := l.p
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(EventEnumerate, -1, "")
	n := len(p.names)
	rendered := p.expanded && !time.Now().Before(p.renderedAt)
	if p.visible >= 0 && !rendered && p.visible < n {
		n = p.visible
	}
	out := make([]page.Thread, 0, n)
	for i := 0; i < n; i++ {
		t := &thread{p: p, index: i, generation: p.generation}
		if p.SettleSignal {
			out = append(out, settlingThread{t})
		} else {
			out = append(out, t)
		}
	}
	return out, nil
}

type thread struct {
	p          *Page
	index      int
	generation int
}

// check validates the handle. Caller holds mu.
func (t *thread) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.generation != t.p.generation || t.index >= len(t.p.names) {
		return ErrStale
	}
	return nil
}

// settlingThread signals for its own subtree. Like a live host element it
// keeps answering after the entry re-renders.
type settlingThread struct {
	*thread
}

// WaitSettled implements page.Settler.
func (s settlingThread) WaitSettled(ctx context.Context) error {
	return s.p.settled(ctx, s.index)
}

func (t *thread) Name(ctx context.Context) (string, error) {
	p := t.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := t.check(ctx); err != nil {
		return "", err
	}
	if err := p.NameErr[t.index]; err != nil {
		return "", err
	}
	return p.names[t.index], nil
}

func (t *thread) ScrollIntoView(ctx context.Context) error {
	return t.do(ctx, EventScroll, nil)
}

func (t *thread) Focus(ctx context.Context) error {
	return t.do(ctx, EventFocus, nil)
}

func (t *thread) ActivatePrimary(ctx context.Context) error {
	p := t.p
	p.mu.Lock()
	panicking := p.PanicOnPrimary
	p.mu.Unlock()
	if panicking {
		panic("fakepage: primary control detached")
	}
	return t.do(ctx, EventPrimary, func() {
		p.active = t.index
		p.rerender()
	})
}

func (t *thread) ActivateDelete(ctx context.Context) error {
	p := t.p
	return t.do(ctx, EventDelete, func() {
		p.names = append(p.names[:t.index], p.names[t.index+1:]...)
		if p.active == t.index {
			p.active = -1
		} else if p.active > t.index {
			p.active--
		}
		p.rerender()
	})
}

func (t *thread) EnterEditMode(ctx context.Context) error {
	p := t.p
	return t.do(ctx, EventEdit, func() {
		p.editing = t.index
		p.draft = p.names[t.index]
		p.rerender()
	})
}

func (t *thread) SetName(ctx context.Context, name string) error {
	p := t.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := t.check(ctx); err != nil {
		return err
	}
	if p.editing != t.index {
		return fmt.Errorf("%w: entry %d is not in edit mode", page.ErrStructure, t.index)
	}
	p.draft = name
	p.record(EventSetName, t.index, name)
	return nil
}

func (t *thread) ConfirmEdit(ctx context.Context) error {
	p := t.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := t.check(ctx); err != nil {
		return err
	}
	if p.editing != t.index {
		return errors.New("fakepage: confirm control hidden outside edit mode")
	}
	p.names[t.index] = p.draft
	p.editing = -1
	p.record(EventConfirm, t.index, p.draft)
	p.rerender()
	return nil
}

func (t *thread) do(ctx context.Context, kind string, apply func()) error {
	p := t.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := t.check(ctx); err != nil {
		return err
	}
	p.record(kind, t.index, p.names[t.index])
	if apply != nil {
		apply()
	}
	return nil
}
