// page.go — Capability interfaces over the chat application's live DOM.
// The third-party UI is reachable only through a chain of shadow roots; every
// query against it goes through these interfaces so the fragile structure stays
// behind one seam and can be replaced by a fake in tests.
package page

import (
	"context"
	"errors"
)

// Sentinel errors returned by Handle implementations.
var (
	// ErrStructure means an expected host, shadow root, or control was missing.
	ErrStructure = errors.New("page structure not found")

	// ErrNoThreads means the thread list was reachable but empty.
	ErrNoThreads = errors.New("thread list is empty")
)

// Handle is the entry point into one page. Implementations must not cache
// thread references across calls: each LocateThreadList walks the tree again.
type Handle interface {
	// LocateThreadList descends the shadow-root chain to the container that
	// holds the conversation entries.
	LocateThreadList(ctx context.Context) (ThreadList, error)

	// Probe reports whether the companion in-page script is installed.
	Probe(ctx context.Context) (bool, error)
}

// ThreadList is the located container of conversation entries.
type ThreadList interface {
	// ShowAll activates the "see all recent chats" control. Returns false
	// without error when the control is absent (list already expanded).
	ShowAll(ctx context.Context) (bool, error)

	// Threads returns the entries in display order.
	Threads(ctx context.Context) ([]Thread, error)
}

// Thread is a short-lived reference to one entry's encapsulated subtree.
// It becomes invalid once the UI re-renders.
type Thread interface {
	Name(ctx context.Context) (string, error)
	ScrollIntoView(ctx context.Context) error
	Focus(ctx context.Context) error
	ActivatePrimary(ctx context.Context) error
	ActivateDelete(ctx context.Context) error
	EnterEditMode(ctx context.Context) error
	SetName(ctx context.Context, name string) error
	ConfirmEdit(ctx context.Context) error
}

// Settler is implemented by pages, and optionally by threads, that can signal
// when a re-render has finished. A Thread's signal covers only its own subtree
// and stays usable after the entry re-renders. Callers still bound the wait
// with their own timeout.
type Settler interface {
	WaitSettled(ctx context.Context) error
}
