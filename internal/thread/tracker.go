// tracker.go — Correlation tracking for submitted requests.
// Records each request as pending on submit and as finished when its single
// result is delivered. Waiters are woken by closing a notify channel that is
// then recreated.
package thread

import (
	"sync"
	"time"
)

// Tracker limits.
const (
	EntryTTL      = 5 * time.Minute // finished entries older than this are pruned
	MaxFailedKept = 100             // failed entries retained for Failed()
)

// Entry is the tracked state of one request.
type Entry struct {
	CorrelationID string    `json:"correlation_id"`
	Request       Request   `json:"request"`
	Status        Status    `json:"status"`
	Result        *Result   `json:"result,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	CompletedAt   time.Time `json:"completed_at,omitempty"`
}

// Elapsed is the time between submit and completion, or since submit while pending.
func (e *Entry) Elapsed() time.Duration {
	if e.CompletedAt.IsZero() {
		return time.Since(e.CreatedAt)
	}
	return e.CompletedAt.Sub(e.CreatedAt)
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	failed  []*Entry
	notify  chan struct{}
	now     func() time.Time
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]*Entry),
		failed:  make([]*Entry, 0, MaxFailedKept),
		notify:  make(chan struct{}),
		now:     time.Now,
	}
}

// Register records a pending request.
func (t *Tracker) Register(correlationID string, req Request) {
	if correlationID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked()
	t.entries[correlationID] = &Entry{
		CorrelationID: correlationID,
		Request:       req,
		Status:        StatusPending,
		CreatedAt:     t.now(),
	}
}

// Finish records the result of a pending request. A request that already
// finished keeps its first result.
func (t *Tracker) Finish(correlationID string, r Result) {
	t.mu.Lock()
	e, ok := t.entries[correlationID]
	if !ok || e.Status != StatusPending {
		t.mu.Unlock()
		return
	}
	res := r
	e.Status = r.Status
	e.Result = &res
	e.CompletedAt = t.now()
	if r.Status == StatusError {
		t.failed = append(t.failed, e)
		if len(t.failed) > MaxFailedKept {
			t.failed = t.failed[1:]
		}
	}

	ch := t.notify
	t.notify = make(chan struct{})
	t.mu.Unlock()
	close(ch)
}

// Get returns a copy of the entry for correlationID.
func (t *Tracker) Get(correlationID string) (*Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if e, ok := t.entries[correlationID]; ok {
		cp := *e
		return &cp, true
	}
	for _, e := range t.failed {
		if e.CorrelationID == correlationID {
			cp := *e
			return &cp, true
		}
	}
	return nil, false
}

// Wait blocks until the request finishes or timeout expires. If it is still
// pending at the deadline, the pending entry is returned.
func (t *Tracker) Wait(correlationID string, timeout time.Duration) (*Entry, bool) {
	deadline := time.Now().Add(timeout)
	for {
		t.mu.RLock()
		ch := t.notify
		t.mu.RUnlock()

		e, found := t.Get(correlationID)
		if !found || e.Status != StatusPending {
			return e, found
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return e, found
		}
		timer := time.NewTimer(remaining)
		select {
		case <-ch:
			timer.Stop()
		case <-timer.C:
			return t.Get(correlationID)
		}
	}
}

// Pending returns copies of the requests still in flight or queued.
func (t *Tracker) Pending() []*Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Entry, 0)
	for _, e := range t.entries {
		if e.Status == StatusPending {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out
}

// Failed returns copies of the most recent failed requests, oldest first.
func (t *Tracker) Failed() []*Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Entry, 0, len(t.failed))
	for _, e := range t.failed {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

// Snapshot is a point-in-time count of tracked requests by status.
type Snapshot struct {
	Pending  int `json:"pending"`
	OK       int `json:"ok"`
	NotFound int `json:"not_found"`
	Failed   int `json:"failed"`
}

// Snapshot counts tracked requests.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var s Snapshot
	for _, e := range t.entries {
		switch e.Status {
		case StatusPending:
			s.Pending++
		case StatusOK:
			s.OK++
		case StatusNotFound:
			s.NotFound++
		case StatusError:
			s.Failed++
		}
	}
	return s
}

// pruneLocked drops finished entries older than EntryTTL. Pending entries are
// never pruned. MUST be called with t.mu held (Lock).
func (t *Tracker) pruneLocked() {
	cutoff := t.now().Add(-EntryTTL)
	for id, e := range t.entries {
		if e.Status != StatusPending && e.CompletedAt.Before(cutoff) {
			delete(t.entries, id)
		}
	}
}
