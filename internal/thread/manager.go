// manager.go — Action dispatcher with a single asynchronous completion per request.
package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dev-console/convmanage/internal/page"
	"github.com/dev-console/convmanage/internal/util"
)

// DefaultSettleDelay is the upper bound on each wait for the UI to re-render.
const DefaultSettleDelay = 500 * time.Millisecond

// Options configures a Manager. Zero values fall back to defaults.
type Options struct {
	SettleDelay time.Duration
	Logger      *slog.Logger
	Tracker     *Tracker
}

// Manager dispatches requests against one page, one at a time.
type Manager struct {
	page        page.Handle
	settleDelay time.Duration
	logger      *slog.Logger
	tracker     *Tracker
	slot        chan struct{} // capacity 1: the single in-flight request
}

// NewManager creates a Manager for h.
func NewManager(h page.Handle, opts Options) *Manager {
	m := &Manager{
		page:        h,
		settleDelay: opts.SettleDelay,
		logger:      opts.Logger,
		tracker:     opts.Tracker,
		slot:        make(chan struct{}, 1),
	}
	if m.settleDelay <= 0 {
		m.settleDelay = DefaultSettleDelay
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	if m.tracker == nil {
		m.tracker = NewTracker()
	}
	return m
}

// Tracker returns the request tracker.
func (m *Manager) Tracker() *Tracker {
	return m.tracker
}

// Manage is the string-contract entry point: it returns immediately and later
// calls done exactly once with the identifier, "null", or "Error: ...".
func (m *Manager) Manage(ctx context.Context, action, identifier string, done func(string)) {
	m.Submit(ctx, Request{Action: Action(action), Identifier: identifier}, func(r Result) {
		if done != nil {
			done(r.Wire())
		}
	})
}

// Submit queues req and returns its correlation ID. done (may be nil) is
// called exactly once from a background goroutine.
func (m *Manager) Submit(ctx context.Context, req Request, done func(Result)) string {
	correlationID := uuid.NewString()
	logger := m.logger.With("correlation_id", correlationID, "action", string(req.Action))
	completion := NewCompletion(done, logger)
	m.tracker.Register(correlationID, req)

	util.SafeGo(func() {
		finish := func(r Result) {
			r.CorrelationID = correlationID
			m.tracker.Finish(correlationID, r)
			completion.Complete(r)
		}

		select {
		case m.slot <- struct{}{}:
		case <-ctx.Done():
			logger.Warn("request canceled while queued", "error", ctx.Err())
			finish(Failure(req.Identifier, KindCanceled, ctx.Err().Error()))
			return
		}
		defer func() { <-m.slot }()

		finish(m.execute(ctx, logger, req))
	})
	return correlationID
}

// Do submits req and blocks until its result is delivered.
func (m *Manager) Do(ctx context.Context, req Request) Result {
	ch := make(chan Result, 1)
	m.Submit(ctx, req, func(r Result) { ch <- r })
	return <-ch
}

// IsInjected reports whether the page answers the injection probe.
func (m *Manager) IsInjected(ctx context.Context) bool {
	var ok bool
	err := util.SafeCall(func() error {
		var err error
		ok, err = m.page.Probe(ctx)
		return err
	})
	if err != nil {
		m.logger.Warn("injection probe failed", "error", err)
		return false
	}
	return ok
}

// execute runs one request. Every error and panic raised below this frame is
// converted into a failure Result here.
func (m *Manager) execute(ctx context.Context, logger *slog.Logger, req Request) Result {
	start := time.Now()
	logger.Info("action started", "identifier", req.Identifier)

	var res Result
	err := util.SafeCall(func() error {
		var err error
		switch req.Action {
		case ActionLoad:
			res, err = m.load(ctx, logger, req.Identifier)
		case ActionDelete:
			res, err = m.delete(ctx, logger, req.Identifier)
		case ActionRename:
			res, err = m.rename(ctx, logger, req.Identifier)
		default:
			logger.Warn("unrecognized action", "identifier", req.Identifier)
			res = Failure(req.Identifier, KindUnrecognizedAction,
				fmt.Sprintf("unrecognized action %q (want load, delete, or rename)", req.Action))
		}
		return err
	})
	if err != nil {
		res = failureFromError(ctx, req.Identifier, err)
		logger.Error("action failed", "kind", res.Kind, "error", err)
	}

	logger.Info("action finished", "status", res.Status, "elapsed", time.Since(start))
	return res
}

func failureFromError(ctx context.Context, identifier string, err error) Result {
	kind := KindException
	switch {
	case ctx.Err() != nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindCanceled
	case errors.Is(err, page.ErrStructure), errors.Is(err, page.ErrNoThreads):
		kind = KindTraversal
	}
	return Failure(identifier, kind, err.Error())
}

// settle waits for the UI to re-render. The settle delay is a floor: the wait
// never ends before it. After the floor, a page that can signal settling
// extends the wait until it reports quiet, bounded by one more settle delay.
// scope narrows the signal to one entry's subtree; nil uses the page.
func (m *Manager) settle(ctx context.Context, logger *slog.Logger, scope page.Settler) error {
	timer := time.NewTimer(m.settleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return fmt.Errorf("waiting for ui to settle: %w", ctx.Err())
	}

	if scope == nil {
		s, ok := m.page.(page.Settler)
		if !ok {
			logger.Debug("settle delay elapsed", "delay", m.settleDelay)
			return nil
		}
		scope = s
	}

	sctx, cancel := context.WithTimeout(ctx, m.settleDelay)
	defer cancel()
	err := util.SafeCall(func() error { return scope.WaitSettled(sctx) })
	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("waiting for ui to settle: %w", ctx.Err())
	case err != nil:
		logger.Debug("settle signal unavailable", "error", err)
	default:
		logger.Debug("ui settled")
	}
	return nil
}
