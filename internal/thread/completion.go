// completion.go — Guarded one-shot completion handle.
package thread

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Completion delivers a Result at most once. Later attempts are counted and
// logged but never reach the callback.
type Completion struct {
	once     sync.Once
	deliver  func(Result)
	done     chan struct{}
	result   Result
	attempts atomic.Int32
	logger   *slog.Logger
}

// NewCompletion wraps deliver, which may be nil.
func NewCompletion(deliver func(Result), logger *slog.Logger) *Completion {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Completion{
		deliver: deliver,
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// Complete delivers r if nothing was delivered yet. Returns true when r won.
func (c *Completion) Complete(r Result) bool {
	c.attempts.Add(1)
	delivered := false
	c.once.Do(func() {
		delivered = true
		c.result = r
		defer close(c.done)
		if c.deliver != nil {
			c.deliver(r)
		}
	})
	if !delivered {
		c.logger.Warn("duplicate completion suppressed",
			"status", r.Status, "identifier", r.Identifier, "attempts", c.attempts.Load())
	}
	return delivered
}

// Done is closed once a result has been delivered.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Wait blocks for the delivered result or ctx expiry.
func (c *Completion) Wait(ctx context.Context) (Result, error) {
	select {
	case <-c.done:
		return c.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Attempts returns how many times Complete was called.
func (c *Completion) Attempts() int {
	return int(c.attempts.Load())
}
