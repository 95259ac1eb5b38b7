// search.go — Thread list expansion and name search.
package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dev-console/convmanage/internal/page"
	"github.com/dev-console/convmanage/internal/util"
)

// Expand activates the list's "show all" control when present. It never fails:
// the list may already be expanded or the control may not exist, so any
// traversal error (or panic from the page layer) is logged and swallowed.
// Returns true when the control was activated.
func Expand(ctx context.Context, h page.Handle, logger *slog.Logger) bool {
	expanded := false
	err := util.SafeCall(func() error {
		list, err := h.LocateThreadList(ctx)
		if err != nil {
			return fmt.Errorf("locate thread list: %w", err)
		}
		expanded, err = list.ShowAll(ctx)
		if err != nil {
			return fmt.Errorf("show all threads: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.Warn("thread list expansion skipped", "error", err)
		return false
	}
	logger.Debug("thread list expansion", "activated", expanded)
	return expanded
}

// Search scans the enumerable entries in display order, scrolling each into
// view before reading its name, and returns the first one whose name satisfies
// mode. A miss is not an error: it returns (nil, false, nil). Failures reading
// the list or a name wrap page.ErrStructure.
func Search(ctx context.Context, h page.Handle, identifier string, mode MatchMode, logger *slog.Logger) (page.Thread, bool, error) {
	list, err := h.LocateThreadList(ctx)
	if err != nil {
		return nil, false, traversalError(err, "locate thread list")
	}
	threads, err := list.Threads(ctx)
	if err != nil {
		return nil, false, traversalError(err, "enumerate threads")
	}

	for i, t := range threads {
		if err := t.ScrollIntoView(ctx); err != nil {
			return nil, false, traversalError(err, fmt.Sprintf("scroll thread %d into view", i))
		}
		name, err := t.Name(ctx)
		if err != nil {
			return nil, false, traversalError(err, fmt.Sprintf("read thread %d name", i))
		}
		if mode.Matches(name, identifier) {
			logger.Debug("thread matched", "index", i, "name", name, "mode", mode)
			return t, true, nil
		}
	}

	logger.Warn("no conversation with id", "identifier", identifier, "mode", mode, "scanned", len(threads))
	return nil, false, nil
}

// firstThread returns the most recent (positionally first) entry.
func firstThread(ctx context.Context, h page.Handle) (page.Thread, error) {
	list, err := h.LocateThreadList(ctx)
	if err != nil {
		return nil, traversalError(err, "locate thread list")
	}
	threads, err := list.Threads(ctx)
	if err != nil {
		return nil, traversalError(err, "enumerate threads")
	}
	if len(threads) == 0 {
		return nil, page.ErrNoThreads
	}
	return threads[0], nil
}

// traversalError marks err as a traversal failure unless it already is one.
func traversalError(err error, op string) error {
	if errors.Is(err, page.ErrStructure) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, page.ErrStructure, err)
}
