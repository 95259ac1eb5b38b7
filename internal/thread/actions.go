// actions.go — Load, delete, and rename executors.
// Each returns a Result for the expected outcomes (ok, not found) and an error
// for everything else; Manager.execute turns errors into failure Results.
package thread

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dev-console/convmanage/internal/page"
)

func (m *Manager) load(ctx context.Context, logger *slog.Logger, identifier string) (Result, error) {
	Expand(ctx, m.page, logger)
	if err := m.settle(ctx, logger, nil); err != nil {
		return Result{}, err
	}

	target, found, err := Search(ctx, m.page, identifier, MatchExact, logger)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return NotFound(identifier), nil
	}

	if err := target.Focus(ctx); err != nil {
		return Result{}, fmt.Errorf("focus thread: %w", err)
	}
	if err := target.ActivatePrimary(ctx); err != nil {
		return Result{}, fmt.Errorf("open thread: %w", err)
	}
	return OK(identifier), nil
}

func (m *Manager) delete(ctx context.Context, logger *slog.Logger, identifier string) (Result, error) {
	Expand(ctx, m.page, logger)
	if err := m.settle(ctx, logger, nil); err != nil {
		return Result{}, err
	}

	target, found, err := Search(ctx, m.page, identifier, MatchSubstring, logger)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return NotFound(identifier), nil
	}

	if err := target.Focus(ctx); err != nil {
		return Result{}, fmt.Errorf("focus thread: %w", err)
	}
	if err := target.ActivateDelete(ctx); err != nil {
		return Result{}, fmt.Errorf("delete thread: %w", err)
	}
	return OK(identifier), nil
}

// rename always targets the most recent entry. Edit mode and commit are two
// phases separated by a settle wait; the entry is located again for the commit
// because entering edit mode re-renders it. The edit controls render inside the
// entry's own shadow root, so the wait listens there when the entry can signal.
func (m *Manager) rename(ctx context.Context, logger *slog.Logger, name string) (Result, error) {
	target, err := m.startRenameMode(ctx)
	if err != nil {
		return Result{}, err
	}
	scope, _ := target.(page.Settler)
	if err := m.settle(ctx, logger, scope); err != nil {
		return Result{}, err
	}
	if err := m.renameAndConfirm(ctx, name); err != nil {
		return Result{}, err
	}
	return OK(name), nil
}

func (m *Manager) startRenameMode(ctx context.Context) (page.Thread, error) {
	target, err := firstThread(ctx, m.page)
	if err != nil {
		return nil, err
	}
	if err := target.Focus(ctx); err != nil {
		return nil, fmt.Errorf("focus thread: %w", err)
	}
	if err := target.EnterEditMode(ctx); err != nil {
		return nil, fmt.Errorf("enter edit mode: %w", err)
	}
	return target, nil
}

func (m *Manager) renameAndConfirm(ctx context.Context, name string) error {
	target, err := firstThread(ctx, m.page)
	if err != nil {
		return err
	}
	if err := target.SetName(ctx, name); err != nil {
		return fmt.Errorf("set thread name: %w", err)
	}
	if err := target.ConfirmEdit(ctx); err != nil {
		return fmt.Errorf("confirm rename: %w", err)
	}
	return nil
}
