package cmd

import (
	"context"
	stderrors "errors"
	"fmt"

	"clipkeeper/pkg/clipboard"
	"clipkeeper/pkg/errors"
	"clipkeeper/pkg/logger"
	"clipkeeper/pkg/progress"
)

// newClipboardSystem is replaced in tests.
var newClipboardSystem = clipboard.New

// clipboardSession runs engine calls with the configured retry policy and
// collects per-format warnings.
type clipboardSession struct {
	retries  int
	warnings []clipboard.Warning
}

func newClipboardSession() *clipboardSession {
	return &clipboardSession{retries: openRetries}
}

func (s *clipboardSession) handleWarning(w clipboard.Warning) {
	s.warnings = append(s.warnings, w)
	logger.Warn().
		Str("op", w.Op).
		Uint32("format", w.Format).
		Str("name", w.Name).
		Err(w.Err).
		Msg("clipboard format skipped")
}

func (s *clipboardSession) run(ctx context.Context, operation string, fn func(e *clipboard.Engine) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	sys, err := newClipboardSystem()
	if err != nil {
		return errors.FromClipboardError(operation, err)
	}
	engine := clipboard.NewEngine(sys, clipboard.WithWarningHandler(s.handleWarning))

	spinner := progress.NewSpinner("Waiting for the clipboard")
	defer spinner.Stop()

	err = RunWithRetry(ctx, RetryConfig{
		Attempts: s.retries,
		Interval: retryInterval,
		Retryable: func(err error) bool {
			return stderrors.Is(err, clipboard.ErrUnavailable)
		},
		OnRetry: func(attempt int, err error) {
			logger.Debug().Int("attempt", attempt).Err(err).Msg("clipboard busy, retrying")
			spinner.SetMessage(fmt.Sprintf("Waiting for the clipboard (attempt %d/%d)", attempt+1, s.retries+1))
			spinner.Start()
		},
	}, func() error {
		s.warnings = s.warnings[:0]
		return fn(engine)
	})

	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.CancelledError(operation)
	}
	return errors.FromClipboardError(operation, err)
}

func (s *clipboardSession) capture(ctx context.Context) (clipboard.Snapshot, error) {
	var snap clipboard.Snapshot
	err := s.run(ctx, errors.ErrMsgCaptureFailed, func(e *clipboard.Engine) error {
		var err error
		snap, err = e.Capture()
		return err
	})
	return snap, err
}

func (s *clipboardSession) restore(ctx context.Context, snap clipboard.Snapshot) error {
	return s.run(ctx, errors.ErrMsgRestoreFailed, func(e *clipboard.Engine) error {
		return e.Restore(snap)
	})
}
