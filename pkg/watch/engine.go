package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/filemon/pkg/dispatch"
	"github.com/macropower/filemon/pkg/inotify"
	"github.com/macropower/filemon/pkg/log"
)

// ErrNoPaths is returned when the engine is started without watched paths.
var ErrNoPaths = errors.New("no paths to watch")

// Source delivers batches of raw filesystem events.
// It is implemented by [inotify.Channel].
type Source interface {
	AddWatch(path string) (int, error)
	ReadBatch(ctx context.Context) ([]inotify.Event, error)
	Close() error
}

// Dispatcher runs the configured command for one arrived file and reports
// how the child terminated.
type Dispatcher interface {
	Run(ctx context.Context, path string) (dispatch.Outcome, error)
}

// Engine owns the notification channel and drives the read loop. Dispatch is
// synchronous and non-overlapping: event-arrival order and command-execution
// order coincide, and a slow command throttles event processing.
type Engine struct {
	src        Source
	dispatcher Dispatcher
	registry   *Registry
	tracer     trace.Tracer
}

func NewEngine(src Source, d Dispatcher) *Engine {
	return &Engine{
		src:        src,
		dispatcher: d,
		registry:   NewRegistry(),
		tracer:     otel.Tracer("watch-engine"),
	}
}

// Watch registers every path before the loop starts. The first registration
// failure aborts; a partially registered set is not retained for running.
func (e *Engine) Watch(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return ErrNoPaths
	}

	logger := log.WithContext(ctx)

	for _, path := range paths {
		wd, err := e.src.AddWatch(path)
		if err != nil {
			return fmt.Errorf("register watch: %w", err)
		}

		e.registry.Register(wd, path)
		logger.InfoContext(ctx, "watching path",
			slog.String("path", path),
			slog.Int("wd", wd),
		)
	}

	return nil
}

// Run drives the read loop until ctx is canceled. Cancellation is observed
// at the top of the loop and inside the blocking batch read; the current
// batch is always finished first. A nil return is an orderly shutdown.
func (e *Engine) Run(ctx context.Context) error {
	logger := log.WithContext(ctx)

	if e.registry.Len() == 0 {
		return ErrNoPaths
	}

	logger.InfoContext(ctx, "ready", slog.Int("watches", e.registry.Len()))

	for {
		if ctx.Err() != nil {
			logger.InfoContext(ctx, "shutting down")

			return nil
		}

		events, err := e.src.ReadBatch(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.InfoContext(ctx, "shutting down")

			return nil
		}
		if err != nil {
			return fmt.Errorf("read batch: %w", err)
		}

		for _, evt := range events {
			err = e.handle(ctx, evt)
			if err != nil {
				return err
			}
		}
	}
}

// handle processes one raw event. A non-nil error is fatal to the loop.
func (e *Engine) handle(ctx context.Context, evt inotify.Event) error {
	logger := log.WithContext(ctx)

	logger.DebugContext(ctx, "received event",
		slog.Int("wd", evt.WD),
		slog.String("mask", evt.Mask.String()),
		slog.String("name", evt.Name),
	)
	if evt.Cookie != 0 {
		logger.DebugContext(ctx, "rename cookie", slog.Uint64("cookie", uint64(evt.Cookie)))
	}

	// Overflow records carry no usable watch descriptor. Dropped events are
	// not recovered.
	if evt.Mask.Has(inotify.QueueOverflow) {
		logger.ErrorContext(ctx, "kernel event queue overflowed, events were dropped")

		return nil
	}

	dir, err := e.registry.Lookup(evt.WD)
	if err != nil {
		return err
	}

	fullPath, ok := Classify(evt, dir)
	if !ok {
		logger.DebugContext(ctx, "ignoring event",
			slog.String("dir", dir),
			slog.String("name", evt.Name),
		)

		return nil
	}

	ctx, span := e.tracer.Start(ctx, "handle", trace.WithAttributes(
		attribute.String("path", fullPath),
	))
	defer span.End()

	outcome, err := e.dispatcher.Run(ctx, fullPath)
	if errors.Is(err, dispatch.ErrCommandTooLong) {
		// Per-event failure: skip this file, keep the loop alive.
		logger.ErrorContext(ctx, "skipping event",
			slog.String("path", fullPath),
			slog.Any("error", err),
		)

		return nil
	}
	if err != nil {
		return fmt.Errorf("dispatch %q: %w", fullPath, err)
	}

	if outcome.Success() {
		logger.InfoContext(ctx, "command succeeded", slog.String("path", fullPath))
	} else {
		logger.InfoContext(ctx, "command failed",
			slog.String("path", fullPath),
			slog.String("outcome", outcome.String()),
		)
	}

	return nil
}

// Close releases the notification channel.
func (e *Engine) Close() error {
	return e.src.Close() //nolint:wrapcheck // Return the original error.
}
