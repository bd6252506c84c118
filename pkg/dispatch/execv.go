package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/filemon/pkg/log"
)

// Exec dispatches by spawning the program directly, without a shell. The
// template is split into argv once at construction; the file path becomes the
// final argument.
type Exec struct {
	tracer   trace.Tracer
	template string
	prog     string
	argv     []string
	maxLen   int
}

type ExecOpt func(*Exec)

// WithExecMaxCommandLen overrides the command line length bound.
func WithExecMaxCommandLen(n int) ExecOpt {
	return func(e *Exec) {
		e.maxLen = n
	}
}

// NewExec creates an [Exec] for the given command template.
func NewExec(template string, opts ...ExecOpt) (*Exec, error) {
	argv, err := shellwords.Parse(template)
	if err != nil {
		return nil, fmt.Errorf("parse command template: %w", err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	e := &Exec{
		tracer:   otel.Tracer("dispatcher"),
		template: template,
		argv:     argv,
		maxLen:   MaxCommandLen,
	}
	for _, opt := range opts {
		opt(e)
	}

	if len(template) > e.maxLen {
		return nil, fmt.Errorf("%w: template is %d bytes (max %d)", ErrCommandTooLong, len(template), e.maxLen)
	}

	prog, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("locate program: %w", err)
	}

	e.prog = prog

	return e, nil
}

// Run executes the program with the file path appended to argv.
func (e *Exec) Run(ctx context.Context, path string) (Outcome, error) {
	// The bound covers the command line as written, template plus separator
	// plus path, not the argv after quote stripping.
	cmdlineLen := len(e.template) + 1 + len(path)
	if cmdlineLen > e.maxLen {
		return Outcome{}, fmt.Errorf("%w: %d bytes (max %d)", ErrCommandTooLong, cmdlineLen, e.maxLen)
	}

	argv := append(slices.Clone(e.argv), path)
	cmdline := strings.Join(argv, " ")

	ctx, span := e.tracer.Start(ctx, "dispatch", trace.WithAttributes(
		attribute.String("command", cmdline),
	))
	defer span.End()

	logger := log.WithContext(ctx).With(slog.String("cmd", cmdline))
	logger.InfoContext(ctx, "running command")

	began := time.Now()

	outcome, err := runChild(exec.Command(e.prog, argv[1:]...)) //nolint:gosec // G204: arbitrary user command is the use case.
	if err != nil {
		return outcome, err
	}

	logger.DebugContext(ctx, "command terminated",
		slog.String("outcome", outcome.String()),
		slog.Duration("duration", time.Since(began)),
	)

	return outcome, nil
}

func (e *Exec) String() string {
	return strings.Join(e.argv, " ")
}
