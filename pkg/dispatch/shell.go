package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/filemon/pkg/log"
)

const defaultShell = "/bin/sh"

// Shell dispatches by handing the assembled command line to a shell, so the
// template may itself contain shell syntax such as pipes or quoting.
type Shell struct {
	tracer   trace.Tracer
	template string
	shell    string
	maxLen   int
}

type ShellOpt func(*Shell)

// WithShellPath overrides the shell binary used to interpret the command line.
func WithShellPath(path string) ShellOpt {
	return func(s *Shell) {
		s.shell = path
	}
}

// WithMaxCommandLen overrides the command line length bound.
func WithMaxCommandLen(n int) ShellOpt {
	return func(s *Shell) {
		s.maxLen = n
	}
}

// NewShell creates a [Shell] for the given command template. The shell binary
// is resolved here so that a missing shell is a setup error, not a per-event
// one.
func NewShell(template string, opts ...ShellOpt) (*Shell, error) {
	if template == "" {
		return nil, ErrEmptyCommand
	}

	s := &Shell{
		tracer:   otel.Tracer("dispatcher"),
		template: template,
		shell:    defaultShell,
		maxLen:   MaxCommandLen,
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(template) > s.maxLen {
		return nil, fmt.Errorf("%w: template is %d bytes (max %d)", ErrCommandTooLong, len(template), s.maxLen)
	}

	shellPath, err := exec.LookPath(s.shell)
	if err != nil {
		return nil, fmt.Errorf("locate shell: %w", err)
	}

	s.shell = shellPath

	return s, nil
}

// Run assembles `template + " " + path` and executes it synchronously.
func (s *Shell) Run(ctx context.Context, path string) (Outcome, error) {
	cmdline := s.template + " " + path
	if len(cmdline) > s.maxLen {
		return Outcome{}, fmt.Errorf("%w: %d bytes (max %d)", ErrCommandTooLong, len(cmdline), s.maxLen)
	}

	ctx, span := s.tracer.Start(ctx, "dispatch", trace.WithAttributes(
		attribute.String("command", cmdline),
	))
	defer span.End()

	logger := log.WithContext(ctx).With(slog.String("cmd", cmdline))
	logger.InfoContext(ctx, "running command")

	start := time.Now()

	outcome, err := runChild(exec.Command(s.shell, "-c", cmdline)) //nolint:gosec // G204: arbitrary user command is the use case.
	if err != nil {
		return outcome, err
	}

	logger.DebugContext(ctx, "command terminated",
		slog.String("outcome", outcome.String()),
		slog.Duration("duration", time.Since(start)),
	)

	return outcome, nil
}

func (s *Shell) String() string {
	return s.template
}
