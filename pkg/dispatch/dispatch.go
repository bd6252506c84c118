package dispatch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

var (
	// ErrEmptyCommand is returned when the command template is empty.
	ErrEmptyCommand = errors.New("empty command")

	// ErrCommandTooLong is returned when the assembled command line exceeds
	// the configured bound. The affected event is skipped.
	ErrCommandTooLong = errors.New("command line too long")

	// ErrSpawn is returned when the child process cannot be started at all.
	// The engine treats this as fatal, since further dispatch capability
	// cannot be guaranteed.
	ErrSpawn = errors.New("spawn command")
)

// MaxCommandLen bounds template + separator + file path. PATH_MAX doubled,
// leaving the template as much room as the path itself.
const MaxCommandLen = 2 * 4096

// State classifies how a dispatched child terminated.
type State int

const (
	// StateExited means the child exited normally.
	StateExited State = iota
	// StateSignaled means the child was terminated by a signal.
	StateSignaled
)

// Outcome reports the termination of one dispatched command.
type Outcome struct {
	Code   int            // Exit code, valid when State is StateExited.
	Signal syscall.Signal // Terminating signal, valid when State is StateSignaled.
	State  State
}

// Success reports a normal exit with status zero.
func (o Outcome) Success() bool {
	return o.State == StateExited && o.Code == 0
}

func (o Outcome) String() string {
	if o.State == StateSignaled {
		return fmt.Sprintf("signaled(%d)", int(o.Signal))
	}

	return fmt.Sprintf("exited(%d)", o.Code)
}

// runChild launches cmd with the parent's stdio and blocks until it
// terminates. The child is deliberately not bound to any context: a command
// already running to completion is never interrupted by shutdown.
func runChild(cmd *exec.Cmd) (Outcome, error) {
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Start()
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	// Wait blocks until the child terminates; the runtime retries the
	// interrupted wait syscall internally.
	err = cmd.Wait()

	state := cmd.ProcessState
	if state == nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return Outcome{State: StateSignaled, Signal: ws.Signal()}, nil
	}

	return Outcome{State: StateExited, Code: state.ExitCode()}, nil
}
