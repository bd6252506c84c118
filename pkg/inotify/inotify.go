//go:build linux

package inotify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

var (
	// ErrChannelInit is returned when the inotify descriptor cannot be acquired.
	ErrChannelInit = errors.New("init notification channel")

	// ErrChannelClosed is returned when a read observes an unexpectedly closed
	// descriptor. The engine cannot recover from this.
	ErrChannelClosed = errors.New("notification channel closed")
)

// One read consumes a kernel batch, so the buffer holds several
// maximum-length records to amortize allocation across the run.
const readBufSize = 10 * (unix.SizeofInotifyEvent + unix.NAME_MAX + 1)

// Channel is a subscription to filesystem change notifications.
// It is owned by a single goroutine; only Close may be called concurrently.
type Channel struct {
	readFn func(fd int, p []byte) (int, error)
	buf    []byte
	fd     int
	wake   [2]int
}

// Open acquires one OS-level notification source for the whole run.
func Open() (*Channel, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChannelInit, err)
	}

	// Self-pipe, poked by cancellation to wake a blocked ReadBatch.
	var wake [2]int

	err = unix.Pipe2(wake[:], unix.O_CLOEXEC|unix.O_NONBLOCK)
	if err != nil {
		_ = unix.Close(fd)

		return nil, fmt.Errorf("%w: %w", ErrChannelInit, err)
	}

	return &Channel{
		fd:     fd,
		wake:   wake,
		buf:    make([]byte, readBufSize),
		readFn: unix.Read,
	}, nil
}

// AddWatch subscribes path for the full event set and returns the watch
// descriptor assigned by the kernel.
func (c *Channel) AddWatch(path string) (int, error) {
	wd, err := unix.InotifyAddWatch(c.fd, path, unix.IN_ALL_EVENTS)
	if err != nil {
		return -1, fmt.Errorf("watch %q: %w", path, err)
	}

	return wd, nil
}

// ReadBatch blocks until at least one event is available and returns the
// whole pending batch. Interrupted waits are retried transparently, with no
// event loss. Cancellation of ctx is observed at this suspension point and
// surfaces as ctx.Err().
func (c *Channel) ReadBatch(ctx context.Context) ([]Event, error) {
	stop := context.AfterFunc(ctx, c.poke)
	defer stop()

	fds := []unix.PollFd{
		{Fd: int32(c.fd), Events: unix.POLLIN},
		{Fd: int32(c.wake[0]), Events: unix.POLLIN},
	}

	for {
		err := ctx.Err()
		if err != nil {
			return nil, err //nolint:wrapcheck // Propagate the cancellation cause.
		}

		fds[0].Revents = 0
		fds[1].Revents = 0

		_, err = unix.Poll(fds, -1)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("poll notification channel: %w", err)
		}

		if fds[1].Revents&unix.POLLIN != 0 {
			c.drainWake()

			// Loop back so the next iteration observes ctx.Err.
			continue
		}

		if fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) == 0 {
			continue
		}

		n, err := c.readFn(c.fd, c.buf)
		if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read notification channel: %w", err)
		}
		if n == 0 {
			return nil, ErrChannelClosed
		}

		return parseBatch(c.buf[:n])
	}
}

// Close releases the channel. Used only during orderly shutdown.
func (c *Channel) Close() error {
	_ = unix.Close(c.wake[0])
	_ = unix.Close(c.wake[1])

	err := unix.Close(c.fd)
	if err != nil {
		return fmt.Errorf("close notification channel: %w", err)
	}

	return nil
}

func (c *Channel) poke() {
	// EAGAIN means the pipe already holds a pending wakeup.
	_, _ = unix.Write(c.wake[1], []byte{0})
}

func (c *Channel) drainWake() {
	var b [16]byte
	for {
		_, err := unix.Read(c.wake[0], b[:])
		if err != nil {
			return
		}
	}
}

// parseBatch splits one kernel read into individual event records. Each
// record is a fixed inotify_event header followed by Len bytes of
// NUL-padded name.
func parseBatch(buf []byte) ([]Event, error) {
	events := make([]Event, 0, 4)

	for offset := 0; offset < len(buf); {
		if len(buf)-offset < unix.SizeofInotifyEvent {
			return events, fmt.Errorf("truncated event record at offset %d", offset)
		}

		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		nameLen := int(raw.Len)
		if len(buf)-offset-unix.SizeofInotifyEvent < nameLen {
			return events, fmt.Errorf("truncated event record at offset %d", offset)
		}

		evt := Event{
			WD:     int(raw.Wd),
			Mask:   Mask(raw.Mask),
			Cookie: raw.Cookie,
		}
		if nameLen > 0 {
			name := buf[offset+unix.SizeofInotifyEvent : offset+unix.SizeofInotifyEvent+nameLen]
			evt.Name = string(bytes.TrimRight(name, "\x00"))
		}

		events = append(events, evt)
		offset += unix.SizeofInotifyEvent + nameLen
	}

	return events, nil
}
