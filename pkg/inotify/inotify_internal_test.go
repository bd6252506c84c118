//go:build linux

package inotify

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func appendRecord(buf []byte, wd int32, mask, cookie uint32, name string) []byte {
	nameField := make([]byte, 0)
	if name != "" {
		// The kernel NUL-pads names; one trailing NUL is enough for the parser.
		nameField = append([]byte(name), 0, 0, 0)
	}

	rec := make([]byte, unix.SizeofInotifyEvent+len(nameField))
	hdr := (*unix.InotifyEvent)(unsafe.Pointer(&rec[0]))
	hdr.Wd = wd
	hdr.Mask = mask
	hdr.Cookie = cookie
	hdr.Len = uint32(len(nameField))
	copy(rec[unix.SizeofInotifyEvent:], nameField)

	return append(buf, rec...)
}

func TestParseBatch(t *testing.T) {
	t.Parallel()

	var buf []byte
	buf = appendRecord(buf, 1, unix.IN_CLOSE_WRITE, 0, "a.txt")
	buf = appendRecord(buf, 2, unix.IN_MOVED_TO, 42, "b.txt")
	buf = appendRecord(buf, 1, unix.IN_DELETE_SELF, 0, "")

	events, err := parseBatch(buf)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, Event{WD: 1, Mask: ClosedAfterWrite, Name: "a.txt"}, events[0])
	assert.Equal(t, Event{WD: 2, Mask: MovedInto, Cookie: 42, Name: "b.txt"}, events[1])
	assert.Equal(t, Event{WD: 1, Mask: DeletedSelf}, events[2])
}

func TestParseBatch_Truncated(t *testing.T) {
	t.Parallel()

	var buf []byte
	buf = appendRecord(buf, 1, unix.IN_CREATE, 0, "x")
	buf = append(buf, 0x01, 0x02)

	events, err := parseBatch(buf)
	require.Error(t, err)
	assert.Len(t, events, 1)
}

func TestReadBatch_RetriesInterruptedReads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	c, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.AddWatch(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("data"), 0o644))

	// Fail the first two reads as if a signal had interrupted them.
	interruptions := 0
	c.readFn = func(fd int, p []byte) (int, error) {
		if interruptions < 2 {
			interruptions++

			return 0, unix.EINTR
		}

		return unix.Read(fd, p)
	}

	events, err := c.ReadBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, interruptions)
	assert.NotEmpty(t, events)
}

func TestReadBatch_ClosedChannel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	c, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.AddWatch(dir)
	require.NoError(t, err)

	// Make the descriptor poll-readable so the read is actually attempted.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("data"), 0o644))

	// A 0-byte read means the descriptor is gone.
	c.readFn = func(int, []byte) (int, error) {
		return 0, nil
	}

	_, err = c.ReadBatch(context.Background())
	require.ErrorIs(t, err, ErrChannelClosed)
}

func TestReadBatch_Cancellation(t *testing.T) {
	t.Parallel()

	c, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.AddWatch(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err = c.ReadBatch(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
