//go:build linux

package inotify_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/filemon/pkg/inotify"
)

func TestChannel_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	c, err := inotify.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	wd, err := c.AddWatch(dir)
	require.NoError(t, err)
	require.GreaterOrEqual(t, wd, 0)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("data"), 0o644))

	events, err := c.ReadBatch(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, events)

	var sawCloseWrite bool
	for _, evt := range events {
		assert.Equal(t, wd, evt.WD)

		if evt.Mask.Has(inotify.ClosedAfterWrite) {
			sawCloseWrite = true

			assert.Equal(t, "a.txt", evt.Name)
		}
	}

	assert.True(t, sawCloseWrite, "expected a CLOSE_WRITE event for a.txt")
}

func TestChannel_AddWatchMissingPath(t *testing.T) {
	t.Parallel()

	c, err := inotify.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.AddWatch(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestMask_Has(t *testing.T) {
	t.Parallel()

	m := inotify.ClosedAfterWrite | inotify.IsDirectory

	assert.True(t, m.Has(inotify.ClosedAfterWrite))
	assert.True(t, m.Has(inotify.ClosedAfterWrite|inotify.MovedInto))
	assert.False(t, m.Has(inotify.MovedInto))
	assert.False(t, m.Has(inotify.Created|inotify.Deleted))
}

func TestMask_String(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		want string
		mask inotify.Mask
	}{
		"single kind": {
			mask: inotify.ClosedAfterWrite,
			want: "CLOSE_WRITE",
		},
		"combined kinds": {
			mask: inotify.MovedInto | inotify.IsDirectory,
			want: "ISDIR|MOVED_TO",
		},
		"overflow": {
			mask: inotify.QueueOverflow,
			want: "Q_OVERFLOW",
		},
		"empty": {
			mask: 0,
			want: "",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.mask.String())
		})
	}
}
