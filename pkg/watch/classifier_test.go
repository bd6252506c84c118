package watch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macropower/filemon/pkg/inotify"
	"github.com/macropower/filemon/pkg/watch"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		dir      string
		wantPath string
		evt      inotify.Event
		want     bool
	}{
		"close write dispatches": {
			evt:      inotify.Event{Mask: inotify.ClosedAfterWrite, Name: "a.txt"},
			dir:      "/tmp",
			want:     true,
			wantPath: "/tmp/a.txt",
		},
		"moved into dispatches": {
			evt:      inotify.Event{Mask: inotify.MovedInto, Name: "b.dat"},
			dir:      "/var/spool",
			want:     true,
			wantPath: "/var/spool/b.dat",
		},
		"trailing separator not duplicated": {
			evt:      inotify.Event{Mask: inotify.ClosedAfterWrite, Name: "a.txt"},
			dir:      "/tmp/",
			want:     true,
			wantPath: "/tmp/a.txt",
		},
		"extra kinds in mask still dispatch": {
			evt:      inotify.Event{Mask: inotify.ClosedAfterWrite | inotify.Modified, Name: "a.txt"},
			dir:      "/tmp",
			want:     true,
			wantPath: "/tmp/a.txt",
		},
		"directory-level event ignored": {
			evt:  inotify.Event{Mask: inotify.ClosedAfterWrite},
			dir:  "/tmp",
			want: false,
		},
		"created alone ignored": {
			evt:  inotify.Event{Mask: inotify.Created, Name: "a.txt"},
			dir:  "/tmp",
			want: false,
		},
		"close nowrite ignored": {
			evt:  inotify.Event{Mask: inotify.ClosedNoWrite, Name: "a.txt"},
			dir:  "/tmp",
			want: false,
		},
		"modify alone ignored": {
			evt:  inotify.Event{Mask: inotify.Modified, Name: "a.txt"},
			dir:  "/tmp",
			want: false,
		},
		"temp file ignored": {
			evt:  inotify.Event{Mask: inotify.ClosedAfterWrite, Name: ".a.txt.swp"},
			dir:  "/tmp",
			want: false,
		},
		"temp file moved in ignored": {
			evt:  inotify.Event{Mask: inotify.MovedInto, Name: ".partial"},
			dir:  "/tmp",
			want: false,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			gotPath, got := watch.Classify(tc.evt, tc.dir)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantPath, gotPath)
		})
	}
}
