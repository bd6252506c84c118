package watch

import (
	"strings"

	"github.com/macropower/filemon/pkg/inotify"
)

// dispatchMask is the set of kinds that signal "file content is final":
// a writable file handle was closed, or a file was moved into the directory.
const dispatchMask = inotify.ClosedAfterWrite | inotify.MovedInto

// tempFilePrefix marks in-progress atomic writes by convention.
const tempFilePrefix = "."

// Classify decides whether evt represents a file that has fully arrived in
// dir. It returns the full path to act on and true when the event qualifies.
//
// Events without a name concern the watched path itself and never qualify.
func Classify(evt inotify.Event, dir string) (string, bool) {
	if evt.Name == "" {
		return "", false
	}
	if !evt.Mask.Has(dispatchMask) {
		return "", false
	}
	if strings.HasPrefix(evt.Name, tempFilePrefix) {
		return "", false
	}

	// Exactly one separator between directory and name.
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}

	return dir + evt.Name, true
}
