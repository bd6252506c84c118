//go:build linux

package inotify

import (
	"strings"

	"golang.org/x/sys/unix"
)

// Mask is a bitset describing what happened to a watched path.
type Mask uint32

const (
	Accessed         Mask = unix.IN_ACCESS
	AttributeChanged Mask = unix.IN_ATTRIB
	ClosedNoWrite    Mask = unix.IN_CLOSE_NOWRITE
	ClosedAfterWrite Mask = unix.IN_CLOSE_WRITE
	Created          Mask = unix.IN_CREATE
	Deleted          Mask = unix.IN_DELETE
	DeletedSelf      Mask = unix.IN_DELETE_SELF
	WatchRemoved     Mask = unix.IN_IGNORED
	IsDirectory      Mask = unix.IN_ISDIR
	Modified         Mask = unix.IN_MODIFY
	SelfMoved        Mask = unix.IN_MOVE_SELF
	MovedFrom        Mask = unix.IN_MOVED_FROM
	MovedInto        Mask = unix.IN_MOVED_TO
	Opened           Mask = unix.IN_OPEN
	QueueOverflow    Mask = unix.IN_Q_OVERFLOW
	Unmounted        Mask = unix.IN_UNMOUNT
)

var maskNames = []struct {
	name string
	bit  Mask
}{
	{"ACCESS", Accessed},
	{"ATTRIB", AttributeChanged},
	{"CLOSE_NOWRITE", ClosedNoWrite},
	{"CLOSE_WRITE", ClosedAfterWrite},
	{"CREATE", Created},
	{"DELETE", Deleted},
	{"DELETE_SELF", DeletedSelf},
	{"IGNORED", WatchRemoved},
	{"ISDIR", IsDirectory},
	{"MODIFY", Modified},
	{"MOVE_SELF", SelfMoved},
	{"MOVED_FROM", MovedFrom},
	{"MOVED_TO", MovedInto},
	{"OPEN", Opened},
	{"Q_OVERFLOW", QueueOverflow},
	{"UNMOUNT", Unmounted},
}

// Has reports whether the mask contains at least one of the given kinds.
func (m Mask) Has(kinds Mask) bool {
	return m&kinds != 0
}

func (m Mask) String() string {
	names := make([]string, 0, 2)
	for _, mn := range maskNames {
		if m&mn.bit != 0 {
			names = append(names, mn.name)
		}
	}

	return strings.Join(names, "|")
}

// Event is one notification record delivered by the channel.
//
// Name is set only when the event concerns an entry inside the watched
// directory; it is empty for events on the watched path itself. Cookie
// correlates the two halves of a rename and is zero otherwise.
type Event struct {
	Name   string
	WD     int
	Cookie uint32
	Mask   Mask
}
