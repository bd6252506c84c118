// Package inotify provides a thin channel over the kernel's inotify facility.
//
// One Channel owns one inotify descriptor for the whole process lifetime.
// Paths are registered up front for the full event set, and events are then
// consumed in kernel-sized batches via ReadBatch.
package inotify
