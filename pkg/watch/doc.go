// Package watch contains the notification-event engine: it registers the
// configured paths on a notification channel, resolves incoming events back
// to their originating path, classifies them, and synchronously dispatches
// the configured command for every file that has fully arrived.
package watch
