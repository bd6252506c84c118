// Package dispatch runs the configured command for files that have fully
// arrived in a watched directory.
//
// Two strategies are provided: Shell hands the assembled command line to a
// shell so the template may contain pipes and quoting, and Exec parses the
// template into argv once and spawns the program directly. Both block until
// the child terminates and classify the result into an [Outcome].
package dispatch
