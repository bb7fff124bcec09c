// Package logtail reads and follows plain-text log files.
//
// # Reading
//
// Read extracts the last maxLines lines of a file with a ring buffer, so memory
// stays O(maxLines) no matter how large the file is. A missing file is not an
// error: it yields no lines.
//
//	lines, err := logtail.Read("/var/log/app/app.log", 5000)
//
// # Following
//
// Follow watches the parent directories of the given files with fsnotify and
// emits every complete line appended after the call. Partial lines are held
// until their newline arrives. When a file shrinks (truncation) or is
// recreated (rotation) the read offset starts over at zero.
//
//	lines, err := logtail.Follow(ctx, []string{path}, log)
//	for line := range lines {
//		...
//	}
//
// The channel is closed when ctx is cancelled or the watcher fails.
package logtail
