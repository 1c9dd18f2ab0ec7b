// Package logging sets up the host's structured logs: JSON lines written to
// a size-rotated file under ~/.voicesurf/logs/ and, optionally, stderr.
//
// Stdout belongs to the browser's native-messaging channel, so nothing in
// this package ever writes there.
package logging
