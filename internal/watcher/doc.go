// Package watcher reports changes to the entries of a single directory.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify for efficient event-based watching
//   - Fallback: Polling for environments where fsnotify fails (inotify limits, network mounts)
//
// Events are not debounced or filtered: every change the backend reports is
// delivered, so a consumer that re-reads a file on each event sees every
// write that reached the directory.
//
// Usage:
//
//	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go w.Start(ctx, "/run/user/1000/voicesurf/output")
//	<-w.Ready()
//
//	for event := range w.Events() {
//	    if event.Name() == "v0" {
//	        // Re-read the file
//	    }
//	}
package watcher
