// Package detector watches source directories and turns bursts of
// filesystem events into settled batches of changed paths.
//
// Typical usage:
//
//	d, err := detector.New(detector.Options{Roots: []string{"ui"}})
//	if err != nil {
//		return err // *WatchSetupError: fatal at startup
//	}
//	go d.Run(ctx)
//	for batch := range d.Batches() {
//		...
//	}
//
// Every accepted event restarts the debounce window; a batch is flushed only
// after the window passes with no new event. Events for the same path are
// merged, so a batch lists each path once. While the consumer is still busy
// with the previous batch, newly settled changes are merged into the
// undelivered one instead of queueing, so the pipeline runs at most one
// cycle per settled burst.
package detector
