// Package index provides the per-tab incremental TF-IDF index.
//
// An Index is not safe for concurrent use. Each browser tab owns exactly one
// Index, and only that tab's worker goroutine ever touches it, so updates are
// atomic with respect to every reader without any locking.
//
// Usage:
//
//	idx := index.New()
//	idx.Update(0, "this is sample")
//	idx.Update(1, "this is another another example example example")
//	scores := idx.Score("example")
//	best := index.Rank(scores, 10)
package index
