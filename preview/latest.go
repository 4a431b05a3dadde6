package preview

import "sync"

// Latest keeps the newest successful render and the newest failure
// reported after it. Results older than the newest offered sequence
// number are dropped, so a slow run can never overwrite a newer one.
//
// A failed run does not clear the previous render; hosts keep showing
// it next to the error.
type Latest struct {
	mu       sync.Mutex
	newest   uint64
	seen     bool
	rendered *Result
	failure  *Result
}

// Offer records r and reports whether it was accepted.
func (l *Latest) Offer(r Result) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen && r.Seq < l.newest {
		return false
	}
	l.seen = true
	l.newest = r.Seq
	if r.OK() {
		l.rendered = &r
		l.failure = nil
		return true
	}
	l.failure = &r
	return true
}

// Rendered returns the newest successful render.
func (l *Latest) Rendered() (Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rendered == nil {
		return Result{}, false
	}
	return *l.rendered, true
}

// Failure returns the newest failure if it is newer than the render.
func (l *Latest) Failure() (Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failure == nil {
		return Result{}, false
	}
	return *l.failure, true
}
