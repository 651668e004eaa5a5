package frames

import (
	"context"
	"sync"
	"time"
)

// PageWatch observes tabs adopted after it was armed.
type PageWatch struct {
	tracker *Tracker
	ch      chan *Page
	once    sync.Once
}

// Watch arms a watch. Call Stop when done.
func (t *Tracker) Watch() *PageWatch {
	w := &PageWatch{tracker: t, ch: make(chan *Page, 8)}
	t.mu.Lock()
	t.watchers[w] = struct{}{}
	t.mu.Unlock()
	return w
}

// offer is called with the tracker lock held and never blocks.
func (w *PageWatch) offer(p *Page) {
	select {
	case w.ch <- p:
	default:
	}
}

// Next returns the first tab adopted since the watch was armed, waiting up
// to timeout. It returns nil when none appeared in time.
func (w *PageWatch) Next(ctx context.Context, timeout time.Duration) *Page {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case p := <-w.ch:
		return p
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return nil
	}
}

// Stop disarms the watch.
func (w *PageWatch) Stop() {
	w.once.Do(func() {
		w.tracker.mu.Lock()
		delete(w.tracker.watchers, w)
		w.tracker.mu.Unlock()
	})
}
