package wheel

import (
	"sync"
	"time"

	"datewheel/internal/model"
)

// DefaultDebounce is the quiet period after the last scroll event before a
// column settles.
const DefaultDebounce = 100 * time.Millisecond

type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it via
// RealAfterFunc; tests substitute a manual scheduler.
type AfterFunc func(d time.Duration, f func()) Timer

func RealAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Debouncer keeps one timer per field. Every Notify cancels the pending
// timer for that field and arms a new one, so fn runs at most once per quiet
// period, after the last event of the burst.
type Debouncer struct {
	delay time.Duration
	after AfterFunc

	mu      sync.Mutex
	timers  map[model.Field]Timer
	stopped bool
}

func NewDebouncer(delay time.Duration, after AfterFunc) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if after == nil {
		after = RealAfterFunc
	}
	return &Debouncer{delay: delay, after: after, timers: map[model.Field]Timer{}}
}

func (d *Debouncer) Delay() time.Duration { return d.delay }

func (d *Debouncer) Notify(f model.Field, fn func()) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t := d.timers[f]; t != nil {
		t.Stop()
	}
	d.timers[f] = d.after(d.delay, fn)
}

// Stop cancels every pending timer; later Notify calls are ignored.
func (d *Debouncer) Stop() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for f, t := range d.timers {
		t.Stop()
		delete(d.timers, f)
	}
}
