package debounce

import (
	"sync"
	"time"
)

// Debouncer runs action once, delay after the most recent Trigger. Each
// Trigger cancels the armed timer and arms a new one.
type Debouncer struct {
	delay     time.Duration
	scheduler Scheduler
	action    func()

	mu         sync.Mutex
	timer      Timer
	generation uint64
}

func New(delay time.Duration, scheduler Scheduler, action func()) *Debouncer {
	if scheduler == nil {
		scheduler = SystemScheduler{}
	}
	return &Debouncer{delay: delay, scheduler: scheduler, action: action}
}

// Trigger (re)arms the timer
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.generation++
	gen := d.generation
	d.timer = d.scheduler.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops a pending action, if any
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
}

// Pending reports whether an action is armed
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// fire ignores timers superseded by a later Trigger or Cancel whose Stop lost the race
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.generation {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.action()
}
