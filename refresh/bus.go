// Package refresh is the "data changed, please refetch" bus shared by every
// view of the client. Requests are debounced and fanned out to subscribers.
package refresh

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-guard-companion/debounce"
	"github.com/rs/zerolog/log"
)

// DefaultDelay coalesces bursts of server events
const DefaultDelay = 500 * time.Millisecond

type subscription struct {
	id     string
	fn     func()
	active atomic.Bool
}

// Bus holds subscriptions in registration order
type Bus struct {
	mu        sync.Mutex
	subs      []*subscription
	debouncer *debounce.Debouncer
}

type Option func(*options)

type options struct {
	delay     time.Duration
	scheduler debounce.Scheduler
}

func WithDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.delay = d
		}
	}
}

func WithScheduler(s debounce.Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

func NewBus(opts ...Option) *Bus {
	o := options{delay: DefaultDelay, scheduler: debounce.SystemScheduler{}}
	for _, opt := range opts {
		opt(&o)
	}
	b := &Bus{}
	b.debouncer = debounce.New(o.delay, o.scheduler, b.dispatch)
	return b
}

// Subscribe registers fn and returns the function that removes it. Each call
// makes a distinct subscription, even for the same fn. Unsubscribe is idempotent
// and, once it returns, fn will not be called by a later dispatch.
func (b *Bus) Subscribe(fn func()) (unsubscribe func()) {
	s := &subscription{id: uuid.NewString(), fn: fn}
	s.active.Store(true)

	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(s) })
	}
}

func (b *Bus) remove(s *subscription) {
	s.active.Store(false)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub == s {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Refresh requests a debounced dispatch
func (b *Bus) Refresh() {
	b.debouncer.Trigger()
}

// Cancel drops a pending dispatch
func (b *Bus) Cancel() {
	b.debouncer.Cancel()
}

// Len is the number of live subscriptions
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) dispatch() {
	b.mu.Lock()
	snapshot := make([]*subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	log.Debug().Int("subscribers", len(snapshot)).Msg("Dispatching data refresh")
	for _, s := range snapshot {
		if !s.active.Load() {
			continue
		}
		b.invoke(s)
	}
}

// invoke isolates a subscriber panic from the rest of the dispatch
func (b *Bus) invoke(s *subscription) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("subscription", s.id).Err(fmt.Errorf("%v", r)).Msg("Refresh subscriber panicked")
		}
	}()
	s.fn()
}
