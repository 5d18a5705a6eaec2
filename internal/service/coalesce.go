package service

import (
	"context"
	"sync"
	"time"

	"github.com/servicer-desk/backend/internal/metrics"
)

const DefaultWriteDebounce = 500 * time.Millisecond

type WriteFunc func(ctx context.Context) error

// Coalescer debounces writes per key. Each key has at most one pending
// write; submitting again before the delay elapses replaces it and the
// replaced caller receives ErrSuperseded. Writes for one key never overlap.
type Coalescer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingWrite
	locks   map[string]*keyLock
	closed  bool
	wg      sync.WaitGroup
}

type pendingWrite struct {
	ctx   context.Context
	fn    WriteFunc
	done  chan error
	timer *time.Timer
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewCoalescer(delay time.Duration) *Coalescer {
	if delay <= 0 {
		delay = DefaultWriteDebounce
	}
	return &Coalescer{
		delay:   delay,
		pending: map[string]*pendingWrite{},
		locks:   map[string]*keyLock{},
	}
}

// Submit schedules fn for key. The returned channel yields exactly one
// value: fn's error, or ErrSuperseded if a newer write for key replaced it.
// fn runs with ctx's values but not its cancellation.
func (c *Coalescer) Submit(ctx context.Context, key string, fn WriteFunc) <-chan error {
	p := &pendingWrite{ctx: context.WithoutCancel(ctx), fn: fn, done: make(chan error, 1)}

	c.mu.Lock()
	if c.closed {
		lock := c.acquire(key)
		c.wg.Add(1)
		c.mu.Unlock()
		go c.run(key, lock, p)
		return p.done
	}
	if prev, ok := c.pending[key]; ok && prev.timer.Stop() {
		delete(c.pending, key)
		c.supersede(prev)
	}
	c.pending[key] = p
	c.wg.Add(1)
	p.timer = time.AfterFunc(c.delay, func() { c.fire(key, p) })
	c.mu.Unlock()
	return p.done
}

func (c *Coalescer) fire(key string, p *pendingWrite) {
	c.mu.Lock()
	if c.pending[key] != p {
		c.mu.Unlock()
		c.supersede(p)
		return
	}
	delete(c.pending, key)
	lock := c.acquire(key)
	c.mu.Unlock()
	c.run(key, lock, p)
}

func (c *Coalescer) run(key string, lock *keyLock, p *pendingWrite) {
	defer c.wg.Done()
	lock.mu.Lock()
	err := p.fn(p.ctx)
	lock.mu.Unlock()

	c.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(c.locks, key)
	}
	c.mu.Unlock()

	p.done <- err
}

// supersede must be called once per write that will never run.
func (c *Coalescer) supersede(p *pendingWrite) {
	metrics.IncWriteCoalesced()
	p.done <- ErrSuperseded
	c.wg.Done()
}

// acquire is called with c.mu held.
func (c *Coalescer) acquire(key string) *keyLock {
	l, ok := c.locks[key]
	if !ok {
		l = &keyLock{}
		c.locks[key] = l
	}
	l.refs++
	return l
}

// Pending reports how many keys are waiting for their delay to elapse.
func (c *Coalescer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Flush runs every pending write immediately and waits for all writes to
// finish. Later submissions skip the delay.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	c.closed = true
	var due []*pendingWrite
	var keys []string
	var locks []*keyLock
	for key, p := range c.pending {
		if p.timer.Stop() {
			due = append(due, p)
			keys = append(keys, key)
			locks = append(locks, c.acquire(key))
			delete(c.pending, key)
		}
	}
	c.mu.Unlock()

	for i, p := range due {
		c.run(keys[i], locks[i], p)
	}
	c.wg.Wait()
}
