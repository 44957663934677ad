package dispatch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Clock abstracts time so spacing can be driven by tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type Option func(*Dispatcher)

func WithClock(c Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// Dispatcher gates outbound calls: at most maxConcurrent run at once and
// consecutive starts are at least minInterval apart. Waiters are admitted in
// the order they arrive. One Dispatcher is shared by every caller of the same
// upstream.
type Dispatcher struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	clock   Clock
	mu      sync.Mutex
}

func New(maxConcurrent int, minInterval time.Duration, opts ...Option) *Dispatcher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	d := &Dispatcher{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		limiter: rate.NewLimiter(limit, 1),
		clock:   realClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Do runs fn once both gates admit it. The context bounds the wait only; fn
// receives the same context.
func (d *Dispatcher) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer d.sem.Release(1)

	if err := d.wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}

func (d *Dispatcher) wait(ctx context.Context) error {
	d.mu.Lock()
	now := d.clock.Now()
	r := d.limiter.ReserveN(now, 1)
	d.mu.Unlock()

	delay := r.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	select {
	case <-d.clock.After(delay):
		return nil
	case <-ctx.Done():
		r.CancelAt(d.clock.Now())
		return ctx.Err()
	}
}

// Run is Do for calls that produce a value.
func Run[T any](ctx context.Context, d *Dispatcher, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := d.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
