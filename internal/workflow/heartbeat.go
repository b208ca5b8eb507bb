package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Default heartbeat timing.
const (
	DefaultInterval = 2 * time.Second
	DefaultTick     = 100 * time.Millisecond
)

// HeartbeatOptions controls how often Await emits working notices.
type HeartbeatOptions struct {
	// Interval is the minimum time between two notices.
	Interval time.Duration
	// Tick is how often the heartbeat checks for completion.
	Tick time.Duration
	// Format renders the notice from the elapsed time in seconds. Must contain one %f verb.
	Format string
}

func (o HeartbeatOptions) withDefaults() HeartbeatOptions {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Tick <= 0 {
		o.Tick = DefaultTick
	}
	if o.Tick > o.Interval {
		o.Tick = o.Interval
	}
	if o.Format == "" {
		o.Format = "Working for %.1fs..."
	}
	return o
}

// Await runs call while a second goroutine emits heartbeats on r. The
// heartbeat stops within one tick of call returning and never emits after it.
// Both goroutines have exited when Await returns.
func Await[T any](ctx context.Context, r *Reporter, opts HeartbeatOptions, call func(context.Context) (T, error)) (T, error) {
	opts = opts.withDefaults()

	var (
		result   T
		mu       sync.Mutex
		finished bool
	)
	done := make(chan struct{})
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		defer func() {
			mu.Lock()
			finished = true
			mu.Unlock()
			close(done)
		}()
		// A panic in call would otherwise take down the process from this goroutine.
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("unexpected failure: %v", p)
			}
		}()
		result, err = call(gctx)
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(opts.Tick)
		defer ticker.Stop()

		lastUpdate := start
		for {
			select {
			case <-done:
				return nil
			case now := <-ticker.C:
				mu.Lock()
				if !finished && now.Sub(lastUpdate) >= opts.Interval {
					r.LogWorking(fmt.Sprintf(opts.Format, now.Sub(start).Seconds()))
					lastUpdate = now
				}
				mu.Unlock()
			}
		}
	})

	err := g.Wait()
	return result, err
}

// Run wraps fn in a reported step: it logs the step, awaits fn with
// heartbeats, then logs the elapsed time on success or the error on failure.
func Run[T any](ctx context.Context, r *Reporter, opts HeartbeatOptions, label, tool string, fn func(context.Context) (T, error)) (T, error) {
	r.LogStep(label, tool, "")
	start := time.Now()

	result, err := Await(ctx, r, opts, fn)
	if err != nil {
		r.LogResult(false, err.Error())
		return result, err
	}

	r.LogResult(true, fmt.Sprintf("Completed in %.2fs", time.Since(start).Seconds()))
	return result, nil
}
