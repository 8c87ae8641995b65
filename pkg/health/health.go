// Package health probes remote dependencies in the background.
//
// Each registered check runs in its own goroutine at a fixed interval. A check
// starts out pending and changes state only after failureThreshold
// consecutive failures or successThreshold consecutive successes, so a single
// slow response does not flip the reported state.
package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc is a health check function. It returns nil if the checked
// dependency is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// State of a single check.
type State int32

const (
	// StatePending means the check has not reached either threshold yet.
	StatePending State = iota
	StateHealthy
	StateUnhealthy
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateUnhealthy:
		return "unhealthy"
	default:
		return "pending"
	}
}

// Status is a point-in-time view of one check.
type Status struct {
	Name      string
	State     State
	LastError error
	CheckedAt time.Time
	// Runs is the number of completed check executions.
	Runs int64
}

// check holds the configuration and runtime state for a single check.
//
// run() is called from exactly one goroutine, so the consecutive counters need
// no synchronization. Everything read by Report() is atomic.
type check struct {
	name             string
	timeout          time.Duration
	fn               CheckFunc
	failureThreshold int
	successThreshold int

	state     atomic.Int32
	lastErr   atomic.Pointer[error]
	checkedAt atomic.Pointer[time.Time]
	runs      atomic.Int64

	consecutiveFails int
	consecutiveOK    int
}

// Option configures a check.
type Option func(*check)

// WithFailureThreshold sets how many consecutive failures mark a check
// unhealthy. Values below 1 are ignored.
func WithFailureThreshold(n int) Option {
	return func(c *check) {
		if n > 0 {
			c.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many consecutive successes mark a check
// healthy. Values below 1 are ignored.
func WithSuccessThreshold(n int) Option {
	return func(c *check) {
		if n > 0 {
			c.successThreshold = n
		}
	}
}

// run executes the check once and updates thresholds accordingly.
func (c *check) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(checkCtx)
	now := time.Now()
	c.lastErr.Store(&err)
	c.checkedAt.Store(&now)
	c.runs.Add(1)

	if err != nil {
		c.consecutiveOK = 0
		c.consecutiveFails++
		if c.consecutiveFails >= c.failureThreshold {
			c.state.Store(int32(StateUnhealthy))
		}
		return
	}
	c.consecutiveFails = 0
	c.consecutiveOK++
	if c.consecutiveOK >= c.successThreshold {
		c.state.Store(int32(StateHealthy))
	}
}

func (c *check) status() Status {
	st := Status{
		Name:  c.name,
		State: State(c.state.Load()),
		Runs:  c.runs.Load(),
	}
	if p := c.lastErr.Load(); p != nil {
		st.LastError = *p
	}
	if p := c.checkedAt.Load(); p != nil {
		st.CheckedAt = *p
	}
	return st
}

// Prober runs registered checks in the background.
type Prober struct {
	mu     sync.RWMutex
	checks []*check
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an empty Prober.
func New() *Prober {
	return &Prober{}
}

// Add registers a check. Defaults are 3 failures to turn unhealthy and 1
// success to turn healthy.
func (p *Prober) Add(name string, timeout time.Duration, fn CheckFunc, opts ...Option) {
	c := &check{
		name:             name,
		timeout:          timeout,
		fn:               fn,
		failureThreshold: 3,
		successThreshold: 1,
	}
	for _, opt := range opts {
		opt(c)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.checks = append(p.checks, c)
}

// Start runs every registered check immediately and then at the given
// interval until ctx is done or Stop is called. Start must be called at most
// once.
func (p *Prober) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.cancel = cancel
	checks := append([]*check(nil), p.checks...)
	p.mu.Unlock()

	for _, c := range checks {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			runCheck(ctx, c, interval)
		}()
	}
}

// runCheck periodically executes a single check until the context is cancelled.
func runCheck(ctx context.Context, c *check, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

// Stop cancels the background checks and waits for them to return. It is
// safe to call Stop multiple times.
func (p *Prober) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Report returns the status of every check in registration order.
func (p *Prober) Report() []Status {
	p.mu.RLock()
	checks := append([]*check(nil), p.checks...)
	p.mu.RUnlock()

	out := make([]Status, len(checks))
	for i, c := range checks {
		out[i] = c.status()
	}
	return out
}

// Healthy reports whether every check is currently healthy.
func (p *Prober) Healthy() bool {
	for _, st := range p.Report() {
		if st.State != StateHealthy {
			return false
		}
	}
	return true
}
