package health

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passingCheck() CheckFunc {
	return func(_ context.Context) error {
		return nil
	}
}

func failingCheck(msg string) CheckFunc {
	return func(_ context.Context) error {
		return errors.New(msg)
	}
}

func TestCheck_StartsPending(t *testing.T) {
	p := New()
	p.Add("docservice", time.Second, passingCheck())

	report := p.Report()
	require.Len(t, report, 1)
	assert.Equal(t, "docservice", report[0].Name)
	assert.Equal(t, StatePending, report[0].State)
	assert.Nil(t, report[0].LastError)
	assert.True(t, report[0].CheckedAt.IsZero())
	assert.False(t, p.Healthy())
}

func TestCheck_FailureThreshold(t *testing.T) {
	p := New()
	p.Add("docservice", time.Second, failingCheck("connection refused"))
	c := p.checks[0]
	ctx := context.Background()

	// Below the threshold of 3 the check stays pending.
	c.run(ctx)
	c.run(ctx)
	st := p.Report()[0]
	assert.Equal(t, StatePending, st.State)
	assert.EqualError(t, st.LastError, "connection refused")
	assert.Equal(t, int64(2), st.Runs)

	c.run(ctx)
	assert.Equal(t, StateUnhealthy, p.Report()[0].State)
}

func TestCheck_Recovery(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	p := New()
	p.Add("flaky", time.Second, func(_ context.Context) error {
		if failing.Load() {
			return errors.New("down")
		}
		return nil
	}, WithFailureThreshold(1), WithSuccessThreshold(2))
	c := p.checks[0]
	ctx := context.Background()

	c.run(ctx)
	assert.Equal(t, StateUnhealthy, p.Report()[0].State)

	failing.Store(false)
	c.run(ctx)
	assert.Equal(t, StateUnhealthy, p.Report()[0].State, "one success is below the threshold")
	c.run(ctx)
	assert.Equal(t, StateHealthy, p.Report()[0].State)
	assert.Nil(t, p.Report()[0].LastError)
	assert.True(t, p.Healthy())
}

func TestCheck_TimeoutApplied(t *testing.T) {
	p := New()
	p.Add("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithFailureThreshold(1))

	p.checks[0].run(context.Background())

	st := p.Report()[0]
	assert.Equal(t, StateUnhealthy, st.State)
	assert.ErrorIs(t, st.LastError, context.DeadlineExceeded)
}

func TestOptions_IgnoreInvalid(t *testing.T) {
	p := New()
	p.Add("x", time.Second, passingCheck(), WithFailureThreshold(0), WithSuccessThreshold(-1))

	assert.Equal(t, 3, p.checks[0].failureThreshold)
	assert.Equal(t, 1, p.checks[0].successThreshold)
}

func TestHealthy_Mixed(t *testing.T) {
	p := New()
	p.Add("a", time.Second, passingCheck())
	p.Add("b", time.Second, failingCheck("down"), WithFailureThreshold(1))
	for _, c := range p.checks {
		c.run(context.Background())
	}

	report := p.Report()
	assert.Equal(t, []string{"a", "b"}, []string{report[0].Name, report[1].Name})
	assert.Equal(t, StateHealthy, report[0].State)
	assert.Equal(t, StateUnhealthy, report[1].State)
	assert.False(t, p.Healthy())
}

func TestHealthy_NoChecks(t *testing.T) {
	assert.True(t, New().Healthy())
}

func TestStart_RunsImmediately(t *testing.T) {
	p := New()
	p.Add("docservice", time.Second, passingCheck())

	p.Start(context.Background(), time.Hour)
	defer p.Stop()

	require.Eventually(t, p.Healthy, time.Second, 5*time.Millisecond)
}

func TestStop_Idempotent(t *testing.T) {
	var runs atomic.Int64
	p := New()
	p.Add("counter", time.Second, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	p.Start(context.Background(), 5*time.Millisecond)
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)

	p.Stop()
	p.Stop()

	// No goroutine is left running after Stop returns.
	n := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, runs.Load())
}

func TestConcurrentAccess(t *testing.T) {
	p := New()
	p.Add("failing", time.Second, failingCheck("err"))
	p.Add("passing", time.Second, passingCheck())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx, time.Millisecond)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				p.Healthy()
				_ = p.Report()
			}
		}()
	}
	wg.Wait()
	p.Stop()
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "healthy", StateHealthy.String())
	assert.Equal(t, "unhealthy", StateUnhealthy.String())
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestPingCheck(t *testing.T) {
	ok := PingCheck(pingerFunc(func(context.Context) error { return nil }))
	assert.NoError(t, ok(context.Background()))

	down := PingCheck(pingerFunc(func(context.Context) error { return errors.New("503") }))
	assert.EqualError(t, down(context.Background()), "ping: 503")
}
