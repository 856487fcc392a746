package workpool

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_GoRunsAllJobs(t *testing.T) {
	p := New(4)
	defer p.Close()

	var count int64
	for range 100 {
		p.Go(func() { atomic.AddInt64(&count, 1) })
	}
	p.Wait()
	assert.Equal(t, int64(100), count)
}

func TestPool_WaitIsReusable(t *testing.T) {
	p := New(2)
	defer p.Close()

	var count int64
	for range 10 {
		p.Go(func() { atomic.AddInt64(&count, 1) })
	}
	p.Wait()
	assert.Equal(t, int64(10), count)

	for range 10 {
		p.Go(func() { atomic.AddInt64(&count, 1) })
	}
	p.Wait()
	assert.Equal(t, int64(20), count)
}

func TestPool_CloseIsIdempotent(t *testing.T) {
	p := New(2)
	p.Close()
	assert.NotPanics(t, func() { p.Close() })
}

func TestNew_ZeroUsesNumCPU(t *testing.T) {
	p := New(0)
	defer p.Close()
	var count int64
	p.Go(func() { atomic.AddInt64(&count, 1) })
	p.Wait()
	assert.Equal(t, int64(1), count)
}

func TestParallel_RunsEveryIndexExactlyOnce(t *testing.T) {
	p := New(4)
	defer p.Close()

	seen := make([]int32, 50)
	Parallel(p, 50, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	})
	for i, v := range seen {
		assert.Equal(t, int32(1), v, "index %d", i)
	}
}
