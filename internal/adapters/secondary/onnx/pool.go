package onnx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lesion-inference-service/internal/core/domain"
	ports "lesion-inference-service/internal/core/ports/output"
)

const (
	DefaultPoolSize       = 4
	DefaultAcquireTimeout = 5 * time.Second
)

// slotPool bounds the number of concurrent runs on one session. ORT sessions are safe for
// concurrent Run calls; the pool only provides backpressure.
type slotPool struct {
	slots   chan struct{}
	size    int
	timeout time.Duration
	mu      sync.Mutex
	closed  bool
	metrics *poolMetrics
}

type poolMetrics struct {
	mu              sync.RWMutex
	inUse           int
	totalAcquired   int64
	totalReleased   int64
	acquireFailures int64
	waitTime        time.Duration
}

func newSlotPool(size int, timeout time.Duration) *slotPool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}

	p := &slotPool{
		slots:   make(chan struct{}, size),
		size:    size,
		timeout: timeout,
		metrics: &poolMetrics{},
	}
	for i := 0; i < size; i++ {
		p.slots <- struct{}{}
	}
	return p
}

// Acquire waits for a free slot. A context error is returned as is; running out of the
// acquire timeout is reported as domain.ErrTimeout.
func (p *slotPool) Acquire(ctx context.Context) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("pool is closed")
	}

	start := time.Now()
	defer func() {
		p.metrics.mu.Lock()
		p.metrics.waitTime += time.Since(start)
		p.metrics.mu.Unlock()
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case _, ok := <-p.slots:
		if !ok {
			return fmt.Errorf("pool is closed")
		}
		p.metrics.mu.Lock()
		p.metrics.inUse++
		p.metrics.totalAcquired++
		p.metrics.mu.Unlock()
		return nil
	case <-timer.C:
		p.recordFailure()
		return fmt.Errorf("%w: no inference slot available after %s", domain.ErrTimeout, p.timeout)
	case <-ctx.Done():
		p.recordFailure()
		return ctx.Err()
	}
}

func (p *slotPool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.mu.Lock()
	p.metrics.inUse--
	p.metrics.totalReleased++
	p.metrics.mu.Unlock()

	if p.closed {
		return
	}
	p.slots <- struct{}{}
}

func (p *slotPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.slots)
}

func (p *slotPool) recordFailure() {
	p.metrics.mu.Lock()
	p.metrics.acquireFailures++
	p.metrics.mu.Unlock()
}

func (p *slotPool) Stats() ports.SessionStats {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()
	return ports.SessionStats{
		PoolSize:        p.size,
		InUse:           p.metrics.inUse,
		TotalAcquired:   p.metrics.totalAcquired,
		TotalReleased:   p.metrics.totalReleased,
		AcquireFailures: p.metrics.acquireFailures,
		WaitTime:        p.metrics.waitTime,
	}
}
