package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/starhopp3r/sci-cam-edge/pkg/logger"
	"github.com/starhopp3r/sci-cam-edge/pkg/metrics"
)

// Job is one unit of work submitted to the pool.
type Job interface {
	Process(ctx context.Context) error
	GetID() string
}

// Pool runs jobs on a fixed set of workers with a bounded queue. Submitting
// never blocks: when the queue is full the job is rejected and the caller
// decides whether to drop or run it inline.
type Pool struct {
	name    string
	jobs    chan Job
	workers int
	ctx     context.Context
	cancel  context.CancelFunc

	processing     int32
	totalProcessed int64
	totalErrors    int64
}

func NewPool(ctx context.Context, name string, workers, bufferSize int) *Pool {
	ctx, cancel := context.WithCancel(ctx)

	pool := &Pool{
		name:    name,
		jobs:    make(chan Job, bufferSize),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < workers; i++ {
		go pool.worker()
	}
	go pool.reportLoop()

	logger.Log.Infow("Worker pool started",
		"pool_name", name,
		"workers", workers,
		"buffer_size", bufferSize)

	return pool
}

func (p *Pool) worker() {
	for {
		select {
		case <-p.ctx.Done():
			return

		case job, ok := <-p.jobs:
			if !ok {
				return
			}

			atomic.AddInt32(&p.processing, 1)
			err := job.Process(p.ctx)
			atomic.AddInt32(&p.processing, -1)
			atomic.AddInt64(&p.totalProcessed, 1)

			if err != nil {
				atomic.AddInt64(&p.totalErrors, 1)
				logger.Log.Warnw("Job failed",
					"pool_name", p.name,
					"job_id", job.GetID(),
					"error", err)
			}
		}
	}
}

func (p *Pool) reportLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return

		case <-ticker.C:
			metrics.WorkerPoolQueueSize.WithLabelValues(p.name).Set(float64(len(p.jobs)))

			processed := atomic.LoadInt64(&p.totalProcessed)
			if processed > 0 {
				errors := atomic.LoadInt64(&p.totalErrors)
				logger.Log.Debugw("Worker pool stats",
					"pool_name", p.name,
					"processed", processed,
					"errors", errors,
					"in_flight", atomic.LoadInt32(&p.processing))
			}
		}
	}
}

// Submit enqueues a job, failing fast when the pool is closed or the queue
// is full.
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("pool %s closed", p.name)
	default:
		return fmt.Errorf("pool %s queue full", p.name)
	}
}

// SubmitNonBlocking enqueues a job and reports whether it was accepted.
func (p *Pool) SubmitNonBlocking(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Close drains in-flight jobs for up to 5 seconds, then cancels the workers.
func (p *Pool) Close() {
	close(p.jobs)

	timeout := time.After(5 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			logger.Log.Warnw("Worker pool close timed out",
				"pool_name", p.name,
				"in_flight", atomic.LoadInt32(&p.processing))
			p.cancel()
			return

		case <-ticker.C:
			if atomic.LoadInt32(&p.processing) == 0 {
				p.cancel()
				return
			}
		}
	}
}

func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:        p.workers,
		QueueSize:      len(p.jobs),
		Processing:     int(atomic.LoadInt32(&p.processing)),
		Capacity:       cap(p.jobs),
		TotalProcessed: atomic.LoadInt64(&p.totalProcessed),
		TotalErrors:    atomic.LoadInt64(&p.totalErrors),
	}
}

type PoolStats struct {
	Workers        int   `json:"workers"`
	QueueSize      int   `json:"queue_size"`
	Processing     int   `json:"processing"`
	Capacity       int   `json:"capacity"`
	TotalProcessed int64 `json:"total_processed"`
	TotalErrors    int64 `json:"total_errors"`
}

func (ps PoolStats) String() string {
	return fmt.Sprintf("Workers: %d, Queue: %d/%d, Processing: %d, Total: %d (errors: %d)",
		ps.Workers, ps.QueueSize, ps.Capacity, ps.Processing, ps.TotalProcessed, ps.TotalErrors)
}
