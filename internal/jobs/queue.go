package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fredrikburmester/streamcore/internal/config"
)

// Settings key for the dynamic concurrency limit
const limitSettingKey = "jobs.max_concurrent"

// DefaultConcurrencyLimit caps simultaneous jobs plus external processes
const DefaultConcurrencyLimit = 1

// RunFunc is the single dispatch function every job kind flows through
type RunFunc func(ctx context.Context, job Job) error

// Queue serializes background jobs. A job is dequeued only while no other
// job is running and the externally tracked process count stays below the
// concurrency limit read live from settings. The gate re-evaluates on every
// enqueue, completion, and process-count change.
type Queue struct {
	loader *config.Loader
	run    RunFunc

	mu        sync.Mutex
	pending   []Job
	running   bool
	processes int
	nextID    int64

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue creates a job queue; run receives every dequeued job
func NewQueue(loader *config.Loader, run RunFunc) *Queue {
	return &Queue{
		loader: loader,
		run:    run,
		wake:   make(chan struct{}, 1),
	}
}

// Start launches the dispatch loop
func (q *Queue) Start() {
	q.ctx, q.cancel = context.WithCancel(context.Background())

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("Job dispatch loop panicked")
			}
		}()
		for {
			select {
			case <-q.ctx.Done():
				return
			case <-q.wake:
				q.evaluate()
			}
		}
	}()

	log.Debug().Msg("Job queue started")
}

// Stop cancels the loop and waits for an in-flight job to finish
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

// Enqueue adds a job and re-evaluates the gate
func (q *Queue) Enqueue(payload Payload) Job {
	q.mu.Lock()
	q.nextID++
	job := Job{ID: q.nextID, Payload: payload, EnqueuedAt: time.Now()}
	q.pending = append(q.pending, job)
	q.mu.Unlock()

	log.Debug().Int64("job_id", job.ID).Str("kind", string(payload.Kind())).Msg("Job queued")
	q.signal()
	return job
}

// SetActiveProcesses updates the externally tracked process count (e.g.
// transcodes owned by another subsystem) and re-evaluates the gate
func (q *Queue) SetActiveProcesses(n int) {
	q.mu.Lock()
	q.processes = n
	q.mu.Unlock()
	q.signal()
}

// Stats returns the number of pending jobs and whether one is running
func (q *Queue) Stats() (pending int, running bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending), q.running
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) limit() int {
	if q.loader == nil {
		return DefaultConcurrencyLimit
	}
	return q.loader.Int(limitSettingKey, DefaultConcurrencyLimit)
}

// evaluate dequeues at most one job when the gate is open
func (q *Queue) evaluate() {
	q.mu.Lock()
	if q.running || len(q.pending) == 0 || q.processes >= q.limit() {
		q.mu.Unlock()
		return
	}

	job := q.pending[0]
	q.pending = q.pending[1:]
	q.running = true
	q.mu.Unlock()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Int64("job_id", job.ID).Msg("Job panicked")
			}
			q.mu.Lock()
			q.running = false
			q.mu.Unlock()
			q.signal()
		}()

		start := time.Now()
		if err := q.run(q.ctx, job); err != nil {
			log.Warn().Err(err).Int64("job_id", job.ID).Str("kind", string(job.Payload.Kind())).Msg("Job failed")
			return
		}
		log.Info().
			Int64("job_id", job.ID).
			Str("kind", string(job.Payload.Kind())).
			Dur("took", time.Since(start)).
			Msg("Job completed")
	}()
}
