package loadgen

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSchedulerClosed is returned when a task is scheduled after Close.
var ErrSchedulerClosed = errors.New("scheduler is closed")

const queueCapacity = 1024

// Task is a unit of work run by one of the scheduler's workers.
type Task func(ctx context.Context)

// Scheduler runs delayed tasks on a fixed number of worker goroutines.
//
// A scheduled task waits on a timer; when the timer fires the task is queued and the next idle
// worker runs it. Close abandons the waiting and queued tasks and waits for the running ones.
type Scheduler struct {
	ctx   context.Context
	queue chan Task
	done  chan struct{}

	workers sync.WaitGroup

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	closed bool
}

// NewScheduler starts threads workers. Tasks run with ctx.
func NewScheduler(ctx context.Context, threads int) *Scheduler {
	s := &Scheduler{
		ctx:    ctx,
		queue:  make(chan Task, queueCapacity),
		done:   make(chan struct{}),
		timers: make(map[*time.Timer]struct{}),
	}

	s.workers.Add(threads)
	for i := 0; i < threads; i++ {
		go s.work()
	}

	return s
}

func (s *Scheduler) work() {
	defer s.workers.Done()

	for {
		select {
		case <-s.done:
			return
		case task := <-s.queue:
			select {
			case <-s.done:
				return
			default:
			}

			task(s.ctx)
		}
	}
}

// Schedule queues task for execution once delay has elapsed.
func (s *Scheduler) Schedule(task Task, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, timer)
		s.mu.Unlock()

		select {
		case s.queue <- task:
		case <-s.done:
		}
	})
	s.timers[timer] = struct{}{}

	return nil
}

// Pending returns the number of tasks waiting on their timer.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.timers)
}

// Close stops admitting tasks, stops all pending timers and waits until the running tasks have finished.
// It is safe to call Close more than once.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.closed = true
	for timer := range s.timers {
		timer.Stop()
	}
	clear(s.timers)
	close(s.done)
	s.mu.Unlock()

	s.workers.Wait()
}
